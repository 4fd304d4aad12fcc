// Package syncer pulls transactions from a user's configured platforms and
// registers push endpoints with them.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/paybridge/internal/clock"
	"github.com/smallbiznis/paybridge/internal/config"
	integrationdomain "github.com/smallbiznis/paybridge/internal/integration/domain"
	obscontext "github.com/smallbiznis/paybridge/internal/observability/context"
	obslogger "github.com/smallbiznis/paybridge/internal/observability/logger"
	"github.com/smallbiznis/paybridge/internal/platform/adapters"
	"github.com/smallbiznis/paybridge/internal/platform/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrIntegrationDisabled = errors.New("integration_disabled")
	ErrWebhookURLRequired  = errors.New("webhook_url_required")
)

type Params struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	Clock    clock.Clock
	Configs  integrationdomain.Service
	Registry *adapters.Registry
}

type Service struct {
	publicBaseURL string
	log           *zap.Logger
	clock         clock.Clock
	configs       integrationdomain.Service
	registry      *adapters.Registry
}

// Result summarizes one sync pass of one integration.
type Result struct {
	UserID     string                         `json:"user_id"`
	PlatformID string                         `json:"platform_id"`
	Fetched    int                            `json:"fetched"`
	Persisted  int                            `json:"persisted"`
	LatencyMs  int64                          `json:"latency_ms"`
	Status     integrationdomain.HealthStatus `json:"status"`
}

func New(p Params) *Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		publicBaseURL: strings.TrimRight(p.Cfg.PublicBaseURL, "/"),
		log:           p.Log.Named("platform.sync"),
		clock:         clk,
		configs:       p.Configs,
		registry:      p.Registry,
	}
}

// Sync loads the integration and pulls its transactions. The health snapshot
// is updated whether or not the pass succeeds.
func (s *Service) Sync(ctx context.Context, userID, platformID string) (*Result, error) {
	cfg, err := s.configs.GetConfig(ctx, userID, platformID)
	if err != nil {
		return nil, err
	}
	return s.SyncConfig(ctx, *cfg)
}

// SyncConfig runs a pass for an already loaded integration.
func (s *Service) SyncConfig(ctx context.Context, cfg integrationdomain.PlatformConfig) (*Result, error) {
	if !cfg.Enabled {
		return nil, ErrIntegrationDisabled
	}
	ctx = obscontext.WithPlatform(obscontext.WithUserID(ctx, cfg.UserID), cfg.PlatformID)
	log := obslogger.WithPlatform(s.logger(ctx), cfg.PlatformID, "sync")

	adapter, err := s.registry.NewAdapter(cfg.PlatformID, AdapterConfig(cfg))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, syncErr := adapter.SyncTransactions(ctx)
	latency := time.Since(start)

	health := cfg.Status.Observe(s.clock.Now().UTC(), latency, syncErr != nil)
	if err := s.configs.RecordHealth(context.WithoutCancel(ctx), cfg.UserID, cfg.PlatformID, health); err != nil {
		log.Warn("record sync health failed", zap.Error(err))
	}

	if syncErr != nil {
		log.Warn("sync failed",
			zap.Int64("latency_ms", latency.Milliseconds()),
			zap.Error(syncErr),
		)
		return nil, syncErr
	}
	log.Info("sync finished",
		zap.Int("fetched", res.Fetched),
		zap.Int("persisted", res.Persisted),
		zap.Int64("latency_ms", latency.Milliseconds()),
	)
	return &Result{
		UserID:     cfg.UserID,
		PlatformID: cfg.PlatformID,
		Fetched:    res.Fetched,
		Persisted:  res.Persisted,
		LatencyMs:  latency.Milliseconds(),
		Status:     health,
	}, nil
}

// RegisterWebhook registers a push endpoint with the vendor and stores the
// URL on the integration. An empty target falls back to the stored webhook
// URL and then to the public ingestion endpoint.
func (s *Service) RegisterWebhook(ctx context.Context, userID, platformID, target string) (string, error) {
	cfg, err := s.configs.GetConfig(ctx, userID, platformID)
	if err != nil {
		return "", err
	}

	target = strings.TrimSpace(target)
	if target == "" {
		target = cfg.Credentials.WebhookURL
	}
	if target == "" {
		target = s.WebhookURL(cfg.PlatformID, cfg.UserID)
	}
	if target == "" {
		return "", ErrWebhookURLRequired
	}
	if parsed, err := url.Parse(target); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrWebhookURLRequired, target)
	}

	adapter, err := s.registry.NewAdapter(cfg.PlatformID, AdapterConfig(*cfg))
	if err != nil {
		return "", err
	}
	if err := adapter.CreateWebhook(ctx, target); err != nil {
		return "", err
	}

	if target != cfg.Credentials.WebhookURL {
		if _, err := s.configs.UpdateConfig(ctx, cfg.UserID, cfg.PlatformID, integrationdomain.ConfigPatch{WebhookURL: &target}); err != nil {
			return "", err
		}
	}
	s.logger(ctx).Info("webhook registered",
		zap.String("platform", cfg.PlatformID),
		zap.String("url", target),
	)
	return target, nil
}

// WebhookURL is the public ingestion endpoint for one integration, or empty
// when no public base URL is configured.
func (s *Service) WebhookURL(platformID, userID string) string {
	if s.publicBaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/webhooks/%s/%s", s.publicBaseURL, url.PathEscape(platformID), url.PathEscape(userID))
}

func (s *Service) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

// AdapterConfig binds the stored credentials of an integration to an adapter.
func AdapterConfig(cfg integrationdomain.PlatformConfig) domain.AdapterConfig {
	return domain.AdapterConfig{
		UserID:       cfg.UserID,
		APIKey:       cfg.Credentials.APIKey,
		SecretKey:    cfg.Credentials.SecretKey,
		ClientID:     cfg.Credentials.ClientID,
		ClientSecret: cfg.Credentials.ClientSecret,
		Sandbox:      cfg.Sandbox,
	}
}
