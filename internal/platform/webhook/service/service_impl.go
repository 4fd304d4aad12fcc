package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/golang/snappy"
	"github.com/smallbiznis/paybridge/internal/clock"
	integrationdomain "github.com/smallbiznis/paybridge/internal/integration/domain"
	obscontext "github.com/smallbiznis/paybridge/internal/observability/context"
	obslogger "github.com/smallbiznis/paybridge/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/paybridge/internal/observability/metrics"
	"github.com/smallbiznis/paybridge/internal/platform/adapters"
	"github.com/smallbiznis/paybridge/internal/platform/catalog"
	platformdomain "github.com/smallbiznis/paybridge/internal/platform/domain"
	"github.com/smallbiznis/paybridge/internal/platform/syncer"
	"github.com/smallbiznis/paybridge/internal/platform/webhook/domain"
	"github.com/smallbiznis/paybridge/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	Configs    integrationdomain.Service
	Registry   *adapters.Registry
	Limiter    *ratelimit.Limiter  `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	configs    integrationdomain.Service
	registry   *adapters.Registry
	limiter    *ratelimit.Limiter
	obsMetrics *obsmetrics.Metrics
}

type eventMatcher interface {
	Handles(event string) bool
}

func NewService(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("platform.webhook"),
		genID:      p.GenID,
		clock:      clk,
		repo:       p.Repo,
		configs:    p.Configs,
		registry:   p.Registry,
		limiter:    p.Limiter,
		obsMetrics: p.ObsMetrics,
	}
}

// Ingest accepts one push delivery for a user's integration. Redelivered
// payloads that were already handled are acknowledged without reprocessing.
func (s *Service) Ingest(ctx context.Context, platformID, userID string, payload []byte, headers http.Header) (*domain.Result, error) {
	platform, ok := catalog.Find(platformID)
	if !ok {
		return nil, integrationdomain.ErrInvalidPlatform
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, integrationdomain.ErrInvalidUser
	}
	ctx = obscontext.WithPlatform(obscontext.WithUserID(ctx, userID), platform.ID)
	log := obslogger.WithPlatform(s.logger(ctx), platform.ID, "ingest_webhook")

	limit, err := s.limiter.AllowWebhook(ctx, platform.ID, userID)
	if err != nil {
		log.Warn("webhook rate limiter unavailable", zap.Error(err))
	} else if !limit.Allowed {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordRateLimitDenied(ctx, platform.ID, "webhook", "token_bucket")
		}
		return nil, domain.ErrRateLimited
	}

	var envelope platformdomain.WebhookPayload
	if !json.Valid(payload) || json.Unmarshal(payload, &envelope) != nil {
		s.record(ctx, platform.ID, domain.OutcomeRejected)
		return nil, platformdomain.ErrInvalidPayload
	}
	eventType := strings.TrimSpace(envelope.Event)

	cfg, err := s.configs.GetConfig(ctx, userID, platform.ID)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		s.record(ctx, platform.ID, domain.OutcomeRejected)
		return nil, syncer.ErrIntegrationDisabled
	}
	if secret := cfg.Credentials.WebhookSecret; secret != "" {
		if !verifySignature(secret, payload, headers.Get(domain.SignatureHeader)) {
			s.record(ctx, platform.ID, domain.OutcomeRejected)
			log.Warn("webhook signature mismatch", zap.String("event", eventType))
			return nil, domain.ErrInvalidSignature
		}
	}

	adapter, err := s.registry.NewAdapter(platform.ID, syncer.AdapterConfig(*cfg))
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	received := domain.Event{
		ID:           s.genID.Generate().Int64(),
		PlatformID:   platform.ID,
		UserID:       userID,
		DeliveryHash: deliveryHash(payload),
		EventType:    eventType,
		Payload:      snappy.Encode(nil, payload),
		PayloadSize:  len(payload),
		ReceivedAt:   now,
	}
	inserted, err := s.repo.InsertEvent(ctx, s.db, &received)
	if err != nil {
		return nil, err
	}
	stored := &received
	if !inserted {
		stored, err = s.repo.FindEvent(ctx, s.db, platform.ID, userID, received.DeliveryHash)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return nil, fmt.Errorf("webhook event %s vanished", received.DeliveryHash)
		}
		if stored.ProcessedAt != nil && stored.Outcome != domain.OutcomeFailed {
			s.record(ctx, platform.ID, domain.OutcomeDuplicate)
			log.Debug("webhook redelivery acknowledged", zap.String("event", eventType))
			return &domain.Result{EventID: stored.ID, EventType: eventType, Outcome: domain.OutcomeDuplicate}, nil
		}
	}

	outcome := domain.OutcomeProcessed
	if matcher, ok := adapter.(eventMatcher); ok && !matcher.Handles(eventType) {
		outcome = domain.OutcomeIgnored
	}
	handleErr := adapter.HandleWebhook(ctx, payload)
	errText := ""
	if handleErr != nil {
		outcome = domain.OutcomeFailed
		errText = handleErr.Error()
	}
	if err := s.repo.MarkProcessed(context.WithoutCancel(ctx), s.db, stored.ID, outcome, errText, s.clock.Now().UTC()); err != nil {
		log.Error("mark webhook processed failed", zap.Int64("event_id", stored.ID), zap.Error(err))
		if handleErr == nil {
			return nil, err
		}
	}
	s.record(ctx, platform.ID, outcome)

	if handleErr != nil {
		log.Error("webhook handling failed", zap.String("event", eventType), zap.Error(handleErr))
		return nil, handleErr
	}
	log.Info("webhook ingested",
		zap.String("event", eventType),
		zap.String("outcome", outcome),
		zap.Int64("event_id", stored.ID),
	)
	return &domain.Result{EventID: stored.ID, EventType: eventType, Outcome: outcome}, nil
}

// Payload returns the original body of a stored delivery.
func Payload(event *domain.Event) ([]byte, error) {
	if event == nil {
		return nil, errors.New("webhook event is nil")
	}
	return snappy.Decode(nil, event.Payload)
}

func (s *Service) record(ctx context.Context, platformID, outcome string) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordWebhookEvent(ctx, platformID, outcome)
}

func (s *Service) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}
