// Package adapter implements the platform adapter shared by every vendor. A
// vendor is described by data (endpoints, auth, status vocabulary and
// normalizer) and composed with a vendor HTTP client and a transaction writer.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	obslogger "github.com/smallbiznis/paybridge/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/paybridge/internal/observability/metrics"
	"github.com/smallbiznis/paybridge/internal/platform/domain"
	"github.com/smallbiznis/paybridge/internal/platform/normalize"
	"github.com/smallbiznis/paybridge/internal/platform/status"
	"github.com/smallbiznis/paybridge/internal/platform/vendorhttp"
	txdomain "github.com/smallbiznis/paybridge/internal/transaction/domain"
	"go.uber.org/zap"
)

var DefaultEventPrefixes = []string{"order.", "transaction."}

// Vendor is the static description of one payment platform API.
type Vendor struct {
	Platform        string
	BaseURL         string
	SandboxURL      string
	Auth            vendorhttp.AuthScheme
	APIKeyHeader    string
	SecretKeyHeader string

	OrdersPath    string
	ListKey       string
	WebhookPath   string
	WebhookEvents []string
	EventPrefixes []string

	Status    status.Mapper
	Normalize normalize.Normalizer
}

// Deps are shared by every adapter built for any vendor.
type Deps struct {
	Writer     domain.TransactionWriter
	Log        *zap.Logger
	Metrics    *obsmetrics.Metrics
	Limiters   *vendorhttp.LimiterPool
	HTTPClient *http.Client
	Timeout    time.Duration
}

type Factory struct {
	vendor Vendor
	deps   Deps
}

func NewFactory(v Vendor, deps Deps) *Factory {
	return &Factory{vendor: v, deps: deps}
}

func (f *Factory) Platform() string { return f.vendor.Platform }

func (f *Factory) Vendor() Vendor { return f.vendor }

func (f *Factory) NewAdapter(cfg domain.AdapterConfig) (domain.Adapter, error) {
	return New(f.vendor, f.deps, cfg)
}

// Adapter holds no mutable state besides its bound credentials and is safe
// for concurrent use.
type Adapter struct {
	vendor  Vendor
	userID  string
	client  *vendorhttp.Client
	writer  domain.TransactionWriter
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

func New(v Vendor, deps Deps, cfg domain.AdapterConfig) (*Adapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("%s: %w", v.Platform, domain.ErrMissingCredentials)
	}
	if v.Normalize == nil {
		return nil, fmt.Errorf("%s: vendor has no normalizer", v.Platform)
	}
	if len(v.EventPrefixes) == 0 {
		v.EventPrefixes = DefaultEventPrefixes
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	client := vendorhttp.New(vendorhttp.Options{
		Platform:   v.Platform,
		BaseURL:    v.BaseURL,
		SandboxURL: v.SandboxURL,
		Sandbox:    cfg.Sandbox,
		Auth: vendorhttp.Auth{
			Scheme:          v.Auth,
			APIKey:          strings.TrimSpace(cfg.APIKey),
			SecretKey:       strings.TrimSpace(cfg.SecretKey),
			APIKeyHeader:    v.APIKeyHeader,
			SecretKeyHeader: v.SecretKeyHeader,
		},
		Timeout:    deps.Timeout,
		Limiter:    deps.Limiters.Get(v.Platform + ":" + strings.TrimSpace(cfg.APIKey)),
		HTTPClient: deps.HTTPClient,
		Metrics:    deps.Metrics,
	})

	return &Adapter{
		vendor:  v,
		userID:  strings.TrimSpace(cfg.UserID),
		client:  client,
		writer:  deps.Writer,
		log:     log.Named("platform." + v.Platform),
		metrics: deps.Metrics,
	}, nil
}

func (a *Adapter) Platform() string { return a.vendor.Platform }

// BaseURL is the vendor environment selected at construction.
func (a *Adapter) BaseURL() string { return a.client.BaseURL() }

// FetchOrders lists the vendor's orders and normalizes all of them. One bad
// element fails the whole call.
func (a *Adapter) FetchOrders(ctx context.Context) ([]*txdomain.Transaction, error) {
	log := a.logger(ctx, "fetch_orders")

	var raw json.RawMessage
	if err := a.client.GetJSON(ctx, a.vendor.OrdersPath, &raw); err != nil {
		log.Error("fetch orders failed", zap.Error(err))
		return nil, err
	}
	items, err := a.listItems(raw)
	if err != nil {
		log.Error("decode order list failed", zap.Error(err))
		return nil, err
	}

	txs, err := normalize.All(a.vendor.Normalize, items)
	if err != nil {
		a.recordNormalizationFailure(ctx, err)
		log.Error("normalize orders failed", zap.Int("count", len(items)), zap.Error(err))
		return nil, err
	}
	for _, tx := range txs {
		tx.UserID = a.userID
	}
	log.Debug("orders fetched", zap.Int("count", len(txs)))
	return txs, nil
}

// SyncTransactions fetches and persists the vendor's orders in one batch.
func (a *Adapter) SyncTransactions(ctx context.Context) (domain.SyncResult, error) {
	txs, err := a.FetchOrders(ctx)
	if err != nil {
		return domain.SyncResult{}, err
	}
	result := domain.SyncResult{Fetched: len(txs)}
	if len(txs) == 0 {
		return result, nil
	}

	persisted, err := a.writer.UpsertBatch(ctx, txs)
	if err != nil {
		a.logger(ctx, "sync_transactions").Error("persist transactions failed",
			zap.Int("count", len(txs)),
			zap.Error(err),
		)
		return result, err
	}
	result.Persisted = persisted
	return result, nil
}

func (a *Adapter) CreateWebhook(ctx context.Context, url string) error {
	log := a.logger(ctx, "create_webhook")
	url = strings.TrimSpace(url)
	if url == "" {
		err := errors.New("webhook url is required")
		log.Error("create webhook failed", zap.Error(err))
		return err
	}

	body := domain.WebhookRegistration{
		URL:    url,
		Events: a.vendor.WebhookEvents,
		Active: true,
	}
	if err := a.client.PostJSON(ctx, a.vendor.WebhookPath, body, nil); err != nil {
		log.Error("create webhook failed", zap.String("url", url), zap.Error(err))
		return err
	}
	log.Info("webhook registered", zap.String("url", url), zap.Strings("events", a.vendor.WebhookEvents))
	return nil
}

// HandleWebhook persists order and transaction lifecycle events. Other
// events are accepted without side effects.
func (a *Adapter) HandleWebhook(ctx context.Context, payload []byte) error {
	log := a.logger(ctx, "handle_webhook")

	var envelope domain.WebhookPayload
	if err := json.Unmarshal(payload, &envelope); err != nil {
		log.Warn("invalid webhook payload", zap.Error(err))
		return fmt.Errorf("%s: %w", a.vendor.Platform, domain.ErrInvalidPayload)
	}
	if !a.Handles(envelope.Event) {
		log.Debug("webhook event ignored", zap.String("event", envelope.Event))
		return nil
	}

	tx, err := a.vendor.Normalize(envelope.Data)
	if err != nil {
		a.recordNormalizationFailure(ctx, err)
		log.Error("normalize webhook failed", zap.String("event", envelope.Event), zap.Error(err))
		return err
	}
	tx.UserID = a.userID

	stored, err := a.writer.Upsert(ctx, tx)
	if err != nil {
		log.Error("persist webhook transaction failed",
			zap.String("event", envelope.Event),
			zap.String("transaction_id", tx.ID),
			zap.Error(err),
		)
		return err
	}
	log.Debug("webhook transaction stored",
		zap.String("event", envelope.Event),
		zap.String("transaction_id", stored.ID),
		zap.String("status", string(stored.Status)),
	)
	return nil
}

// Handles reports whether an event name is one the adapter persists.
func (a *Adapter) Handles(event string) bool {
	event = strings.ToLower(strings.TrimSpace(event))
	if event == "" {
		return false
	}
	for _, prefix := range a.vendor.EventPrefixes {
		if strings.HasPrefix(event, prefix) {
			return true
		}
	}
	return false
}

func (a *Adapter) listItems(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, normalize.Fail(a.vendor.Platform, "payload", err.Error())
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, normalize.Fail(a.vendor.Platform, "payload", err.Error())
	}
	list, ok := envelope[a.vendor.ListKey]
	if !ok {
		return nil, normalize.Fail(a.vendor.Platform, a.vendor.ListKey, "missing order list")
	}
	if string(bytes.TrimSpace(list)) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, normalize.Fail(a.vendor.Platform, a.vendor.ListKey, "not an array")
	}
	return items, nil
}

func (a *Adapter) logger(ctx context.Context, operation string) *zap.Logger {
	return obslogger.WithPlatform(obslogger.WithContext(ctx, a.log), a.vendor.Platform, operation)
}

func (a *Adapter) recordNormalizationFailure(ctx context.Context, err error) {
	var nerr *domain.NormalizationError
	if errors.As(err, &nerr) {
		a.metrics.RecordNormalizationFailure(ctx, a.vendor.Platform, nerr.Field)
	}
}
