package domain

import (
	"context"
	"encoding/json"
	"errors"

	txdomain "github.com/smallbiznis/paybridge/internal/transaction/domain"
)

var (
	ErrMissingCredentials = errors.New("missing_credentials")
	ErrPlatformNotFound   = errors.New("platform_not_found")
	ErrInvalidPayload     = errors.New("invalid_webhook_payload")
)

// AdapterConfig carries the credentials an adapter is bound to for its lifetime.
type AdapterConfig struct {
	UserID       string
	APIKey       string
	SecretKey    string
	ClientID     string
	ClientSecret string
	Sandbox      bool
}

// SyncResult reports what a sync pass persisted.
type SyncResult struct {
	Fetched   int `json:"fetched"`
	Persisted int `json:"persisted"`
}

// WebhookPayload is the common push envelope of every supported vendor.
type WebhookPayload struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WebhookRegistration is the body sent to register a push endpoint.
type WebhookRegistration struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Active bool     `json:"active"`
}

type Adapter interface {
	Platform() string
	FetchOrders(ctx context.Context) ([]*txdomain.Transaction, error)
	SyncTransactions(ctx context.Context) (SyncResult, error)
	CreateWebhook(ctx context.Context, url string) error
	// HandleWebhook returns nil for events the adapter does not process.
	HandleWebhook(ctx context.Context, payload []byte) error
}

type AdapterFactory interface {
	Platform() string
	NewAdapter(cfg AdapterConfig) (Adapter, error)
}

// TransactionWriter persists normalized transactions. UpsertBatch writes the
// whole batch or nothing.
type TransactionWriter interface {
	Upsert(ctx context.Context, tx *txdomain.Transaction) (*txdomain.Transaction, error)
	UpsertBatch(ctx context.Context, txs []*txdomain.Transaction) (int, error)
}
