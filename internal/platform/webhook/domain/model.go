package domain

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"
)

const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw body, keyed by the
// integration's webhook secret. A "sha256=" prefix is accepted.
const SignatureHeader = "X-Webhook-Signature"

var (
	ErrInvalidSignature = errors.New("invalid_webhook_signature")
	ErrRateLimited      = errors.New("webhook_rate_limited")
)

// Event is one received delivery. Payload holds the snappy-compressed body.
type Event struct {
	ID           int64      `json:"id,string"`
	PlatformID   string     `json:"platform_id"`
	UserID       string     `json:"user_id"`
	DeliveryHash string     `json:"delivery_hash"`
	EventType    string     `json:"event_type"`
	Payload      []byte     `json:"-"`
	PayloadSize  int        `json:"payload_size"`
	Outcome      string     `json:"outcome"`
	Error        string     `json:"error,omitempty"`
	ReceivedAt   time.Time  `json:"received_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

func (Event) TableName() string { return "webhook_events" }

// Result tells the caller what happened to a delivery.
type Result struct {
	EventID   int64  `json:"event_id,string,omitempty"`
	EventType string `json:"event"`
	Outcome   string `json:"outcome"`
}

type Repository interface {
	InsertEvent(ctx context.Context, db *gorm.DB, event *Event) (bool, error)
	FindEvent(ctx context.Context, db *gorm.DB, platformID, userID, deliveryHash string) (*Event, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id int64, outcome, errText string, processedAt time.Time) error
}

//go:generate mockgen -source=model.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	Ingest(ctx context.Context, platformID, userID string, payload []byte, headers http.Header) (*Result, error)
}
