package events

import (
	"context"
	"time"
)

const (
	TypeTransactionUpserted      = "transaction.upserted"
	TypeTransactionDeleted       = "transaction.deleted"
	TypeTransactionStatusChanged = "transaction.status_changed"
)

// Event is a change notification about a stored transaction.
type Event struct {
	Type          string    `json:"type"`
	PlatformID    string    `json:"platform_id"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
	Payload       any       `json:"payload,omitempty"`
}

// Key partitions events so changes to one transaction stay ordered.
func (e Event) Key() string {
	return e.PlatformID + ":" + e.TransactionID
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
