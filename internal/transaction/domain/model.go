package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DefaultCurrency applies when a vendor payload carries no currency.
const DefaultCurrency = "BRL"

// Status is the canonical tri-state of a transaction.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is one of the canonical values.
func (s Status) Valid() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusFailed:
		return true
	default:
		return false
	}
}

// ParseStatus accepts canonical status strings only.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

type Customer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Document string `json:"document,omitempty"`
}

// Product is the first line item of an order.
type Product struct {
	ID       string              `json:"id,omitempty"`
	Name     string              `json:"name,omitempty"`
	Price    decimal.NullDecimal `json:"price"`
	Quantity int                 `json:"quantity,omitempty"`
}

// Transaction is the vendor-independent representation of a payment.
type Transaction struct {
	ID            string            `json:"id" gorm:"primaryKey;type:text"`
	PlatformID    string            `json:"platform_id" gorm:"primaryKey;type:text"`
	UserID        string            `json:"user_id" gorm:"type:text;index"`
	OrderID       string            `json:"order_id" gorm:"type:text"`
	Amount        decimal.Decimal   `json:"amount" gorm:"type:numeric"`
	Currency      string            `json:"currency" gorm:"type:text"`
	Status        Status            `json:"status" gorm:"type:text"`
	Customer      Customer          `json:"customer" gorm:"embedded;embeddedPrefix:customer_"`
	Product       Product           `json:"product" gorm:"embedded;embeddedPrefix:product_"`
	PaymentMethod string            `json:"payment_method,omitempty" gorm:"type:text"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty"`

	// SourceUpdatedAt is the vendor's own updated_at. It is nil when the
	// vendor sent none and orders redeliveries only when both sides have one.
	SourceUpdatedAt *time.Time `json:"source_updated_at,omitempty"`
}

func (Transaction) TableName() string { return "transactions" }

// Key identifies a transaction inside its platform namespace.
func (t *Transaction) Key() Key {
	return Key{PlatformID: t.PlatformID, ID: t.ID}
}

type Key struct {
	PlatformID string
	ID         string
}

func (k Key) Normalize() Key {
	return Key{
		PlatformID: strings.ToLower(strings.TrimSpace(k.PlatformID)),
		ID:         strings.TrimSpace(k.ID),
	}
}

func (k Key) Valid() bool {
	k = k.Normalize()
	return k.PlatformID != "" && k.ID != ""
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	OrderID       *string
	Amount        *decimal.Decimal
	Currency      *string
	Status        *Status
	Customer      *Customer
	Product       *Product
	PaymentMethod *string
	Metadata      datatypes.JSONMap
}

func (p Patch) Empty() bool {
	return p.OrderID == nil && p.Amount == nil && p.Currency == nil && p.Status == nil &&
		p.Customer == nil && p.Product == nil && p.PaymentMethod == nil && p.Metadata == nil
}

// ListFilter selects transactions. Zero fields do not filter.
type ListFilter struct {
	UserID     string
	PlatformID string
	Status     Status
	OrderID    string
	From       *time.Time
	To         *time.Time
	Limit      int
}

// StatusTotal aggregates transactions sharing a status.
type StatusTotal struct {
	Status Status          `json:"status"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary is a read-only dashboard aggregate for one user.
type Summary struct {
	UserID string        `json:"user_id"`
	Count  int64         `json:"count"`
	Totals []StatusTotal `json:"totals"`
}
