package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("transaction_not_found")
	ErrInvalidTransaction = errors.New("invalid_transaction")
	ErrInvalidKey         = errors.New("invalid_transaction_key")
	ErrInvalidStatus      = errors.New("invalid_transaction_status")
	ErrInvalidDateRange   = errors.New("invalid_date_range")
	ErrAlreadyExists      = errors.New("transaction_already_exists")
	ErrEmptyPatch         = errors.New("empty_transaction_patch")
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tx *Transaction) error
	// Upsert reports false when a newer stored row was kept.
	Upsert(ctx context.Context, db *gorm.DB, tx *Transaction) (bool, error)
	Update(ctx context.Context, db *gorm.DB, key Key, patch Patch, updatedAt time.Time) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, key Key) (int64, error)
	FindByKey(ctx context.Context, db *gorm.DB, key Key) (*Transaction, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Transaction, error)
	Summarize(ctx context.Context, db *gorm.DB, userID string) ([]StatusTotal, error)
}

type Service interface {
	Create(ctx context.Context, tx *Transaction) (*Transaction, error)
	Update(ctx context.Context, key Key, patch Patch) (*Transaction, error)
	Delete(ctx context.Context, key Key) error
	GetByID(ctx context.Context, key Key) (*Transaction, error)
	GetByUserID(ctx context.Context, userID string) ([]Transaction, error)
	GetByPlatformID(ctx context.Context, platformID string) ([]Transaction, error)
	GetByStatus(ctx context.Context, status Status) ([]Transaction, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]Transaction, error)
	GetByOrderID(ctx context.Context, platformID, orderID string) ([]Transaction, error)
	List(ctx context.Context, filter ListFilter) ([]Transaction, error)
	UpdateStatus(ctx context.Context, key Key, status Status) (*Transaction, error)
	Upsert(ctx context.Context, tx *Transaction) (*Transaction, error)
	// UpsertBatch applies every upsert in one database transaction and
	// reports how many rows changed.
	UpsertBatch(ctx context.Context, txs []*Transaction) (int, error)
	Summarize(ctx context.Context, userID string) (*Summary, error)
}
