package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, userID, platformID string) (*Record, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]Record, error)
	ListEnabled(ctx context.Context, db *gorm.DB) ([]Record, error)
	Insert(ctx context.Context, db *gorm.DB, record *Record) error
	Save(ctx context.Context, db *gorm.DB, record *Record) error
	Update(ctx context.Context, db *gorm.DB, userID, platformID string, patch RecordPatch, updatedAt time.Time) (bool, error)
}

//go:generate mockgen -source=service.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	GetAllConfigs(ctx context.Context, userID string) ([]PlatformConfig, error)
	GetConfig(ctx context.Context, userID, platformID string) (*PlatformConfig, error)
	UpdateConfig(ctx context.Context, userID, platformID string, patch ConfigPatch) (*PlatformConfig, error)
	SaveConfig(ctx context.Context, cfg PlatformConfig) (*PlatformConfig, error)
	RecordHealth(ctx context.Context, userID, platformID string, status HealthStatus) error
	ListEnabled(ctx context.Context) ([]PlatformConfig, error)
}

var (
	ErrInvalidPlatform      = errors.New("invalid_platform")
	ErrInvalidUser          = errors.New("invalid_user")
	ErrNotFound             = errors.New("integration_not_found")
	ErrEmptyPatch           = errors.New("empty_config_patch")
	ErrEncryptionKeyMissing = errors.New("encryption_key_missing")
	ErrCorruptCredentials   = errors.New("corrupt_credentials")
)
