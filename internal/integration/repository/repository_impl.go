package repository

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/paybridge/internal/integration/domain"
	"gorm.io/gorm"
)

const selectColumns = `id, user_id, platform_id, enabled, sandbox, credentials, settings, status, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, userID, platformID string) (*domain.Record, error) {
	var item domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+`
		 FROM payment_platforms
		 WHERE user_id = ? AND platform_id = ?
		 LIMIT 1`,
		userID,
		platformID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Record, error) {
	var items []domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+`
		 FROM payment_platforms
		 WHERE user_id = ?
		 ORDER BY platform_id`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListEnabled(ctx context.Context, db *gorm.DB) ([]domain.Record, error) {
	var items []domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+`
		 FROM payment_platforms
		 WHERE enabled = ?
		 ORDER BY user_id, platform_id`,
		true,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.Record) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_platforms (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args(record)...,
	).Error
}

// Save writes the whole row, keeping the original id and created_at when
// the integration already exists.
func (r *repo) Save(ctx context.Context, db *gorm.DB, record *domain.Record) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_platforms (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, platform_id)
		DO UPDATE SET enabled = excluded.enabled,
			sandbox = excluded.sandbox,
			credentials = excluded.credentials,
			settings = excluded.settings,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		args(record)...,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, userID, platformID string, patch domain.RecordPatch, updatedAt time.Time) (bool, error) {
	sets := make([]string, 0, 6)
	values := make([]any, 0, 8)
	if patch.Enabled != nil {
		sets = append(sets, "enabled = ?")
		values = append(values, *patch.Enabled)
	}
	if patch.Sandbox != nil {
		sets = append(sets, "sandbox = ?")
		values = append(values, *patch.Sandbox)
	}
	if patch.Credentials != nil {
		sets = append(sets, "credentials = ?")
		values = append(values, patch.Credentials)
	}
	if patch.Settings != nil {
		sets = append(sets, "settings = ?")
		values = append(values, patch.Settings)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		values = append(values, patch.Status)
	}
	sets = append(sets, "updated_at = ?")
	values = append(values, updatedAt, userID, platformID)

	res := db.WithContext(ctx).Exec(
		`UPDATE payment_platforms
		 SET `+strings.Join(sets, ", ")+`
		 WHERE user_id = ? AND platform_id = ?`,
		values...,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func args(record *domain.Record) []any {
	return []any{
		record.ID,
		record.UserID,
		record.PlatformID,
		record.Enabled,
		record.Sandbox,
		record.Credentials,
		record.Settings,
		record.Status,
		record.CreatedAt,
		record.UpdatedAt,
	}
}
