package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/paybridge/internal/platform/webhook/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindEvent(ctx context.Context, db *gorm.DB, platformID, userID, deliveryHash string) (*domain.Event, error) {
	var item domain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT id, platform_id, user_id, delivery_hash, event_type, payload,
			payload_size, outcome, error, received_at, processed_at
		 FROM webhook_events
		 WHERE platform_id = ? AND user_id = ? AND delivery_hash = ?
		 LIMIT 1`,
		platformID,
		userID,
		deliveryHash,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.Event) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO webhook_events (
			id, platform_id, user_id, delivery_hash, event_type, payload,
			payload_size, outcome, error, received_at, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (platform_id, user_id, delivery_hash) DO NOTHING`,
		event.ID,
		event.PlatformID,
		event.UserID,
		event.DeliveryHash,
		event.EventType,
		event.Payload,
		event.PayloadSize,
		event.Outcome,
		event.Error,
		event.ReceivedAt,
		event.ProcessedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) MarkProcessed(ctx context.Context, db *gorm.DB, id int64, outcome, errText string, processedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events
		 SET outcome = ?, error = ?, processed_at = ?
		 WHERE id = ?`,
		outcome,
		errText,
		processedAt,
		id,
	).Error
}
