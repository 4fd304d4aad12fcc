package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paybridge/internal/clock"
	"github.com/smallbiznis/paybridge/internal/events"
	obslogger "github.com/smallbiznis/paybridge/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/paybridge/internal/observability/metrics"
	"github.com/smallbiznis/paybridge/internal/transaction/domain"
	"github.com/smallbiznis/paybridge/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Repo       domain.Repository
	Publisher  events.Publisher    `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	repo       domain.Repository
	publisher  events.Publisher
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	publisher := p.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("transaction.service"),
		clock:      clk,
		repo:       p.Repo,
		publisher:  publisher,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if err := s.prepare(tx); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, s.db, tx); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	stored, err := s.load(ctx, tx.Key())
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TypeTransactionUpserted, stored)
	return stored, nil
}

func (s *Service) Update(ctx context.Context, key domain.Key, patch domain.Patch) (*domain.Transaction, error) {
	key = key.Normalize()
	if !key.Valid() {
		return nil, domain.ErrInvalidKey
	}
	if patch.Empty() {
		return nil, domain.ErrEmptyPatch
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if patch.Currency != nil {
		currency := normalizeCurrency(*patch.Currency)
		patch.Currency = &currency
	}

	affected, err := s.repo.Update(ctx, s.db, key, patch, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotFound
	}
	stored, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	eventType := events.TypeTransactionUpserted
	if patch.Status != nil {
		eventType = events.TypeTransactionStatusChanged
	}
	s.publish(ctx, eventType, stored)
	return stored, nil
}

func (s *Service) Delete(ctx context.Context, key domain.Key) error {
	key = key.Normalize()
	if !key.Valid() {
		return domain.ErrInvalidKey
	}
	affected, err := s.repo.Delete(ctx, s.db, key)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	s.publish(ctx, events.TypeTransactionDeleted, &domain.Transaction{ID: key.ID, PlatformID: key.PlatformID})
	return nil
}

func (s *Service) GetByID(ctx context.Context, key domain.Key) (*domain.Transaction, error) {
	key = key.Normalize()
	if !key.Valid() {
		return nil, domain.ErrInvalidKey
	}
	return s.load(ctx, key)
}

func (s *Service) GetByUserID(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return s.repo.List(ctx, s.db, domain.ListFilter{UserID: strings.TrimSpace(userID)})
}

func (s *Service) GetByPlatformID(ctx context.Context, platformID string) ([]domain.Transaction, error) {
	return s.repo.List(ctx, s.db, domain.ListFilter{PlatformID: normalizePlatform(platformID)})
}

func (s *Service) GetByStatus(ctx context.Context, status domain.Status) ([]domain.Transaction, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	return s.repo.List(ctx, s.db, domain.ListFilter{Status: status})
}

func (s *Service) GetByDateRange(ctx context.Context, start, end time.Time) ([]domain.Transaction, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, domain.ErrInvalidDateRange
	}
	return s.repo.List(ctx, s.db, domain.ListFilter{From: &start, To: &end})
}

func (s *Service) GetByOrderID(ctx context.Context, platformID, orderID string) ([]domain.Transaction, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.ErrInvalidKey
	}
	return s.repo.List(ctx, s.db, domain.ListFilter{
		PlatformID: normalizePlatform(platformID),
		OrderID:    orderID,
	})
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Transaction, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.ErrInvalidDateRange
	}
	filter.UserID = strings.TrimSpace(filter.UserID)
	filter.PlatformID = normalizePlatform(filter.PlatformID)
	filter.OrderID = strings.TrimSpace(filter.OrderID)
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) UpdateStatus(ctx context.Context, key domain.Key, status domain.Status) (*domain.Transaction, error) {
	return s.Update(ctx, key, domain.Patch{Status: &status})
}

// Upsert creates tx or replaces the stored row with the same key. When both
// carry a vendor updated_at, a stored row with the newer one wins and is
// returned unchanged.
func (s *Service) Upsert(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if err := s.prepare(tx); err != nil {
		return nil, err
	}
	applied, err := s.repo.Upsert(ctx, s.db, tx)
	if err != nil {
		return nil, err
	}
	stored, err := s.load(ctx, tx.Key())
	if err != nil {
		return nil, err
	}
	if !applied {
		s.log.Debug("stale transaction update ignored",
			zap.String("platform", tx.PlatformID),
			zap.String("transaction_id", tx.ID),
			zap.Timep("incoming_source_updated_at", tx.SourceUpdatedAt),
			zap.Timep("stored_source_updated_at", stored.SourceUpdatedAt),
		)
		return stored, nil
	}
	s.obsMetrics.RecordTransactionUpserted(ctx, stored.PlatformID, string(stored.Status))
	s.publish(ctx, events.TypeTransactionUpserted, stored)
	return stored, nil
}

func (s *Service) UpsertBatch(ctx context.Context, txs []*domain.Transaction) (int, error) {
	for _, tx := range txs {
		if err := s.prepare(tx); err != nil {
			return 0, err
		}
	}

	applied := make([]*domain.Transaction, 0, len(txs))
	err := s.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		for _, tx := range txs {
			ok, err := s.repo.Upsert(ctx, dbtx, tx)
			if err != nil {
				return err
			}
			if ok {
				applied = append(applied, tx)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, tx := range applied {
		s.obsMetrics.RecordTransactionUpserted(ctx, tx.PlatformID, string(tx.Status))
		s.publish(ctx, events.TypeTransactionUpserted, tx)
	}
	return len(applied), nil
}

func (s *Service) Summarize(ctx context.Context, userID string) (*domain.Summary, error) {
	userID = strings.TrimSpace(userID)
	totals, err := s.repo.Summarize(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	summary := &domain.Summary{UserID: userID, Totals: make([]domain.StatusTotal, 0, 3)}
	byStatus := make(map[domain.Status]domain.StatusTotal, len(totals))
	for _, total := range totals {
		byStatus[total.Status] = total
	}
	for _, status := range []domain.Status{domain.StatusCompleted, domain.StatusPending, domain.StatusFailed} {
		total, ok := byStatus[status]
		if !ok {
			total = domain.StatusTotal{Status: status, Amount: decimal.Zero}
		}
		summary.Count += total.Count
		summary.Totals = append(summary.Totals, total)
	}
	return summary, nil
}

func (s *Service) prepare(tx *domain.Transaction) error {
	if tx == nil {
		return domain.ErrInvalidTransaction
	}
	key := tx.Key().Normalize()
	if !key.Valid() {
		return domain.ErrInvalidKey
	}
	tx.PlatformID = key.PlatformID
	tx.ID = key.ID
	tx.UserID = strings.TrimSpace(tx.UserID)
	if !tx.Status.Valid() {
		return domain.ErrInvalidStatus
	}
	tx.Currency = normalizeCurrency(tx.Currency)

	// Server time only fills the display column, never SourceUpdatedAt.
	if tx.SourceUpdatedAt != nil {
		source := tx.SourceUpdatedAt.UTC().Truncate(time.Microsecond)
		tx.SourceUpdatedAt = &source
		tx.UpdatedAt = source
	} else if tx.UpdatedAt.IsZero() {
		tx.UpdatedAt = s.clock.Now()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = tx.UpdatedAt
	}
	tx.CreatedAt = tx.CreatedAt.UTC().Truncate(time.Microsecond)
	tx.UpdatedAt = tx.UpdatedAt.UTC().Truncate(time.Microsecond)
	return nil
}

func (s *Service) load(ctx context.Context, key domain.Key) (*domain.Transaction, error) {
	item, err := s.repo.FindByKey(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) publish(ctx context.Context, eventType string, tx *domain.Transaction) {
	event := events.Event{
		Type:          eventType,
		PlatformID:    tx.PlatformID,
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Status:        string(tx.Status),
		OccurredAt:    s.clock.Now(),
	}
	if eventType != events.TypeTransactionDeleted {
		event.Payload = tx
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		obslogger.FromContext(ctx).Warn("publish transaction event failed",
			zap.String("event_type", eventType),
			zap.String("platform", tx.PlatformID),
			zap.String("transaction_id", tx.ID),
			zap.Error(err),
		)
	}
}

func normalizeCurrency(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return domain.DefaultCurrency
	}
	return value
}

func normalizePlatform(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
