package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paybridge/internal/clock"
	"github.com/smallbiznis/paybridge/internal/events"
	"github.com/smallbiznis/paybridge/internal/testutil"
	"github.com/smallbiznis/paybridge/internal/transaction/domain"
	"github.com/smallbiznis/paybridge/internal/transaction/repository"
	"github.com/smallbiznis/paybridge/internal/transaction/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (domain.Service, *gorm.DB, *events.Recorder, *clock.FakeClock) {
	t.Helper()
	db := testutil.OpenSQLite(t)
	rec := &events.Recorder{}
	clk := clock.NewFakeClock(baseTime)
	svc := service.NewService(service.Params{
		DB:        db,
		Log:       zap.NewNop(),
		Clock:     clk,
		Repo:      repository.Provide(),
		Publisher: rec,
	})
	return svc, db, rec, clk
}

// sampleTx carries a vendor timestamp unless updatedAt is zero.
func sampleTx(id string, status domain.Status, updatedAt time.Time) *domain.Transaction {
	var source *time.Time
	if !updatedAt.IsZero() {
		source = &updatedAt
	}
	return &domain.Transaction{
		ID:         id,
		PlatformID: "doppus",
		UserID:     "user_1",
		OrderID:    "ORD-" + id,
		Amount:     decimal.RequireFromString("197.90"),
		Status:     status,
		Customer: domain.Customer{
			Name:  "Maria Silva",
			Email: "maria@example.com",
		},
		Product: domain.Product{
			ID:       "prod_1",
			Name:     "Curso",
			Price:    decimal.NewNullDecimal(decimal.RequireFromString("197.90")),
			Quantity: 1,
		},
		PaymentMethod: "pix",
		CreatedAt:     baseTime.Add(-time.Hour),

		SourceUpdatedAt: source,
		Metadata: datatypes.JSONMap{
			"affiliate": map[string]any{"code": "AFF1", "commission": 10.5},
		},
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, db, rec, _ := newService(t)

	first, err := svc.Upsert(ctx, sampleTx("tx_1", domain.StatusPending, baseTime))
	require.NoError(t, err)
	second, err := svc.Upsert(ctx, sampleTx("tx_1", domain.StatusPending, baseTime))
	require.NoError(t, err)

	assert.Equal(t, int64(1), testutil.CountRows(t, db, "transactions"))
	assert.Equal(t, first.Status, second.Status)
	assert.True(t, first.Amount.Equal(second.Amount))
	assert.Equal(t, "BRL", second.Currency)
	assert.Equal(t, "Maria Silva", second.Customer.Name)
	assert.Equal(t, first.Metadata, second.Metadata)
	assert.Len(t, rec.Events(), 2)
}

func TestUpsertEvolvesStatus(t *testing.T) {
	ctx := context.Background()
	svc, db, _, _ := newService(t)

	_, err := svc.Upsert(ctx, sampleTx("tx_1", domain.StatusPending, baseTime))
	require.NoError(t, err)
	stored, err := svc.Upsert(ctx, sampleTx("tx_1", domain.StatusCompleted, baseTime.Add(time.Minute)))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.Equal(t, int64(1), testutil.CountRows(t, db, "transactions"))

	byOrder, err := svc.GetByOrderID(ctx, "doppus", "ORD-tx_1")
	require.NoError(t, err)
	require.Len(t, byOrder, 1)
	assert.Equal(t, domain.StatusCompleted, byOrder[0].Status)
}

func TestUpsertIgnoresStaleUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _, rec, _ := newService(t)

	_, err := svc.Upsert(ctx, sampleTx("tx_1", domain.StatusCompleted, baseTime.Add(time.Minute)))
	require.NoError(t, err)
	stored, err := svc.Upsert(ctx, sampleTx("tx_1", domain.StatusPending, baseTime))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.Len(t, rec.Events(), 1)
}

func TestUpsertWithoutVendorTimestampDoesNotBlockLaterUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService(t)

	open := sampleTx("tx_1", domain.StatusPending, time.Time{})
	first, err := svc.Upsert(ctx, open)
	require.NoError(t, err)
	assert.Nil(t, first.SourceUpdatedAt)
	assert.True(t, first.UpdatedAt.Equal(baseTime))

	// vendor clock is behind the server clock
	paidAt := baseTime.Add(-2 * time.Hour)
	stored, err := svc.Upsert(ctx, sampleTx("tx_1", domain.StatusCompleted, paidAt))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	require.NotNil(t, stored.SourceUpdatedAt)
	assert.True(t, stored.SourceUpdatedAt.Equal(paidAt))
}

func TestUpsertKeepsVendorTimestampWhenRedeliveryHasNone(t *testing.T) {
	ctx := context.Background()
	svc, _, rec, _ := newService(t)

	_, err := svc.Upsert(ctx, sampleTx("tx_1", domain.StatusCompleted, baseTime))
	require.NoError(t, err)

	redelivery := sampleTx("tx_1", domain.StatusCompleted, time.Time{})
	redelivery.PaymentMethod = "credit_card"
	stored, err := svc.Upsert(ctx, redelivery)
	require.NoError(t, err)
	assert.Equal(t, "credit_card", stored.PaymentMethod)
	require.NotNil(t, stored.SourceUpdatedAt)
	assert.True(t, stored.SourceUpdatedAt.Equal(baseTime))

	stale, err := svc.Upsert(ctx, sampleTx("tx_1", domain.StatusPending, baseTime.Add(-time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stale.Status)
	assert.Len(t, rec.Events(), 2)
}

func TestUpsertSameIDOnDifferentPlatforms(t *testing.T) {
	ctx := context.Background()
	svc, db, _, _ := newService(t)

	a := sampleTx("tx_1", domain.StatusCompleted, baseTime)
	b := sampleTx("tx_1", domain.StatusCompleted, baseTime)
	b.PlatformID = "pagtrust"

	_, err := svc.Upsert(ctx, a)
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, b)
	require.NoError(t, err)

	assert.Equal(t, int64(2), testutil.CountRows(t, db, "transactions"))
}

func TestCreateRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService(t)

	_, err := svc.Create(ctx, sampleTx("tx_1", domain.StatusPending, baseTime))
	require.NoError(t, err)
	_, err = svc.Create(ctx, sampleTx("tx_1", domain.StatusPending, baseTime))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCreateValidates(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService(t)

	_, err := svc.Create(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransaction)

	tx := sampleTx("", domain.StatusPending, baseTime)
	_, err = svc.Create(ctx, tx)
	assert.ErrorIs(t, err, domain.ErrInvalidKey)

	tx = sampleTx("tx_2", domain.Status("approved"), baseTime)
	_, err = svc.Create(ctx, tx)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestUpdatePatchesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	svc, _, _, clk := newService(t)

	_, err := svc.Create(ctx, sampleTx("tx_1", domain.StatusPending, baseTime))
	require.NoError(t, err)

	clk.Advance(time.Hour)
	method := "credit_card"
	updated, err := svc.Update(ctx, domain.Key{PlatformID: "doppus", ID: "tx_1"}, domain.Patch{PaymentMethod: &method})
	require.NoError(t, err)

	assert.Equal(t, "credit_card", updated.PaymentMethod)
	assert.Equal(t, domain.StatusPending, updated.Status)
	assert.Equal(t, "maria@example.com", updated.Customer.Email)
	assert.True(t, updated.UpdatedAt.Equal(baseTime.Add(time.Hour)))
}

func TestUpdateStatusAndNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _, rec, _ := newService(t)

	_, err := svc.Create(ctx, sampleTx("tx_1", domain.StatusPending, baseTime))
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, domain.Key{PlatformID: "DOPPUS", ID: "tx_1"}, domain.StatusFailed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, updated.Status)
	evs := rec.Events()
	assert.Equal(t, events.TypeTransactionStatusChanged, evs[len(evs)-1].Type)

	_, err = svc.UpdateStatus(ctx, domain.Key{PlatformID: "doppus", ID: "missing"}, domain.StatusFailed)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Update(ctx, domain.Key{PlatformID: "doppus", ID: "tx_1"}, domain.Patch{})
	assert.ErrorIs(t, err, domain.ErrEmptyPatch)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, db, _, _ := newService(t)

	_, err := svc.Create(ctx, sampleTx("tx_1", domain.StatusPending, baseTime))
	require.NoError(t, err)

	key := domain.Key{PlatformID: "doppus", ID: "tx_1"}
	require.NoError(t, svc.Delete(ctx, key))
	assert.Equal(t, int64(0), testutil.CountRows(t, db, "transactions"))
	assert.ErrorIs(t, svc.Delete(ctx, key), domain.ErrNotFound)

	_, err = svc.GetByID(ctx, key)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService(t)

	a := sampleTx("tx_a", domain.StatusCompleted, baseTime)
	b := sampleTx("tx_b", domain.StatusPending, baseTime)
	b.CreatedAt = baseTime.Add(-72 * time.Hour)
	c := sampleTx("tx_c", domain.StatusCompleted, baseTime)
	c.PlatformID = "hotmart"
	c.UserID = "user_2"
	for _, tx := range []*domain.Transaction{a, b, c} {
		_, err := svc.Create(ctx, tx)
		require.NoError(t, err)
	}

	byUser, err := svc.GetByUserID(ctx, "user_1")
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byPlatform, err := svc.GetByPlatformID(ctx, "hotmart")
	require.NoError(t, err)
	require.Len(t, byPlatform, 1)
	assert.Equal(t, "tx_c", byPlatform[0].ID)

	byStatus, err := svc.GetByStatus(ctx, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	_, err = svc.GetByStatus(ctx, domain.Status("paid"))
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	byRange, err := svc.GetByDateRange(ctx, baseTime.Add(-2*time.Hour), baseTime)
	require.NoError(t, err)
	assert.Len(t, byRange, 2)

	_, err = svc.GetByDateRange(ctx, baseTime, baseTime.Add(-time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService(t)

	a := sampleTx("tx_a", domain.StatusCompleted, baseTime)
	b := sampleTx("tx_b", domain.StatusCompleted, baseTime)
	b.Amount = decimal.RequireFromString("2.10")
	for _, tx := range []*domain.Transaction{a, b} {
		_, err := svc.Create(ctx, tx)
		require.NoError(t, err)
	}

	summary, err := svc.Summarize(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Count)
	require.Len(t, summary.Totals, 3)
	assert.Equal(t, domain.StatusCompleted, summary.Totals[0].Status)
	assert.True(t, summary.Totals[0].Amount.Equal(decimal.RequireFromString("200")), summary.Totals[0].Amount.String())
	assert.Equal(t, int64(0), summary.Totals[1].Count)
}

func TestUpsertBatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	svc, db, rec, _ := newService(t)

	bad := sampleTx("tx_3", domain.Status("approved"), baseTime)
	_, err := svc.UpsertBatch(ctx, []*domain.Transaction{
		sampleTx("tx_1", domain.StatusCompleted, baseTime),
		sampleTx("tx_2", domain.StatusCompleted, baseTime),
		bad,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	assert.Equal(t, int64(0), testutil.CountRows(t, db, "transactions"))

	n, err := svc.UpsertBatch(ctx, []*domain.Transaction{
		sampleTx("tx_1", domain.StatusCompleted, baseTime),
		sampleTx("tx_2", domain.StatusCompleted, baseTime),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, rec.Events(), 2)

	n, err = svc.UpsertBatch(ctx, []*domain.Transaction{
		sampleTx("tx_1", domain.StatusPending, baseTime.Add(-time.Minute)),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
