package service_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paybridge/internal/clock"
	"github.com/smallbiznis/paybridge/internal/config"
	integrationdomain "github.com/smallbiznis/paybridge/internal/integration/domain"
	integrationrepo "github.com/smallbiznis/paybridge/internal/integration/repository"
	integrationservice "github.com/smallbiznis/paybridge/internal/integration/service"
	"github.com/smallbiznis/paybridge/internal/platform/adapter"
	"github.com/smallbiznis/paybridge/internal/platform/adapters"
	platformdomain "github.com/smallbiznis/paybridge/internal/platform/domain"
	"github.com/smallbiznis/paybridge/internal/platform/syncer"
	"github.com/smallbiznis/paybridge/internal/platform/vendors"
	"github.com/smallbiznis/paybridge/internal/platform/webhook/domain"
	"github.com/smallbiznis/paybridge/internal/platform/webhook/repository"
	"github.com/smallbiznis/paybridge/internal/platform/webhook/service"
	"github.com/smallbiznis/paybridge/internal/testutil"
	txdomain "github.com/smallbiznis/paybridge/internal/transaction/domain"
	txrepository "github.com/smallbiznis/paybridge/internal/transaction/repository"
	txservice "github.com/smallbiznis/paybridge/internal/transaction/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	svc     domain.Service
	configs integrationdomain.Service
	store   txdomain.Service
	db      *gorm.DB
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenSQLite(t)
	log := zaptest.NewLogger(t)
	node, err := snowflake.NewNode(7)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC))

	store := txservice.NewService(txservice.Params{DB: db, Log: log, Clock: clk, Repo: txrepository.Provide()})
	configs, err := integrationservice.New(integrationservice.Params{
		DB:       db,
		Log:      log,
		Cfg:      config.Config{PlatformConfigSecret: "webhook-test"},
		GenID:    node,
		Clock:    clk,
		Repo:     integrationrepo.Provide(),
		Defaults: config.NewStaticPlatformDefaults(config.DefaultPlatformDefaults()),
	})
	require.NoError(t, err)

	deps := adapter.Deps{Writer: store, Log: log}
	registry := adapters.NewRegistry(vendors.All(deps)...)

	svc := service.NewService(service.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Repo:     repository.Provide(),
		Configs:  configs,
		Registry: registry,
	})
	return fixture{svc: svc, configs: configs, store: store, db: db}
}

func (f fixture) enable(t *testing.T, platform, webhookSecret string) {
	t.Helper()
	_, err := f.configs.SaveConfig(context.Background(), integrationdomain.PlatformConfig{
		UserID:     "user_1",
		PlatformID: platform,
		Credentials: integrationdomain.Credentials{
			APIKey:        "key",
			SecretKey:     "secret",
			WebhookSecret: webhookSecret,
		},
		Enabled: true,
	})
	require.NoError(t, err)
}

func doppusEvent(event, id, status string) []byte {
	return []byte(fmt.Sprintf(`{"event":%q,"data":{"id":%q,"status":%q,"total":150.5,"currency":"BRL",
		"customer":{"name":"Gal Costa","email":"gal@example.com"},
		"created_at":"2026-06-30T08:00:00Z"}}`, event, id, status))
}

func TestIngestStoresTransactionAndDelivery(t *testing.T) {
	f := newFixture(t)
	f.enable(t, "doppus", "")
	ctx := context.Background()
	payload := doppusEvent("order.paid", "dp_9", "approved")

	res, err := f.svc.Ingest(ctx, "doppus", "user_1", payload, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeProcessed, res.Outcome)
	assert.Equal(t, "order.paid", res.EventType)

	tx, err := f.store.GetByID(ctx, txdomain.Key{PlatformID: "doppus", ID: "dp_9"})
	require.NoError(t, err)
	assert.Equal(t, txdomain.StatusCompleted, tx.Status)
	assert.Equal(t, "user_1", tx.UserID)

	var stored domain.Event
	require.NoError(t, f.db.Raw(`SELECT * FROM webhook_events WHERE id = ?`, res.EventID).Scan(&stored).Error)
	assert.Equal(t, domain.OutcomeProcessed, stored.Outcome)
	assert.Equal(t, len(payload), stored.PayloadSize)
	require.NotNil(t, stored.ProcessedAt)
	body, err := service.Payload(&stored)
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(body))
}

func TestIngestRedeliveryIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.enable(t, "doppus", "")
	ctx := context.Background()
	payload := doppusEvent("order.paid", "dp_10", "approved")

	first, err := f.svc.Ingest(ctx, "doppus", "user_1", payload, nil)
	require.NoError(t, err)
	second, err := f.svc.Ingest(ctx, "doppus", "user_1", payload, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeDuplicate, second.Outcome)
	assert.Equal(t, first.EventID, second.EventID)
	assert.Equal(t, int64(1), testutil.CountRows(t, f.db, "webhook_events"))
	assert.Equal(t, int64(1), testutil.CountRows(t, f.db, "transactions"))
}

func TestIngestIgnoresUnhandledEvents(t *testing.T) {
	f := newFixture(t)
	f.enable(t, "doppus", "")

	res, err := f.svc.Ingest(context.Background(), "doppus", "user_1", []byte(`{"event":"account.updated","data":{}}`), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnored, res.Outcome)
	assert.Zero(t, testutil.CountRows(t, f.db, "transactions"))
}

func TestIngestRequiresEnabledIntegration(t *testing.T) {
	f := newFixture(t)
	payload := doppusEvent("order.paid", "dp_11", "approved")

	_, err := f.svc.Ingest(context.Background(), "doppus", "user_1", payload, nil)
	assert.ErrorIs(t, err, syncer.ErrIntegrationDisabled)
	assert.Zero(t, testutil.CountRows(t, f.db, "webhook_events"))
}

func TestIngestValidatesInput(t *testing.T) {
	f := newFixture(t)
	f.enable(t, "doppus", "")
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, "stripe", "user_1", []byte(`{}`), nil)
	assert.ErrorIs(t, err, integrationdomain.ErrInvalidPlatform)
	_, err = f.svc.Ingest(ctx, "doppus", "", []byte(`{}`), nil)
	assert.ErrorIs(t, err, integrationdomain.ErrInvalidUser)
	_, err = f.svc.Ingest(ctx, "doppus", "user_1", []byte(`{"event":`), nil)
	assert.ErrorIs(t, err, platformdomain.ErrInvalidPayload)
}

func TestIngestVerifiesSignature(t *testing.T) {
	f := newFixture(t)
	f.enable(t, "kiwify", "whsec_123")
	ctx := context.Background()
	payload := []byte(`{"event":"order_approved","data":{"order_id":"kw_1","order_status":"paid","Customer":{"full_name":"Tom Jobim","email":"tom@example.com"},"Commissions":{"charge_amount":9700,"currency":"BRL"},"created_at":"2026-06-30T08:00:00Z"}}`)

	_, err := f.svc.Ingest(ctx, "kiwify", "user_1", payload, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	headers := http.Header{}
	headers.Set(domain.SignatureHeader, "deadbeef")
	_, err = f.svc.Ingest(ctx, "kiwify", "user_1", payload, headers)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	assert.Zero(t, testutil.CountRows(t, f.db, "webhook_events"))

	headers.Set(domain.SignatureHeader, "sha256="+service.Sign("whsec_123", payload))
	res, err := f.svc.Ingest(ctx, "kiwify", "user_1", payload, headers)
	require.NoError(t, err)
	assert.NotEqual(t, domain.OutcomeRejected, res.Outcome)
}

func TestIngestFailureIsRetriedOnRedelivery(t *testing.T) {
	f := newFixture(t)
	f.enable(t, "doppus", "")
	ctx := context.Background()
	payload := []byte(`{"event":"order.paid","data":{"id":"dp_12","status":"approved","total":10}}`)

	_, err := f.svc.Ingest(ctx, "doppus", "user_1", payload, nil)
	var nerr *platformdomain.NormalizationError
	require.ErrorAs(t, err, &nerr)

	var outcome string
	require.NoError(t, f.db.Raw(`SELECT outcome FROM webhook_events`).Scan(&outcome).Error)
	assert.Equal(t, domain.OutcomeFailed, outcome)

	_, err = f.svc.Ingest(ctx, "doppus", "user_1", payload, nil)
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, int64(1), testutil.CountRows(t, f.db, "webhook_events"))
}
