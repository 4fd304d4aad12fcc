package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/paybridge/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-42")
	ctx = obscontext.WithUserID(ctx, "user-1")
	ctx = obscontext.WithPlatform(ctx, "pagtrust")

	WithContext(ctx, base).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "user-1", fields["user_id"])
	assert.Equal(t, "pagtrust", fields["platform"])
	assert.NotContains(t, fields, "trace_id")
}

func TestRedactingCoreMasksSecrets(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(&redactingCore{Core: core}).With(zap.String("api_key", "sk_live_123"))

	log.Info("saved",
		zap.String("platform", "kiwify"),
		zap.String("webhook_signature", "abc"),
		zap.String("client_secret", ""),
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "[redacted]", fields["api_key"])
	assert.Equal(t, "[redacted]", fields["webhook_signature"])
	assert.Equal(t, "", fields["client_secret"])
	assert.Equal(t, "kiwify", fields["platform"])
}

func TestDescribeSQL(t *testing.T) {
	cases := []struct {
		sql   string
		op    string
		table string
	}{
		{`INSERT INTO transactions (id) VALUES (1)`, "INSERT", "transactions"},
		{`SELECT * FROM "payment_platforms" WHERE user_id = ?`, "SELECT", "payment_platforms"},
		{`UPDATE transactions SET status = ?`, "UPDATE", "transactions"},
		{`DELETE FROM webhook_events WHERE id = ?`, "DELETE", "webhook_events"},
		{``, "UNKNOWN", ""},
	}
	for _, tc := range cases {
		op, table := describeSQL(tc.sql)
		assert.Equal(t, tc.op, op, tc.sql)
		assert.Equal(t, tc.table, table, tc.sql)
	}
}

func TestAccessLevel(t *testing.T) {
	assert.Equal(t, zapcore.ErrorLevel, accessLevel("/api/transactions", http.StatusBadGateway, ""))
	assert.Equal(t, zapcore.DebugLevel, accessLevel("/health", http.StatusOK, ""))
	assert.Equal(t, zapcore.DebugLevel, accessLevel("/webhooks/:platform/:user_id", http.StatusUnauthorized, "validation_error"))
	assert.Equal(t, zapcore.WarnLevel, accessLevel("/webhooks/:platform/:user_id", http.StatusTooManyRequests, "rate_limited"))
	assert.Equal(t, zapcore.InfoLevel, accessLevel("/api/platforms", http.StatusOK, ""))
}

func TestGinMiddlewareSeedsContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))

	var gotRequestID, gotUser, gotPlatform string
	r.GET("/api/integrations/:platform", func(c *gin.Context) {
		ctx := c.Request.Context()
		gotRequestID = obscontext.RequestIDFromContext(ctx)
		gotUser = obscontext.UserIDFromContext(ctx)
		gotPlatform = obscontext.PlatformFromContext(ctx)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/integrations/hotmart", nil)
	req.Header.Set(HeaderUserID, "user_9")
	req.Header.Set(HeaderRequestID, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "req-1", gotRequestID)
	assert.Equal(t, "user_9", gotUser)
	assert.Equal(t, "hotmart", gotPlatform)
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "loud"})
	assert.Error(t, err)

	log, err := New(nil, Config{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, log)
}
