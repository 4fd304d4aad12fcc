package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("platform", "doppus"),
		attribute.String("customer_email", "a@b.c"),
		attribute.String("operation", "fetch_orders"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "platform" && attrs[1].Key != "platform" {
		t.Fatalf("expected platform to be retained")
	}
	if attrs[0].Key != "operation" && attrs[1].Key != "operation" {
		t.Fatalf("expected operation to be retained")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordVendorCall(context.Background(), "doppus", "fetch_orders", 200, time.Second)
	m.RecordTransactionUpserted(context.Background(), "doppus", "completed")
	m.RecordWebhookEvent(context.Background(), "doppus", "ignored")

	Noop().RecordVendorCall(context.Background(), "doppus", "fetch_orders", 0, time.Millisecond)
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{0: "none", 200: "2xx", 404: "4xx", 502: "5xx"}
	for code, want := range cases {
		if got := statusClass(code); got != want {
			t.Fatalf("statusClass(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m := newHTTPMetrics(registry, Config{ServiceName: "paybridge", Environment: "test"})

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/api/platforms", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/platforms", nil))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(m.requests.WithLabelValues("/api/platforms", http.MethodGet, "2xx")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("unmatched", http.MethodGet, "4xx")); got != 1 {
		t.Fatalf("expected 1 unmatched request, got %v", got)
	}
}
