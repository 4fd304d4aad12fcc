package scheduler

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/smallbiznis/paybridge/internal/clock"
	integrationdomain "github.com/smallbiznis/paybridge/internal/integration/domain"
	"github.com/smallbiznis/paybridge/internal/integration/mocks"
	obsmetrics "github.com/smallbiznis/paybridge/internal/observability/metrics"
	platformdomain "github.com/smallbiznis/paybridge/internal/platform/domain"
	"github.com/smallbiznis/paybridge/internal/platform/syncer"
	"go.uber.org/zap"
)

var testLabels = obsmetrics.Config{ServiceName: "paybridge", Environment: "test"}

func newTestScheduler(t *testing.T, registry *prometheus.Registry, enabled []integrationdomain.PlatformConfig, fn syncFunc) *Scheduler {
	t.Helper()
	configs := mocks.NewMockService(gomock.NewController(t))
	configs.EXPECT().ListEnabled(gomock.Any()).Return(enabled, nil)
	return &Scheduler{
		log:     zap.NewNop(),
		cfg:     Config{RunInterval: time.Minute, JobTimeout: 20 * time.Millisecond, Concurrency: 2},
		clock:   clock.NewFakeClock(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)),
		configs: configs,
		sync:    fn,
		metrics: obsmetrics.NewSchedulerMetrics(registry, testLabels),
	}
}

func integration(userID, platform string) integrationdomain.PlatformConfig {
	return integrationdomain.PlatformConfig{UserID: userID, PlatformID: platform, Enabled: true}
}

func TestRunOnceSyncsEveryEnabledIntegration(t *testing.T) {
	registry := prometheus.NewRegistry()
	var calls atomic.Int32
	s := newTestScheduler(t, registry, []integrationdomain.PlatformConfig{
		integration("user_1", "doppus"),
		integration("user_2", "doppus"),
		integration("user_1", "kiwify"),
	}, func(ctx context.Context, cfg integrationdomain.PlatformConfig) (*syncer.Result, error) {
		calls.Add(1)
		if _, ok := ctx.Deadline(); !ok {
			t.Errorf("sync for %s has no deadline", cfg.PlatformID)
		}
		return &syncer.Result{Fetched: 3, Persisted: 2}, nil
	})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 syncs, got %d", got)
	}
	if got := getCounterValue(t, registry, "paybridge_sync_records_total", platformLabels("doppus")); got != 4 {
		t.Fatalf("expected 4 doppus records, got %v", got)
	}
	if got := getCounterValue(t, registry, "paybridge_sync_job_runs_total", platformLabels("kiwify")); got != 1 {
		t.Fatalf("expected 1 kiwify run, got %v", got)
	}
}

func TestRunOnceTimeoutIsNotReturned(t *testing.T) {
	registry := prometheus.NewRegistry()
	s := newTestScheduler(t, registry, []integrationdomain.PlatformConfig{
		integration("user_1", "hotmart"),
	}, func(ctx context.Context, cfg integrationdomain.PlatformConfig) (*syncer.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := getCounterValue(t, registry, "paybridge_sync_job_timeouts_total", platformLabels("hotmart")); got != 1 {
		t.Fatalf("expected timeout count 1, got %v", got)
	}
	errorLabels := platformLabels("hotmart")
	errorLabels["reason"] = obsmetrics.SchedulerJobReasonDeadlineExceeded
	if got := getCounterValue(t, registry, "paybridge_sync_job_errors_total", errorLabels); got != 1 {
		t.Fatalf("expected error count 1, got %v", got)
	}
}

func TestRunOnceJoinsFailures(t *testing.T) {
	registry := prometheus.NewRegistry()
	vendorErr := &platformdomain.VendorHTTPError{Platform: "asaas", Method: http.MethodGet, Path: "/v3/payments", StatusCode: http.StatusUnauthorized}
	s := newTestScheduler(t, registry, []integrationdomain.PlatformConfig{
		integration("user_1", "asaas"),
		integration("user_1", "iugu"),
	}, func(ctx context.Context, cfg integrationdomain.PlatformConfig) (*syncer.Result, error) {
		if cfg.PlatformID == "asaas" {
			return nil, vendorErr
		}
		return &syncer.Result{Persisted: 1}, nil
	})

	err := s.RunOnce(context.Background())
	var herr *platformdomain.VendorHTTPError
	if !errors.As(err, &herr) {
		t.Fatalf("expected vendor error, got %v", err)
	}
	errorLabels := platformLabels("asaas")
	errorLabels["reason"] = obsmetrics.SchedulerJobReasonVendorHTTP
	if got := getCounterValue(t, registry, "paybridge_sync_job_errors_total", errorLabels); got != 1 {
		t.Fatalf("expected error count 1, got %v", got)
	}
	if got := getCounterValue(t, registry, "paybridge_sync_records_total", platformLabels("iugu")); got != 1 {
		t.Fatalf("expected iugu to sync, got %v", got)
	}
}

func TestRunOnceListFailure(t *testing.T) {
	configs := mocks.NewMockService(gomock.NewController(t))
	configs.EXPECT().ListEnabled(gomock.Any()).Return(nil, errors.New("db down"))
	s := &Scheduler{
		log:     zap.NewNop(),
		cfg:     DefaultConfig(),
		clock:   clock.NewFakeClock(time.Time{}),
		configs: configs,
		metrics: obsmetrics.NewSchedulerMetrics(prometheus.NewRegistry(), testLabels),
	}
	if err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("expected list error")
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Params{Log: zap.NewNop()}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.RunInterval != 15*time.Minute || cfg.JobTimeout != 2*time.Minute || cfg.Concurrency != 4 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func platformLabels(platform string) map[string]string {
	return map[string]string{
		"service":  "paybridge",
		"env":      "test",
		"platform": platform,
	}
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if !labelsMatch(metric, labels) {
				continue
			}
			if metric.Counter == nil {
				t.Fatalf("metric %s is not a counter", name)
			}
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
