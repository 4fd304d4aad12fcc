package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

type fakeTimeout struct{}

func (fakeTimeout) Error() string { return "timeout" }
func (fakeTimeout) Timeout() bool { return true }

type fakeHTTP struct{ code int }

func (e fakeHTTP) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e fakeHTTP) HTTPStatus() int { return e.code }

type fakeNormalization struct{}

func (fakeNormalization) Error() string              { return "bad payload" }
func (fakeNormalization) NormalizationField() string { return "amount" }

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: SchedulerJobReasonDeadlineExceeded},
		{name: "vendor_timeout", err: fmt.Errorf("sync: %w", fakeTimeout{}), want: SchedulerJobReasonVendorTimeout},
		{name: "vendor_http", err: fmt.Errorf("sync: %w", fakeHTTP{code: 502}), want: SchedulerJobReasonVendorHTTP},
		{name: "normalization", err: fakeNormalization{}, want: SchedulerJobReasonNormalization},
		{name: "db_lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: SchedulerJobReasonDBLockTimeout},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: SchedulerJobReasonSerializationFailure},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: SchedulerJobReasonUniqueViolation},
		{name: "unknown", err: errors.New("boom"), want: SchedulerJobReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestIsSchedulerErrorRetryable(t *testing.T) {
	if !IsSchedulerErrorRetryable(fakeHTTP{code: 503}) {
		t.Fatalf("expected vendor http errors to be retryable")
	}
	if IsSchedulerErrorRetryable(fakeNormalization{}) {
		t.Fatalf("expected normalization errors not to be retryable")
	}
}

func TestAddSynced(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry, Config{
		ServiceName: "paybridge",
		Environment: "test",
	})

	metrics.AddSynced("doppus", 3)
	metrics.AddSynced("doppus", 0)

	got := testutil.ToFloat64(metrics.syncedRecords.WithLabelValues("doppus"))
	if got != 3 {
		t.Fatalf("expected synced count 3, got %v", got)
	}
}

func TestMarkSuccess(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry, Config{})

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	metrics.MarkSuccess("pagtrust", at)

	got := testutil.ToFloat64(metrics.lastSuccessful.WithLabelValues("pagtrust"))
	if got != float64(at.Unix()) {
		t.Fatalf("expected %v, got %v", at.Unix(), got)
	}
}
