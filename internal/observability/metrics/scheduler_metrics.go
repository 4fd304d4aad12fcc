package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	SchedulerJobReasonDeadlineExceeded     = "deadline_exceeded"
	SchedulerJobReasonVendorTimeout        = "vendor_timeout"
	SchedulerJobReasonVendorHTTP           = "vendor_http"
	SchedulerJobReasonNormalization        = "normalization"
	SchedulerJobReasonDBLockTimeout        = "db_lock_timeout"
	SchedulerJobReasonSerializationFailure = "serialization_failure"
	SchedulerJobReasonUniqueViolation      = "unique_violation"
	SchedulerJobReasonUnknown              = "unknown"

	SchedulerSkipReasonLockHeld = "lock_held"
	SchedulerSkipReasonDisabled = "disabled"
)

// SchedulerMetrics captures sync scheduler health signals.
type SchedulerMetrics struct {
	jobRuns        *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	jobTimeouts    *prometheus.CounterVec
	jobErrors      *prometheus.CounterVec
	jobSkipped     *prometheus.CounterVec
	syncedRecords  *prometheus.CounterVec
	runLoopLag     prometheus.Observer
	lastSuccessful *prometheus.GaugeVec
}

var (
	schedulerMetricsOnce sync.Once
	schedulerMetrics     *SchedulerMetrics
)

// Scheduler returns the singleton scheduler metrics registry.
func Scheduler() *SchedulerMetrics {
	return SchedulerWithConfig(Config{})
}

// SchedulerWithConfig returns the singleton scheduler metrics registry using config labels.
func SchedulerWithConfig(cfg Config) *SchedulerMetrics {
	schedulerMetricsOnce.Do(func() {
		schedulerMetrics = newSchedulerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return schedulerMetrics
}

// NewSchedulerMetrics builds scheduler metrics on a dedicated registerer.
func NewSchedulerMetrics(registerer prometheus.Registerer, cfg Config) *SchedulerMetrics {
	return newSchedulerMetrics(registerer, cfg)
}

func serviceLabels(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "paybridge"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}
}

func newSchedulerMetrics(registerer prometheus.Registerer, cfg Config) *SchedulerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := serviceLabels(cfg)

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "paybridge_sync_job_runs_total",
		Help:        "Sync job runs by platform.",
		ConstLabels: constLabels,
	}, []string{"platform"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "paybridge_sync_job_duration_seconds",
		Help:        "Sync job latency per platform.",
		Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		ConstLabels: constLabels,
	}, []string{"platform"})
	jobTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "paybridge_sync_job_timeouts_total",
		Help:        "Sync jobs that hit their deadline.",
		ConstLabels: constLabels,
	}, []string{"platform"})
	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "paybridge_sync_job_errors_total",
		Help:        "Sync job errors by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"platform", "reason"})
	jobSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "paybridge_sync_job_skipped_total",
		Help:        "Sync jobs skipped before running.",
		ConstLabels: constLabels,
	}, []string{"platform", "reason"})
	syncedRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "paybridge_sync_records_total",
		Help:        "Transactions persisted by sync jobs.",
		ConstLabels: constLabels,
	}, []string{"platform"})
	runLoopLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "paybridge_sync_runloop_lag_seconds",
		Help:        "Scheduler run loop lag beyond the configured interval.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		ConstLabels: constLabels,
	})
	lastSuccessful := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "paybridge_sync_last_success_timestamp_seconds",
		Help:        "Unix time of the last successful sync per platform.",
		ConstLabels: constLabels,
	}, []string{"platform"})

	registerer.MustRegister(
		jobRuns,
		jobDuration,
		jobTimeouts,
		jobErrors,
		jobSkipped,
		syncedRecords,
		runLoopLag,
		lastSuccessful,
	)

	return &SchedulerMetrics{
		jobRuns:        jobRuns,
		jobDuration:    jobDuration,
		jobTimeouts:    jobTimeouts,
		jobErrors:      jobErrors,
		jobSkipped:     jobSkipped,
		syncedRecords:  syncedRecords,
		runLoopLag:     runLoopLag,
		lastSuccessful: lastSuccessful,
	}
}

// IncJobRun increments the run counter for a platform sync.
func (m *SchedulerMetrics) IncJobRun(platform string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(platform).Inc()
}

// ObserveJobDuration records sync latency in seconds.
func (m *SchedulerMetrics) ObserveJobDuration(platform string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// IncJobTimeout increments the timeout counter.
func (m *SchedulerMetrics) IncJobTimeout(platform string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(platform).Inc()
}

// IncJobError increments the job error counter with classification.
func (m *SchedulerMetrics) IncJobError(platform string, err error) {
	if m == nil || err == nil {
		return
	}
	m.jobErrors.WithLabelValues(platform, ClassifySchedulerJobReason(err)).Inc()
}

// IncJobSkipped records a job that did not run.
func (m *SchedulerMetrics) IncJobSkipped(platform, reason string) {
	if m == nil {
		return
	}
	m.jobSkipped.WithLabelValues(platform, reason).Inc()
}

// AddSynced increments the persisted transaction counter by count.
func (m *SchedulerMetrics) AddSynced(platform string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.syncedRecords.WithLabelValues(platform).Add(float64(count))
}

// MarkSuccess stores the completion time of a successful sync.
func (m *SchedulerMetrics) MarkSuccess(platform string, at time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessful.WithLabelValues(platform).Set(float64(at.Unix()))
}

// ObserveRunLoopLag records lag between the scheduled tick and actual run start.
func (m *SchedulerMetrics) ObserveRunLoopLag(duration time.Duration) {
	if m == nil || m.runLoopLag == nil {
		return
	}
	lag := duration
	if lag < 0 {
		lag = 0
	}
	m.runLoopLag.Observe(lag.Seconds())
}

type timeoutError interface {
	Timeout() bool
}

type httpStatusError interface {
	HTTPStatus() int
}

type normalizationError interface {
	NormalizationField() string
}

// ClassifySchedulerJobReason maps sync errors to low-cardinality reasons.
func ClassifySchedulerJobReason(err error) string {
	if err == nil {
		return SchedulerJobReasonUnknown
	}
	var te timeoutError
	if errors.As(err, &te) && te.Timeout() && !isContextError(te) {
		return SchedulerJobReasonVendorTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return SchedulerJobReasonDeadlineExceeded
	}
	var he httpStatusError
	if errors.As(err, &he) {
		return SchedulerJobReasonVendorHTTP
	}
	var ne normalizationError
	if errors.As(err, &ne) {
		return SchedulerJobReasonNormalization
	}
	if hasPGCode(err, "55P03") {
		return SchedulerJobReasonDBLockTimeout
	}
	if hasPGCode(err, "40001") {
		return SchedulerJobReasonSerializationFailure
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505") {
		return SchedulerJobReasonUniqueViolation
	}
	return SchedulerJobReasonUnknown
}

// IsSchedulerErrorRetryable reports whether the next tick should retry the job.
func IsSchedulerErrorRetryable(err error) bool {
	switch ClassifySchedulerJobReason(err) {
	case SchedulerJobReasonDeadlineExceeded,
		SchedulerJobReasonVendorTimeout,
		SchedulerJobReasonVendorHTTP,
		SchedulerJobReasonDBLockTimeout,
		SchedulerJobReasonSerializationFailure:
		return true
	default:
		return false
	}
}

func isContextError(v any) bool {
	err, ok := v.(error)
	return ok && (err == context.DeadlineExceeded || err == context.Canceled)
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
