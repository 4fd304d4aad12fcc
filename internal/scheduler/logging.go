package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	obscontext "github.com/smallbiznis/paybridge/internal/observability/context"
	obslogger "github.com/smallbiznis/paybridge/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/paybridge/internal/observability/metrics"
	"go.uber.org/zap"
)

// jobRun tallies one pass over the enabled integrations. Workers update it
// concurrently.
type jobRun struct {
	job          string
	id           string
	startedAt    time.Time
	integrations int

	persisted atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
}

type jobRunKey struct{}

func (r *jobRun) AddProcessed(n int) {
	if r != nil && n > 0 {
		r.persisted.Add(int64(n))
	}
}

func (r *jobRun) IncSkipped() {
	if r != nil {
		r.skipped.Add(1)
	}
}

func (r *jobRun) IncError() {
	if r != nil {
		r.failed.Add(1)
	}
}

func (r *jobRun) fields() []zap.Field {
	return []zap.Field{
		zap.String("job", r.job),
		zap.Int("integrations", r.integrations),
		zap.Int64("persisted", r.persisted.Load()),
		zap.Int64("skipped", r.skipped.Load()),
		zap.Int64("failed", r.failed.Load()),
		zap.Duration("elapsed", time.Since(r.startedAt)),
	}
}

// startJobRun tags ctx with a fresh run id, which doubles as the request id
// of every log line and vendor call made during the pass.
func (s *Scheduler) startJobRun(ctx context.Context, job string) (context.Context, *jobRun) {
	run := &jobRun{job: job, id: ulid.Make().String(), startedAt: time.Now()}
	ctx = context.WithValue(ctx, jobRunKey{}, run)
	return obscontext.WithRequestID(ctx, run.id), run
}

func jobRunFromContext(ctx context.Context) *jobRun {
	run, _ := ctx.Value(jobRunKey{}).(*jobRun)
	return run
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Scheduler) logJobStart(ctx context.Context, run *jobRun) {
	s.logger(ctx).Info("scheduler.job.start",
		zap.String("job", run.job),
		zap.Int("integrations", run.integrations),
	)
}

func (s *Scheduler) logJobFinish(ctx context.Context, run *jobRun) {
	log := s.logger(ctx)
	if run.failed.Load() > 0 {
		log.Warn("scheduler.job.finish", run.fields()...)
		return
	}
	log.Info("scheduler.job.finish", run.fields()...)
}

func (s *Scheduler) logSyncError(ctx context.Context, err error) {
	jobRunFromContext(ctx).IncError()
	s.logger(ctx).Error("scheduler.sync.failed",
		zap.String("error_type", obsmetrics.ClassifySchedulerJobReason(err)),
		zap.Bool("retryable", obsmetrics.IsSchedulerErrorRetryable(err)),
		zap.Error(err),
	)
}
