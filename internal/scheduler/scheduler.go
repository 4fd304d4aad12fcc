package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/paybridge/internal/clock"
	integrationdomain "github.com/smallbiznis/paybridge/internal/integration/domain"
	obscontext "github.com/smallbiznis/paybridge/internal/observability/context"
	obsmetrics "github.com/smallbiznis/paybridge/internal/observability/metrics"
	"github.com/smallbiznis/paybridge/internal/platform/syncer"
	"github.com/smallbiznis/paybridge/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const jobSync = "sync"

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type syncFunc func(ctx context.Context, cfg integrationdomain.PlatformConfig) (*syncer.Result, error)

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Configs integrationdomain.Service
	Syncer  *syncer.Service
	Limiter *ratelimit.Limiter           `optional:"true"`
	Metrics *obsmetrics.SchedulerMetrics `optional:"true"`
	Config  Config                       `optional:"true"`
}

// Scheduler periodically syncs every enabled integration. Each integration
// is guarded by a distributed lock when a limiter is configured, so replicas
// never sync the same integration concurrently.
type Scheduler struct {
	log     *zap.Logger
	cfg     Config
	clock   clock.Clock
	configs integrationdomain.Service
	sync    syncFunc
	limiter *ratelimit.Limiter
	metrics *obsmetrics.SchedulerMetrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.Configs == nil || p.Syncer == nil {
		return nil, ErrInvalidConfig
	}
	metrics := p.Metrics
	if metrics == nil {
		metrics = obsmetrics.Scheduler()
	}
	return &Scheduler{
		log:     p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:     p.Config.withDefaults(),
		clock:   p.Clock,
		configs: p.Configs,
		sync:    p.Syncer.SyncConfig,
		limiter: p.Limiter,
		metrics: metrics,
	}, nil
}

// RunOnce syncs every enabled integration once. Timeouts are logged and
// counted but not returned.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, run := s.startJobRun(parent, jobSync)

	integrations, err := s.configs.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list enabled integrations: %w", err)
	}
	run.integrations = len(integrations)
	s.logJobStart(ctx, run)
	defer s.logJobFinish(ctx, run)

	errs := make([]error, len(integrations))
	var group errgroup.Group
	group.SetLimit(s.cfg.Concurrency)
	for i, integration := range integrations {
		group.Go(func() error {
			errs[i] = s.runIntegration(ctx, integration)
			return nil
		})
	}
	_ = group.Wait()
	return errors.Join(errs...)
}

func (s *Scheduler) runIntegration(parent context.Context, cfg integrationdomain.PlatformConfig) error {
	platform := cfg.PlatformID
	ctx := obscontext.WithPlatform(obscontext.WithUserID(parent, cfg.UserID), platform)
	run := jobRunFromContext(ctx)

	token, ok, err := s.limiter.TryLockSync(ctx, cfg.UserID, platform)
	if err != nil {
		s.logSyncError(ctx, err)
		return fmt.Errorf("%s/%s: lock: %w", platform, cfg.UserID, err)
	}
	if !ok {
		s.metrics.IncJobSkipped(platform, obsmetrics.SchedulerSkipReasonLockHeld)
		run.IncSkipped()
		s.logger(ctx).Debug("scheduler.sync.skipped", zap.String("reason", obsmetrics.SchedulerSkipReasonLockHeld))
		return nil
	}
	defer func() {
		if err := s.limiter.ReleaseSync(context.WithoutCancel(ctx), cfg.UserID, platform, token); err != nil {
			s.logger(ctx).Warn("release sync lock failed", zap.Error(err))
		}
	}()

	start := time.Now()
	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	s.metrics.IncJobRun(platform)
	res, err := s.sync(jobCtx, cfg)
	s.metrics.ObserveJobDuration(platform, time.Since(start))
	if err == nil {
		s.metrics.AddSynced(platform, res.Persisted)
		s.metrics.MarkSuccess(platform, s.clock.Now())
		run.AddProcessed(res.Persisted)
		return nil
	}

	s.metrics.IncJobError(platform, err)
	isTimeout := errors.Is(err, context.DeadlineExceeded)
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		isTimeout = true
	}
	if isTimeout {
		s.metrics.IncJobTimeout(platform)
		run.IncError()
		s.logger(ctx).Warn("scheduler.sync.timeout",
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}
	s.logSyncError(ctx, err)
	return fmt.Errorf("%s/%s: %w", platform, cfg.UserID, err)
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now()

	for {
		if runLag := s.clock.Now().Sub(nextRun); runLag > 0 {
			s.metrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
