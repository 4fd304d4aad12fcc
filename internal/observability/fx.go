package observability

import (
	"github.com/smallbiznis/paybridge/internal/observability/logger"
	"github.com/smallbiznis/paybridge/internal/observability/metrics"
	"github.com/smallbiznis/paybridge/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(LoadConfig, splitConfig),
	fx.Provide(
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		metrics.SchedulerWithConfig,
	),
	// the tracer provider has no consumers but must be built to register globally
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

type components struct {
	fx.Out

	Log     logger.Config
	Tracing tracing.Config
	Metrics metrics.Config
}

func splitConfig(cfg Config) components {
	return components{Log: cfg.Log, Tracing: cfg.Tracing, Metrics: cfg.Metrics}
}
