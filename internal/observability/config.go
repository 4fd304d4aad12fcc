package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/smallbiznis/paybridge/internal/config"
	"github.com/smallbiznis/paybridge/internal/observability/logger"
	"github.com/smallbiznis/paybridge/internal/observability/metrics"
	"github.com/smallbiznis/paybridge/internal/observability/tracing"
)

// Config bundles the logging, tracing and metrics settings of one process.
// Process-level values come from config.Config; OTEL_* and LOG_* variables
// override them so collectors can be retargeted without touching app config.
type Config struct {
	Service     string
	Environment string
	Version     string

	Log     logger.Config
	Tracing tracing.Config
	Metrics metrics.Config
}

func LoadConfig(app config.Config) Config {
	service := strings.TrimSpace(app.AppName)
	if service == "" {
		service = "paybridge"
	}
	env := envOr("DEPLOYMENT_ENV", app.Environment)
	version := envOr("SERVICE_VERSION", app.AppVersion)

	endpoint := envOr("OTEL_EXPORTER_OTLP_ENDPOINT", app.OTLPEndpoint)
	protocol := strings.ToLower(envOr("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", envOr("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")))
	otelOn := envBool("OTEL_ENABLED", true)

	level := strings.ToLower(envOr("LOG_LEVEL", "info"))
	debug := level == "debug" || isLocalEnv(env)

	return Config{
		Service:     service,
		Environment: env,
		Version:     version,
		Log: logger.Config{
			ServiceName:      service,
			Environment:      env,
			Version:          version,
			Level:            level,
			Format:           strings.ToLower(envOr("LOG_FORMAT", "json")),
			Debug:            debug,
			SampleFirst:      envInt("LOG_SAMPLE_FIRST", 100),
			SampleThereafter: envInt("LOG_SAMPLE_THEREAFTER", 100),
		},
		Tracing: tracing.Config{
			Enabled:          otelOn,
			ServiceName:      service,
			ServiceVersion:   version,
			Environment:      env,
			ExporterEndpoint: endpoint,
			ExporterProtocol: protocol,
			SamplingRatio:    envFloat("OTEL_SAMPLING_RATIO", 0.1),
		},
		Metrics: metrics.Config{
			Enabled:          otelOn,
			ExporterEndpoint: endpoint,
			ExporterProtocol: protocol,
			ServiceName:      service,
			Environment:      env,
		},
	}
}

// Debug reports whether verbose request diagnostics are on.
func (c Config) Debug() bool {
	return c.Log.Debug
}

func isLocalEnv(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(def)
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return v
}
