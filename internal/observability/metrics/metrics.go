package metrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	vendorCalls           metric.Int64Counter
	vendorLatency         metric.Float64Histogram
	transactionsUpserted  metric.Int64Counter
	normalizationFailures metric.Int64Counter
	webhookEvents         metric.Int64Counter
	rateLimitDenied       metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "paybridge"
	}
	if provider == nil {
		provider = noop.NewMeterProvider()
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.vendorCalls, "paybridge_vendor_calls_total", "Outbound payment platform API calls."},
		{&m.transactionsUpserted, "paybridge_transactions_upserted_total", "Canonical transactions written to the store."},
		{&m.normalizationFailures, "paybridge_normalization_failures_total", "Vendor records rejected during normalization."},
		{&m.webhookEvents, "paybridge_webhook_events_total", "Inbound webhook deliveries by outcome."},
		{&m.rateLimitDenied, "paybridge_rate_limit_denied_total", "Requests refused by a rate limiter."},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}

	latency, err := meter.Float64Histogram("paybridge_vendor_call_duration_seconds",
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, fmt.Errorf("histogram vendor latency: %w", err)
	}
	m.vendorLatency = latency
	return m, nil
}

// Noop returns instruments bound to a no-op provider.
func Noop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordVendorCall counts an outbound vendor API call and its latency.
// statusCode is zero when no response was received.
func (m *Metrics) RecordVendorCall(ctx context.Context, platform, operation string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	opt := labels("platform", platform, "operation", operation, "status_code", statusClass(statusCode))
	m.vendorCalls.Add(ctx, 1, opt)
	m.vendorLatency.Record(ctx, duration.Seconds(), opt)
}

func (m *Metrics) RecordTransactionUpserted(ctx context.Context, platform, status string) {
	if m != nil {
		m.transactionsUpserted.Add(ctx, 1, labels("platform", platform, "status", status))
	}
}

// RecordNormalizationFailure counts a vendor payload rejected by a normalizer,
// keyed by the first offending field.
func (m *Metrics) RecordNormalizationFailure(ctx context.Context, platform, field string) {
	if m != nil {
		m.normalizationFailures.Add(ctx, 1, labels("platform", platform, "field", field))
	}
}

func (m *Metrics) RecordWebhookEvent(ctx context.Context, platform, outcome string) {
	if m != nil {
		m.webhookEvents.Add(ctx, 1, labels("platform", platform, "outcome", outcome))
	}
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, platform, endpoint, reason string) {
	if m != nil {
		m.rateLimitDenied.Add(ctx, 1, labels("platform", platform, "endpoint", endpoint, "reason", reason))
	}
}

// labels turns alternating key, value pairs into a filtered attribute set.
func labels(kv ...string) metric.MeasurementOption {
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, attribute.String(kv[i], strings.TrimSpace(kv[i+1])))
	}
	return metric.WithAttributes(FilterAttributes(attrs...)...)
}

func statusClass(code int) string {
	if code <= 0 {
		return "none"
	}
	return strconv.Itoa(code/100) + "xx"
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"platform":    {},
	"operation":   {},
	"endpoint":    {},
	"method":      {},
	"route":       {},
	"status":      {},
	"status_code": {},
	"event_type":  {},
	"outcome":     {},
	"field":       {},
	"reason":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
