package metrics

import (
	"context"
	"fmt"
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

// Metrics exposes the scheduler daemon's instruments: job run outcomes,
// GL export results, cache refreshes and POS throttle decisions.
type Metrics struct {
	jobRuns        metric.Int64Counter
	jobDuration    metric.Float64Histogram
	glExports      metric.Int64Counter
	cacheRefreshes metric.Int64Counter
	throttleAllow  metric.Int64Counter
	throttleDeny   metric.Int64Counter
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
		name = "glsync"
	}
	meter := provider.Meter(name)

	jobRuns, err := meter.Int64Counter("glsync_job_runs_total")
	if err != nil {
		return nil, err
	}
	jobDuration, err := meter.Float64Histogram("glsync_job_duration_seconds")
	if err != nil {
		return nil, err
	}
	glExports, err := meter.Int64Counter("glsync_gl_exports_total")
	if err != nil {
		return nil, err
	}
	cacheRefreshes, err := meter.Int64Counter("glsync_cache_refreshes_total")
	if err != nil {
		return nil, err
	}
	throttleAllow, err := meter.Int64Counter("glsync_pos_throttle_allowed_total")
	if err != nil {
		return nil, err
	}
	throttleDeny, err := meter.Int64Counter("glsync_pos_throttle_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		jobRuns:        jobRuns,
		jobDuration:    jobDuration,
		glExports:      glExports,
		cacheRefreshes: cacheRefreshes,
		throttleAllow:  throttleAllow,
		throttleDeny:   throttleDeny,
	}, nil
}

// RecordJobRun increments the run counter for queue, tagged with its outcome.
func (m *Metrics) RecordJobRun(ctx context.Context, queue, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("queue", strings.TrimSpace(queue)),
		attribute.String("status", strings.TrimSpace(status)),
	)
	m.jobRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordJobDuration records how long a job run on queue took, in seconds.
func (m *Metrics) RecordJobDuration(ctx context.Context, queue string, seconds float64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("queue", strings.TrimSpace(queue)))
	m.jobDuration.Record(ctx, seconds, metric.WithAttributes(attrs...))
}

// RecordGLExport increments GL export outcomes for a store.
func (m *Metrics) RecordGLExport(ctx context.Context, storeID, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("store_id", strings.TrimSpace(storeID)),
		attribute.String("status", strings.TrimSpace(status)),
	)
	m.glExports.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheRefresh increments cache refresh outcomes for a store's inventory sync.
func (m *Metrics) RecordCacheRefresh(ctx context.Context, storeID, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("store_id", strings.TrimSpace(storeID)),
		attribute.String("status", strings.TrimSpace(status)),
	)
	m.cacheRefreshes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordThrottleAllowed increments POS throttle allow counts for a store.
func (m *Metrics) RecordThrottleAllowed(ctx context.Context, storeID string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("store_id", strings.TrimSpace(storeID)))
	m.throttleAllow.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordThrottleDenied increments POS throttle deny counts for a store.
func (m *Metrics) RecordThrottleDenied(ctx context.Context, storeID string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("store_id", strings.TrimSpace(storeID)))
	m.throttleDeny.Add(ctx, 1, metric.WithAttributes(attrs...))
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
	"queue":    {},
	"status":   {},
	"store_id": {},
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
