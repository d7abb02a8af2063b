package logger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configures the zap logger.
type Config struct {
	ServiceName string
	Environment string
	Version     string
	Level       string
	Format      string
	Debug       bool

	SamplingInitial     int
	SamplingThereafter  int
	SamplingWindow      time.Duration
	IncludeCaller       bool
	IncludeStackOnError bool
}

// New builds a structured zap.Logger and registers lifecycle hooks.
func New(lc fx.Lifecycle, cfg Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = normalizeFormat(cfg.Format)
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stdout"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	level := strings.TrimSpace(cfg.Level)
	if level == "" {
		level = "info"
	}
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	options := []zap.Option{}
	if cfg.IncludeCaller {
		options = append(options, zap.AddCaller())
	}
	if cfg.IncludeStackOnError {
		options = append(options, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	initial := cfg.SamplingInitial
	thereafter := cfg.SamplingThereafter
	window := cfg.SamplingWindow
	if initial == 0 {
		initial = 100
	}
	if thereafter == 0 {
		thereafter = 100
	}
	if window == 0 {
		window = time.Second
	}

	options = append(options, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewSamplerWithOptions(core, window, initial, thereafter)
	}))

	logger, err := zapCfg.Build(options...)
	if err != nil {
		return nil, err
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "glsync"
	}
	environment := strings.TrimSpace(cfg.Environment)
	version := strings.TrimSpace(cfg.Version)

	logger = logger.With(
		zap.String("service", serviceName),
		zap.String("env", environment),
		zap.String("version", version),
	)
	zap.ReplaceGlobals(logger)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				_ = ctx
				_ = logger.Sync()
				return nil
			},
		})
	}

	return logger, nil
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "console" {
		return "console"
	}
	return "json"
}

type jobContextKey struct{}

// JobFields is the set of correlation fields carried on a job's context:
// which queue it belongs to, its job id, and (when applicable) the store
// it is processing.
type JobFields struct {
	Queue   string
	JobID   string
	StoreID string
}

// WithJobFields attaches job correlation fields to ctx for later retrieval
// by FromContext.
func WithJobFields(ctx context.Context, fields JobFields) context.Context {
	return context.WithValue(ctx, jobContextKey{}, fields)
}

func jobFieldsFromContext(ctx context.Context) JobFields {
	fields, _ := ctx.Value(jobContextKey{}).(JobFields)
	return fields
}

// JobFieldsFromContext returns the job correlation fields attached to ctx,
// or the zero value if none were ever attached. Callers that only need to
// add a StoreID to an already-scoped job context use this to avoid
// clobbering the Queue/JobID WithJobFields originally set.
func JobFieldsFromContext(ctx context.Context) JobFields {
	return jobFieldsFromContext(ctx)
}

// WithStoreID returns a copy of ctx's job fields with StoreID set,
// preserving whatever Queue/JobID were already attached.
func WithStoreID(ctx context.Context, storeID string) context.Context {
	fields := jobFieldsFromContext(ctx)
	fields.StoreID = storeID
	return WithJobFields(ctx, fields)
}

// FromContext returns the global logger enriched with job and trace
// correlation fields found on ctx.
func FromContext(ctx context.Context) *zap.Logger {
	return WithContext(ctx, zap.L())
}

// WithContext enriches base with job correlation and trace fields from ctx.
func WithContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if ctx == nil {
		return base
	}

	job := jobFieldsFromContext(ctx)
	fields := []zap.Field{
		zap.String("queue", job.Queue),
		zap.String("job_id", job.JobID),
	}
	if job.StoreID != "" {
		fields = append(fields, zap.String("store_id", job.StoreID))
	}
	fields = append(fields, traceFieldsFromContext(ctx)...)

	return base.With(fields...)
}

func traceFieldsFromContext(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	sc := span.SpanContext()
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
