package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"tabstat/internal/config"
)

// InstrumentationName names the tracer and meter of every report binary.
const InstrumentationName = "tabstat"

// OTelProviders holds the OpenTelemetry providers of one run
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	// Registry receives the metrics; it is private so only this run's series are written
	Registry *prometheus.Registry
	Logger   *slog.Logger

	traceOut io.Closer
}

// SpanOption adds a span processor to the tracer provider. Tests use it to
// attach an in-memory recorder.
type SpanOption = sdktrace.TracerProviderOption

// InitializeOTel sets up tracing and metrics for a run. Spans are exported
// synchronously to stderr or a file, or kept in-process when the exporter is
// "none". Metrics are always collected into a private Prometheus registry;
// WriteMetrics persists them.
func InitializeOTel(cfg config.TelemetryConfig, traceFile string, logger *slog.Logger, opts ...SpanOption) (*OTelProviders, error) {
	if logger == nil {
		logger = GetLogger()
	}
	ctx := context.Background()

	res := createResource(cfg)
	providers := &OTelProviders{Logger: logger}

	if err := initializeTracing(cfg, traceFile, res, providers, opts...); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.DebugContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.String("trace_exporter", cfg.TraceExporter))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg config.TelemetryConfig) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)
}

func initializeTracing(cfg config.TelemetryConfig, traceFile string, res *resource.Resource, providers *OTelProviders, opts ...SpanOption) error {
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}

	var out io.Writer
	switch cfg.TraceExporter {
	case "stdout":
		// stdout carries the report text
		out = os.Stderr
	case "file":
		if err := os.MkdirAll(filepath.Dir(traceFile), 0755); err != nil {
			return fmt.Errorf("failed to create trace directory: %w", err)
		}
		f, err := os.OpenFile(traceFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open trace file %s: %w", traceFile, err)
		}
		providers.traceOut = f
		out = f
	case "none", "":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if out != nil {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		// A report run is short; export each span as it ends
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exporter))
	}
	tpOpts = append(tpOpts, opts...)

	tp := sdktrace.NewTracerProvider(tpOpts...)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(config.AppVersion))
	return nil
}

func initializeMetrics(res *resource.Resource, providers *OTelProviders) error {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(
		otelprom.WithRegisterer(registry),
		otelprom.WithoutTargetInfo(),
	)
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.Registry = registry
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(InstrumentationName, metric.WithInstrumentationVersion(config.AppVersion))
	return nil
}

// WriteMetrics writes the collected metrics in the Prometheus text format.
// An empty path is a no-op.
func (p *OTelProviders) WriteMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, p.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Shutdown flushes and stops the providers and closes the trace file
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if p.traceOut != nil {
		if err := p.traceOut.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
		p.traceOut = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

// PipelineMetrics holds the counters and histograms a report run records
type PipelineMetrics struct {
	RecordsLoaded  metric.Int64Counter
	RecordsDropped metric.Int64Counter
	ParseFailures  metric.Int64Counter
	ChartsWritten  metric.Int64Counter
	StageErrors    metric.Int64Counter
	StageDuration  metric.Float64Histogram
}

// NewPipelineMetrics creates the run metrics on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	recordsLoaded, err := meter.Int64Counter(
		"tabstat_records_loaded",
		metric.WithDescription("Records read from the input file"),
	)
	if err != nil {
		return nil, err
	}

	recordsDropped, err := meter.Int64Counter(
		"tabstat_records_dropped",
		metric.WithDescription("Records removed during cleaning, by reason"),
	)
	if err != nil {
		return nil, err
	}

	parseFailures, err := meter.Int64Counter(
		"tabstat_parse_failures",
		metric.WithDescription("Field values that could not be parsed"),
	)
	if err != nil {
		return nil, err
	}

	chartsWritten, err := meter.Int64Counter(
		"tabstat_charts_written",
		metric.WithDescription("Chart images written to disk"),
	)
	if err != nil {
		return nil, err
	}

	stageErrors, err := meter.Int64Counter(
		"tabstat_stage_errors",
		metric.WithDescription("Pipeline stages that returned an error"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"tabstat_stage_duration",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RecordsLoaded:  recordsLoaded,
		RecordsDropped: recordsDropped,
		ParseFailures:  parseFailures,
		ChartsWritten:  chartsWritten,
		StageErrors:    stageErrors,
		StageDuration:  stageDuration,
	}, nil
}

// RecordStage records the duration and outcome of one pipeline stage
func (m *PipelineMetrics) RecordStage(ctx context.Context, report, stage string, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("report", report),
		attribute.String("stage", stage),
	)
	m.StageDuration.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		m.StageErrors.Add(ctx, 1, attrs)
	}
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceIDFromContext extracts the trace ID from context for log correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}
