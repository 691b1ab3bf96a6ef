package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"tabstat/internal/charts"
	"tabstat/internal/config"
	"tabstat/internal/dataset"
	"tabstat/internal/infrastructure"
	"tabstat/internal/pipeline"
	"tabstat/internal/report"
	"tabstat/internal/validation"
)

// Options are the command-line settings of a run
type Options struct {
	Input      string
	OutputDir  string
	ConfigPath string
}

// Runner drives one job through its stages
type Runner struct {
	job     Job
	cfg     *config.Config
	paths   *config.Paths
	logger  *slog.Logger
	otel    *infrastructure.OTelProviders
	metrics *infrastructure.PipelineMetrics
	stdout  io.Writer
	files   *validation.FileValidator
	stages  []*StageState
}

// Run loads the configuration, initializes logging and telemetry and runs job.
// The report is written to stdout.
func Run(ctx context.Context, job Job, opts Options, stdout io.Writer) (err error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.OutputDir != "" {
		cfg.Output.Dir = opts.OutputDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	r, err := NewRunner(job, cfg, logger, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(context.WithoutCancel(ctx)); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close run: %w", cerr))
		}
	}()

	input := opts.Input
	if input == "" {
		input = job.DefaultInput
	}
	return r.Run(ctx, input)
}

// NewRunner resolves the output paths and sets up telemetry. opts attach
// extra span processors to the tracer provider.
func NewRunner(job Job, cfg *config.Config, logger *slog.Logger, stdout io.Writer, opts ...infrastructure.SpanOption) (*Runner, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	logger = logger.With(slog.String("report", job.Name))

	paths, err := config.GetPaths(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	files := validation.NewFileValidator(logger)
	if err := files.ValidateOutputDirectory(paths.OutputDir); err != nil {
		return nil, err
	}

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, paths.TraceFile, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		providers.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return &Runner{
		job:     job,
		cfg:     cfg,
		paths:   paths,
		logger:  logger,
		otel:    providers,
		metrics: metrics,
		stdout:  stdout,
		files:   files,
	}, nil
}

// Run executes the stages on the input file
func (r *Runner) Run(ctx context.Context, input string) error {
	ctx = infrastructure.EnsureRunID(ctx)
	ctx, span := r.otel.Tracer.Start(ctx, "report."+r.job.Name)
	defer span.End()

	start := time.Now()
	r.logger.InfoContext(ctx, "run_start",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("input", input),
		slog.String("output_dir", r.paths.OutputDir))

	err := r.execute(ctx, input)

	status := "completed"
	if err != nil {
		status = "failed"
		infrastructure.RecordError(ctx, err)
	}
	r.logger.InfoContext(ctx, "run_complete",
		slog.String("status", status),
		slog.Duration("duration", time.Since(start)),
		slog.String("trace_id", infrastructure.TraceIDFromContext(ctx)))
	return err
}

func (r *Runner) execute(ctx context.Context, input string) error {
	var (
		raw      *dataset.Dataset
		clean    *dataset.Dataset
		cleaning pipeline.CleanReport
		analysis Analysis
	)

	remaining := []string{StageClean, StageAnalyze, StageChart, StageReport}
	abort := func(err error) error {
		for _, name := range remaining {
			r.skipStage(ctx, name, "previous stage failed")
		}
		return err
	}

	err := r.runStage(ctx, StageLoad, func(ctx context.Context) error {
		if err := r.files.ValidateInput(input); err != nil {
			return err
		}
		var err error
		raw, err = dataset.NewLoader(r.logger).Load(ctx, input, r.job.Schema)
		if err != nil {
			return err
		}
		r.metrics.RecordsLoaded.Add(ctx, int64(raw.Len()), r.reportAttr())
		for field, n := range raw.ParseFailures() {
			r.metrics.ParseFailures.Add(ctx, int64(n), metric.WithAttributes(
				attribute.String("report", r.job.Name),
				attribute.String("field", field),
			))
		}
		return nil
	})
	if err != nil {
		return abort(err)
	}

	remaining = remaining[1:]
	err = r.runStage(ctx, StageClean, func(ctx context.Context) error {
		var err error
		clean, cleaning, err = pipeline.NewCleaner(r.logger, r.job.Cleaning(r.cfg.Pipeline)).Clean(ctx, raw)
		r.recordDropped(ctx, cleaning)
		return err
	})
	if err != nil {
		return abort(err)
	}

	remaining = remaining[1:]
	err = r.runStage(ctx, StageAnalyze, func(ctx context.Context) error {
		var err error
		analysis, err = r.job.Analyze(ctx, Input{
			Raw:      raw,
			Clean:    clean,
			Cleaning: cleaning,
			Pipeline: r.cfg.Pipeline,
			Logger:   r.logger,
		})
		return err
	})
	if err != nil {
		return abort(err)
	}

	var artifacts []report.Artifact
	chartErr := r.runStage(ctx, StageChart, func(ctx context.Context) error {
		var err error
		artifacts, err = r.renderCharts(ctx, analysis)
		return err
	})

	err = r.runStage(ctx, StageReport, func(ctx context.Context) error {
		return report.Render(r.stdout, analysis.Document(artifacts))
	})

	return errors.Join(chartErr, err)
}

// renderCharts writes every chart of the analysis. A failed chart does not
// stop the others; the failures are joined into the returned error.
func (r *Runner) renderCharts(ctx context.Context, analysis Analysis) ([]report.Artifact, error) {
	items, err := analysis.Charts()
	if err != nil {
		return nil, fmt.Errorf("failed to build charts: %w", err)
	}

	renderer := charts.NewRenderer(r.logger, r.cfg.Output)
	artifacts := make([]report.Artifact, 0, len(items))
	var errs []error
	for _, c := range items {
		path := r.paths.ChartPath(c.Filename())
		err := c.Render(renderer, path)
		artifacts = append(artifacts, report.Artifact{Name: filepath.Base(path), Err: err})
		if err != nil {
			r.logger.ErrorContext(ctx, "Chart failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		r.metrics.ChartsWritten.Add(ctx, 1, r.reportAttr())
	}
	return artifacts, errors.Join(errs...)
}

func (r *Runner) recordDropped(ctx context.Context, cr pipeline.CleanReport) {
	for reason, n := range map[string]int{
		"unparsable": cr.Unparsable,
		"missing":    cr.Missing,
		"trimmed":    cr.Trimmed,
	} {
		if n == 0 {
			continue
		}
		r.metrics.RecordsDropped.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String("report", r.job.Name),
			attribute.String("reason", reason),
		))
	}
}

func (r *Runner) reportAttr() metric.AddOption {
	return metric.WithAttributes(attribute.String("report", r.job.Name))
}

// Close writes the metrics file and shuts telemetry down
func (r *Runner) Close(ctx context.Context) error {
	var errs []error
	if err := r.otel.WriteMetrics(r.paths.MetricsFile); err != nil {
		r.logger.ErrorContext(ctx, "Failed to write metrics", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.otel.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
