package app

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tabstat/internal/infrastructure"
)

// Stage names
const (
	StageLoad    = "load"
	StageClean   = "clean"
	StageAnalyze = "analyze"
	StageChart   = "chart"
	StageReport  = "report"
)

// StageStatus represents the current status of a stage
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
)

// StageState records how one stage of a run went
type StageState struct {
	Name      string
	Status    StageStatus
	StartTime time.Time
	Duration  time.Duration
	Error     error
}

// runStage executes fn inside a span, logs its start and outcome and
// records its duration.
func (r *Runner) runStage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	state := &StageState{Name: name, Status: StageStatusPending, StartTime: time.Now()}
	r.stages = append(r.stages, state)

	ctx, span := r.otel.Tracer.Start(ctx, "stage."+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("report", r.job.Name),
			attribute.String("stage", name),
			attribute.String("run_id", infrastructure.GetRunID(ctx)),
		),
	)
	defer span.End()

	r.logger.InfoContext(ctx, "stage_start", slog.String("stage", name))

	err := fn(ctx)
	state.Duration = time.Since(state.StartTime)
	r.metrics.RecordStage(ctx, r.job.Name, name, state.Duration, err)

	if err != nil {
		state.Status = StageStatusFailed
		state.Error = err
		infrastructure.RecordError(ctx, err)
		r.logger.ErrorContext(ctx, "stage_error",
			slog.String("stage", name),
			slog.Duration("duration", state.Duration),
			slog.String("error", err.Error()))
		return err
	}

	state.Status = StageStatusCompleted
	r.logger.InfoContext(ctx, "stage_complete",
		slog.String("stage", name),
		slog.Duration("duration", state.Duration))
	return nil
}

// skipStage records a stage that did not run
func (r *Runner) skipStage(ctx context.Context, name, reason string) {
	r.stages = append(r.stages, &StageState{Name: name, Status: StageStatusSkipped})
	r.logger.InfoContext(ctx, "stage_skipped",
		slog.String("stage", name),
		slog.String("reason", reason))
}

// Stages returns the states of the stages run so far
func (r *Runner) Stages() []StageState {
	out := make([]StageState, len(r.stages))
	for i, s := range r.stages {
		out[i] = *s
	}
	return out
}
