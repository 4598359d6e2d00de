package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"bankscli/internal/infrastructure"
)

const (
	TracerName = "bankscli.operations"
)

// RunTracer provides OpenTelemetry instrumentation for pipeline runs
type RunTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewRunTracer creates a run tracer. Nil providers give a no-op tracer
// without metrics.
func NewRunTracer(providers *infrastructure.OTelProviders) (*RunTracer, error) {
	if providers == nil {
		return &RunTracer{tracer: otel.Tracer(TracerName)}, nil
	}

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	return &RunTracer{
		tracer:  providers.Tracer,
		metrics: metrics,
	}, nil
}

// StartRun creates the span covering the whole run
func (t *RunTracer) StartRun(ctx context.Context, runID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("run.id", runID)),
	)
}

// EndRun records the run outcome and ends the span
func (t *RunTracer) EndRun(ctx context.Context, span trace.Span, report *RunReport, err error) {
	defer span.End()

	span.SetAttributes(
		attribute.String("run.status", string(report.Status)),
		attribute.Int("run.rows_extracted", report.RowsExtracted),
		attribute.Int("run.rows_stored", report.RowsStored),
	)

	if t.metrics != nil {
		t.metrics.RunsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("status", string(report.Status)),
		))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "run completed")
}

// StartStep creates a span for one step
func (t *RunTracer) StartStep(ctx context.Context, runID, stepID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", stepID),
		),
	)
}

// EndStep records the step outcome and ends the span
func (t *RunTracer) EndStep(ctx context.Context, span trace.Span, stepID string, duration time.Duration, rows int, err error) {
	defer span.End()

	span.SetAttributes(
		attribute.Float64("step.duration_seconds", duration.Seconds()),
		attribute.Int("step.rows", rows),
	)
	t.metrics.RecordStep(ctx, stepID, duration, rows, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		return
	}
	span.SetStatus(codes.Ok, "step completed")
}
