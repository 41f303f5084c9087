package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	apperrors "etlcli/internal/errors"
	"etlcli/internal/infrastructure"
)

// OTelObserver records a span per run and per phase, and the pipeline metrics.
type OTelObserver struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
	runtime *infrastructure.RuntimeMetrics
}

// NewOTelObserver creates the observer from initialized providers
func NewOTelObserver(providers *infrastructure.OTelProviders) (*OTelObserver, error) {
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	runtime, err := infrastructure.NewRuntimeMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}
	return &OTelObserver{
		tracer:  providers.Tracer,
		metrics: metrics,
		runtime: runtime,
	}, nil
}

func (o *OTelObserver) RunStarted(ctx context.Context, runID string) context.Context {
	ctx, _ = o.tracer.Start(ctx, "etl.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("run.id", runID)),
	)
	return ctx
}

func (o *OTelObserver) PhaseStarted(ctx context.Context, step string) context.Context {
	ctx, _ = o.tracer.Start(ctx, "etl.phase."+step,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("phase", step)),
	)
	return ctx
}

func (o *OTelObserver) PhaseCompleted(ctx context.Context, step string, rows int, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("phase", step))
	o.metrics.PhaseDuration.Record(ctx, d.Seconds(), attrs)
	o.metrics.RowsProcessed.Add(ctx, int64(rows), attrs)

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int("phase.rows", rows),
		attribute.Float64("phase.duration_seconds", d.Seconds()),
	)
	span.SetStatus(codes.Ok, "")
	span.End()
}

func (o *OTelObserver) PhaseFailed(ctx context.Context, step string, err error, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("phase", step),
		attribute.String("error_type", string(GetErrorType(err))),
	)
	o.metrics.PhaseDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("phase", step)))
	o.metrics.PhaseErrors.Add(ctx, 1, attrs)

	infrastructure.RecordError(ctx, err)
	trace.SpanFromContext(ctx).End()
}

func (o *OTelObserver) IssuesFound(ctx context.Context, step string, issues apperrors.Issues) {
	for _, is := range issues {
		o.metrics.IssuesTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("phase", step),
			attribute.String("kind", string(is.Kind)),
		))
		infrastructure.AddSpanEvent(ctx, "issue",
			attribute.String("kind", string(is.Kind)),
			attribute.String("column", is.Column),
			attribute.Int("count", is.Count),
		)
	}
}

func (o *OTelObserver) RunFinished(ctx context.Context, report *RunReport) {
	status := "success"
	if report.State == StateFailed {
		status = "failure"
	}
	o.metrics.RunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	o.metrics.RunDuration.Record(ctx, report.Duration.Seconds(), metric.WithAttributes(attribute.String("status", status)))
	o.runtime.Record(ctx)

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("run.state", string(report.State)),
		attribute.Int("run.input_rows", report.InputRows),
		attribute.Int("run.output_rows", report.OutputRows),
		attribute.Int("run.issues", len(report.Issues)),
	)
	if status == "success" {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, report.Error)
	}
	span.End()
}
