package operations

import (
	"context"
	"log/slog"
	"time"

	apperrors "etlcli/internal/errors"
)

// Observer is notified about the lifecycle of a run. Start hooks may return a
// derived context that is passed to the matching completion hook.
type Observer interface {
	RunStarted(ctx context.Context, runID string) context.Context
	PhaseStarted(ctx context.Context, step string) context.Context
	PhaseCompleted(ctx context.Context, step string, rows int, d time.Duration)
	PhaseFailed(ctx context.Context, step string, err error, d time.Duration)
	IssuesFound(ctx context.Context, step string, issues apperrors.Issues)
	RunFinished(ctx context.Context, report *RunReport)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) RunStarted(ctx context.Context, _ string) context.Context { return ctx }
func (NopObserver) PhaseStarted(ctx context.Context, _ string) context.Context { return ctx }
func (NopObserver) PhaseCompleted(context.Context, string, int, time.Duration) {}
func (NopObserver) PhaseFailed(context.Context, string, error, time.Duration) {}
func (NopObserver) IssuesFound(context.Context, string, apperrors.Issues) {}
func (NopObserver) RunFinished(context.Context, *RunReport) {}

// MultiObserver fans events out in order.
type MultiObserver []Observer

// NewMultiObserver drops nil observers
func NewMultiObserver(observers ...Observer) MultiObserver {
	out := make(MultiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m MultiObserver) RunStarted(ctx context.Context, runID string) context.Context {
	for _, o := range m {
		ctx = o.RunStarted(ctx, runID)
	}
	return ctx
}

func (m MultiObserver) PhaseStarted(ctx context.Context, step string) context.Context {
	for _, o := range m {
		ctx = o.PhaseStarted(ctx, step)
	}
	return ctx
}

func (m MultiObserver) PhaseCompleted(ctx context.Context, step string, rows int, d time.Duration) {
	for _, o := range m {
		o.PhaseCompleted(ctx, step, rows, d)
	}
}

func (m MultiObserver) PhaseFailed(ctx context.Context, step string, err error, d time.Duration) {
	for _, o := range m {
		o.PhaseFailed(ctx, step, err, d)
	}
}

func (m MultiObserver) IssuesFound(ctx context.Context, step string, issues apperrors.Issues) {
	for _, o := range m {
		o.IssuesFound(ctx, step, issues)
	}
}

func (m MultiObserver) RunFinished(ctx context.Context, report *RunReport) {
	for _, o := range m {
		o.RunFinished(ctx, report)
	}
}

// SlogObserver writes run and phase events to a logger.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a logging observer. A nil logger uses slog.Default.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) RunStarted(ctx context.Context, runID string) context.Context {
	o.logger.InfoContext(ctx, "run_start", slog.String("run_id", runID))
	return ctx
}

func (o *SlogObserver) PhaseStarted(ctx context.Context, step string) context.Context {
	o.logger.InfoContext(ctx, "phase_start", slog.String("step", step))
	return ctx
}

func (o *SlogObserver) PhaseCompleted(ctx context.Context, step string, rows int, d time.Duration) {
	o.logger.InfoContext(ctx, "phase_complete",
		slog.String("step", step),
		slog.Int("rows", rows),
		slog.Duration("duration", d))
}

func (o *SlogObserver) PhaseFailed(ctx context.Context, step string, err error, d time.Duration) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	o.logger.ErrorContext(ctx, "phase_error",
		slog.String("step", step),
		slog.String("error", errorMsg),
		slog.Duration("duration", d))
}

// IssuesFound logs a per-phase tally; the issues themselves are logged where
// they are found.
func (o *SlogObserver) IssuesFound(ctx context.Context, step string, issues apperrors.Issues) {
	if len(issues) == 0 {
		return
	}
	o.logger.DebugContext(ctx, "phase_issues",
		slog.String("step", step),
		slog.Int("issues", len(issues)))
}

func (o *SlogObserver) RunFinished(ctx context.Context, report *RunReport) {
	attrs := []any{
		slog.String("state", string(report.State)),
		slog.Int("input_rows", report.InputRows),
		slog.Int("output_rows", report.OutputRows),
		slog.Int("issues", len(report.Issues)),
		slog.Duration("duration", report.Duration),
	}
	if report.Error != "" {
		o.logger.ErrorContext(ctx, "run_failed", append(attrs, slog.String("error", report.Error))...)
		return
	}
	o.logger.InfoContext(ctx, "run_complete", attrs...)
}
