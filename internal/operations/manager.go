package operations

import (
	"context"
	"log/slog"
	"time"

	apperrors "etlcli/internal/errors"
	"etlcli/internal/infrastructure"
	"etlcli/internal/transform"
	"etlcli/pkg/contracts/domain"
)

// RunReport summarizes a run, successful or not.
type RunReport struct {
	RunID         string                      `json:"run_id"`
	ReferenceTime time.Time                   `json:"reference_time"`
	State         State                       `json:"state"`
	StartTime     time.Time                   `json:"start_time"`
	Duration      time.Duration               `json:"duration"`
	Steps         []*StepState                `json:"steps"`
	InputRows     int                         `json:"input_rows"`
	OutputRows    int                         `json:"output_rows"`
	Validation    transform.ValidationSummary `json:"validation"`
	Issues        apperrors.Issues            `json:"issues,omitempty"`
	Groups        []domain.DepartmentStats    `json:"department_stats,omitempty"`
	KPIs          domain.KPIs                 `json:"kpis"`
	Alerts        []domain.Alert              `json:"alerts,omitempty"`
	Outputs       []string                    `json:"outputs,omitempty"`
	Error         string                      `json:"error,omitempty"`
}

// Pipeline runs its steps strictly in sequence through the run state machine.
// It keeps no state between runs.
type Pipeline struct {
	steps    []Step
	observer Observer
	logger   *slog.Logger
	clock    transform.Clock
}

// NewPipeline creates a pipeline. A nil observer ignores events, a nil logger
// uses slog.Default and a nil clock reads the wall clock.
func NewPipeline(logger *slog.Logger, observer Observer, clock transform.Clock, steps ...Step) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	if clock == nil {
		clock = transform.SystemClock
	}
	return &Pipeline{steps: steps, observer: observer, logger: logger, clock: clock}
}

// Steps returns the step IDs in execution order
func (p *Pipeline) Steps() []string {
	ids := make([]string, len(p.steps))
	for i, s := range p.steps {
		ids[i] = s.ID()
	}
	return ids
}

// Run executes every step from a fresh Idle state. On failure the run ends in
// Failed and the *OperationError is returned with the partial report.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	runID := infrastructure.GetRunID(ctx)
	if runID == "" {
		runID = infrastructure.GenerateRunID()
		ctx = infrastructure.WithRunID(ctx, runID)
	}

	state := NewRunState(runID)
	data := &RunData{RunID: runID, ReferenceTime: p.clock()}
	ctx = p.observer.RunStarted(ctx, runID)

	p.logger.InfoContext(ctx, "Pipeline started",
		slog.Any("steps", p.Steps()),
		slog.Time("reference_time", data.ReferenceTime))

	for _, step := range p.steps {
		if err := p.runStep(ctx, state, step, data); err != nil {
			report := p.report(state, data)
			p.observer.RunFinished(ctx, report)
			return report, err
		}
	}

	if err := state.Advance(StateDone); err != nil {
		_ = state.Fail(err)
		report := p.report(state, data)
		p.observer.RunFinished(ctx, report)
		return report, err
	}

	report := p.report(state, data)
	p.observer.RunFinished(ctx, report)
	return report, nil
}

func (p *Pipeline) runStep(ctx context.Context, state *RunState, step Step, data *RunData) error {
	stepState := NewStepState(step.ID(), step.Name())
	state.AddStep(stepState)

	if want, ok := state.Current().Next(); !ok || want != step.Produces() {
		err := NewInvalidStateError(state.Current(), step.Produces())
		err.Step = step.ID()
		stepState.Fail(err)
		_ = state.Fail(err)
		return err
	}

	stepCtx := p.observer.PhaseStarted(ctx, step.ID())
	stepState.Start()
	before := len(data.Issues)

	err := ctx.Err()
	if err == nil {
		err = step.Execute(stepCtx, data)
	}
	if issues := data.Issues[before:]; len(issues) > 0 {
		p.observer.IssuesFound(stepCtx, step.ID(), issues)
	}
	if err != nil {
		opErr := WrapError(err, step.ID())
		stepState.Fail(opErr)
		_ = state.Fail(opErr)
		p.observer.PhaseFailed(stepCtx, step.ID(), opErr, stepState.Duration())
		return opErr
	}

	if err := state.Advance(step.Produces()); err != nil {
		stepState.Fail(err)
		_ = state.Fail(err)
		p.observer.PhaseFailed(stepCtx, step.ID(), err, stepState.Duration())
		return err
	}
	stepState.Complete(data.Rows())
	p.observer.PhaseCompleted(stepCtx, step.ID(), data.Rows(), stepState.Duration())
	return nil
}

func (p *Pipeline) report(state *RunState, data *RunData) *RunReport {
	r := &RunReport{
		RunID:         state.ID,
		ReferenceTime: data.ReferenceTime,
		State:         state.Current(),
		StartTime:     state.StartTime,
		Duration:      state.Duration(),
		Steps:         state.Steps,
		InputRows:     data.Raw.Len(),
		Validation:    data.Validation,
		Issues:        data.Issues,
		Outputs:       data.Outputs,
	}
	if data.Processed != nil {
		r.OutputRows = data.Processed.Len()
	}
	if data.Result != nil {
		r.Groups = data.Result.Groups
		r.KPIs = data.Result.KPIs
		r.Alerts = data.Result.Alerts
	}
	if state.Error != nil {
		r.Error = state.Error.Error()
	}
	return r
}
