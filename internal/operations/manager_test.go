package operations

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "etlcli/internal/errors"
	"etlcli/internal/files"
	"etlcli/internal/infrastructure"
	"etlcli/internal/shared/testutil"
	"etlcli/internal/transform"
	"etlcli/pkg/contracts/domain"
)

var reference = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// fakeStep runs fn, or does nothing when fn is nil.
type fakeStep struct {
	BaseStage
	fn    func(ctx context.Context, data *RunData) error
	calls int
}

func newFakeStep(id string, produces State, fn func(context.Context, *RunData) error) *fakeStep {
	return &fakeStep{BaseStage: NewBaseStage(id, id, produces), fn: fn}
}

func (s *fakeStep) Execute(ctx context.Context, data *RunData) error {
	s.calls++
	if s.fn == nil {
		return nil
	}
	return s.fn(ctx, data)
}

func happySteps() []*fakeStep {
	return []*fakeStep{
		newFakeStep(StepExtract, StateExtracted, func(_ context.Context, d *RunData) error {
			d.Raw = testutil.NewTable(testutil.TransactionColumns(), []any{"T1", "2024-01-01", "TI", "Hardware", 10.0, "approved"})
			return nil
		}),
		newFakeStep(StepValidate, StateValidated, func(_ context.Context, d *RunData) error {
			d.Issues = append(d.Issues, apperrors.NewNullWarning("Category", 1))
			return nil
		}),
		newFakeStep(StepTransform, StateTransformed, func(_ context.Context, d *RunData) error {
			d.Processed = d.Raw.Clone()
			return nil
		}),
		newFakeStep(StepLoad, StateLoaded, nil),
	}
}

func asSteps(fs []*fakeStep) []Step {
	out := make([]Step, len(fs))
	for i, s := range fs {
		out[i] = s
	}
	return out
}

// recordingObserver keeps the events it receives.
type recordingObserver struct {
	NopObserver
	events []string
	report *RunReport
}

func (o *recordingObserver) RunStarted(ctx context.Context, runID string) context.Context {
	o.events = append(o.events, "run_start")
	return ctx
}

func (o *recordingObserver) PhaseStarted(ctx context.Context, step string) context.Context {
	o.events = append(o.events, "start:"+step)
	return ctx
}

func (o *recordingObserver) PhaseCompleted(_ context.Context, step string, _ int, _ time.Duration) {
	o.events = append(o.events, "done:"+step)
}

func (o *recordingObserver) PhaseFailed(_ context.Context, step string, _ error, _ time.Duration) {
	o.events = append(o.events, "fail:"+step)
}

func (o *recordingObserver) IssuesFound(_ context.Context, step string, issues apperrors.Issues) {
	o.events = append(o.events, "issues:"+step)
}

func (o *recordingObserver) RunFinished(_ context.Context, r *RunReport) {
	o.events = append(o.events, "run_end")
	o.report = r
}

func TestPipeline_Run(t *testing.T) {
	logger, h := testutil.NewTestLogger(t)
	obs := &recordingObserver{}
	steps := happySteps()
	p := NewPipeline(logger, obs, transform.FixedClock(reference), asSteps(steps)...)

	ctx := infrastructure.WithRunID(context.Background(), "run-42")
	report, err := p.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, "run-42", report.RunID)
	assert.Equal(t, StateDone, report.State)
	assert.Equal(t, reference, report.ReferenceTime)
	assert.Equal(t, 1, report.InputRows)
	assert.Equal(t, 1, report.OutputRows)
	assert.Len(t, report.Issues, 1)
	require.Len(t, report.Steps, 4)
	for _, s := range report.Steps {
		assert.Equal(t, StepStatusCompleted, s.CurrentStatus())
	}
	assert.Equal(t, []string{
		"run_start",
		"start:extract", "done:extract",
		"start:validate", "issues:validate", "done:validate",
		"start:transform", "done:transform",
		"start:load", "done:load",
		"run_end",
	}, obs.events)
	assert.Same(t, report, obs.report)
	assert.Equal(t, []string{StepExtract, StepValidate, StepTransform, StepLoad}, p.Steps())
	testutil.AssertLogged(t, h, slog.LevelInfo, "Pipeline started")
}

func TestPipeline_GeneratesRunIDAndFreshState(t *testing.T) {
	p := NewPipeline(nil, nil, nil, asSteps(happySteps())...)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, first.RunID)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Len(t, second.Steps, 4, "no state carries over between runs")
	assert.Len(t, second.Issues, 1)
}

func TestPipeline_StepFailureHalts(t *testing.T) {
	steps := happySteps()
	steps[2].fn = func(context.Context, *RunData) error { return errors.New("chain broke") }
	obs := &recordingObserver{}
	p := NewPipeline(nil, obs, transform.FixedClock(reference), asSteps(steps)...)

	report, err := p.Run(context.Background())

	require.Error(t, err)
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, ErrorTypeExecution, opErr.Type)
	assert.Equal(t, StepTransform, opErr.Step)
	assert.Equal(t, StateFailed, report.State)
	assert.Contains(t, report.Error, "chain broke")
	assert.Equal(t, 0, steps[3].calls, "load never runs after a failure")
	assert.Len(t, report.Steps, 3)
	assert.Equal(t, StepStatusFailed, report.Steps[2].CurrentStatus())
	assert.Contains(t, obs.events, "fail:transform")
	assert.Equal(t, "run_end", obs.events[len(obs.events)-1])
}

func TestPipeline_SchemaFailure(t *testing.T) {
	steps := happySteps()
	steps[1].fn = func(context.Context, *RunData) error { return apperrors.NewSchemaError([]string{"Amount"}) }
	p := NewPipeline(nil, nil, nil, asSteps(steps)...)

	report, err := p.Run(context.Background())

	assert.Equal(t, ErrorTypeSchema, GetErrorType(err))
	assert.ErrorIs(t, err, apperrors.ErrSchema)
	assert.Equal(t, StateFailed, report.State)
	assert.Equal(t, 0, steps[2].calls)
}

func TestPipeline_OutOfOrderSteps(t *testing.T) {
	steps := happySteps()
	p := NewPipeline(nil, nil, nil, steps[0], steps[2], steps[1], steps[3])

	report, err := p.Run(context.Background())

	assert.Equal(t, ErrorTypeInvalidState, GetErrorType(err))
	assert.Equal(t, StateFailed, report.State)
	assert.Equal(t, 0, steps[2].calls, "a step out of order never executes")
}

func TestPipeline_MissingLoadNeverReachesDone(t *testing.T) {
	steps := happySteps()
	p := NewPipeline(nil, nil, nil, steps[0], steps[1], steps[2])

	report, err := p.Run(context.Background())

	assert.Equal(t, ErrorTypeInvalidState, GetErrorType(err))
	assert.Equal(t, StateFailed, report.State)
}

func TestPipeline_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	steps := happySteps()
	steps[0].fn = func(_ context.Context, d *RunData) error {
		d.Raw = domain.NewTable()
		cancel()
		return nil
	}
	p := NewPipeline(nil, nil, nil, asSteps(steps)...)

	report, err := p.Run(ctx)

	assert.Equal(t, ErrorTypeCancellation, GetErrorType(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, report.State)
	assert.Equal(t, 0, steps[1].calls)
}

func TestSlogObserver(t *testing.T) {
	logger, h := testutil.NewTestLogger(t)
	p := NewPipeline(logger, NewSlogObserver(logger), nil, asSteps(happySteps())...)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, h.Find("phase_start"), 4)
	assert.Len(t, h.Find("phase_complete"), 4)
	testutil.AssertLogged(t, h, slog.LevelDebug, "phase_issues")
	testutil.AssertLogged(t, h, slog.LevelInfo, "run_complete")
	testutil.AssertNoErrors(t, h)

	h.Reset()
	steps := happySteps()
	steps[0].fn = func(context.Context, *RunData) error { return errors.New("no file") }
	_, err = NewPipeline(logger, NewSlogObserver(logger), nil, asSteps(steps)...).Run(context.Background())
	require.Error(t, err)
	testutil.AssertLogged(t, h, slog.LevelError, "phase_error")
	testutil.AssertLogged(t, h, slog.LevelError, "run_failed")
}

func TestMultiObserver(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	p := NewPipeline(nil, NewMultiObserver(a, nil, b), nil, asSteps(happySteps())...)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.events, b.events)
	assert.NotEmpty(t, a.events)
}

func TestOTelObserver_Metrics(t *testing.T) {
	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:   infrastructure.ServiceName,
		EnableMetrics: true,
		TraceExporter: "none",
	}, slog.New(testutil.NewCaptureHandler(t)))
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	obs, err := NewOTelObserver(providers)
	require.NoError(t, err)
	steps := happySteps()
	steps[3].fn = func(context.Context, *RunData) error { return errors.New("sink down") }

	_, err = NewPipeline(nil, obs, nil, asSteps(steps)...).Run(context.Background())
	require.Error(t, err)

	families, err := providers.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"etl_runs_total", "etl_phase_errors_total", "etl_rows_total", "etl_issues_total", "etl_phase_duration_seconds"} {
		assert.Contains(t, joined, want)
	}
}

// failingSink stages nothing and fails.
type failingSink struct{}

func (failingSink) Name() string { return "broken" }

func (failingSink) Stage(context.Context, *domain.Result) (files.Staged, error) {
	return nil, errors.New("sink unavailable")
}

// memorySink records what happens to its staged output.
type memorySink struct {
	name      string
	staged    *memoryStaged
	stageErr  error
	commitErr error
}

type memoryStaged struct {
	committed, rolledBack bool
	commitErr             error
}

func (m *memoryStaged) Commit() error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}

func (m *memoryStaged) Rollback() error {
	if !m.committed {
		m.rolledBack = true
	}
	return nil
}

func (s *memorySink) Name() string { return s.name }

func (s *memorySink) Stage(context.Context, *domain.Result) (files.Staged, error) {
	if s.stageErr != nil {
		return nil, s.stageErr
	}
	s.staged = &memoryStaged{commitErr: s.commitErr}
	return s.staged, nil
}

func processedData() *RunData {
	tbl := testutil.NewTable([]domain.Column{
		{Name: "ID", Type: domain.TypeText},
		{Name: "Date", Type: domain.TypeDate},
		{Name: "Department", Type: domain.TypeCategory},
		{Name: "Amount", Type: domain.TypeNumber},
		{Name: "Status", Type: domain.TypeCategory},
	},
		[]any{"T1", testutil.Date(2024, 3, 10), "TI", 100.0, "Approved"},
		[]any{"T2", testutil.Date(2024, 3, 9), "RH", 50.0, "Pending"},
	)
	return &RunData{RunID: "run", ReferenceTime: reference, Processed: tbl}
}

func loadSchema() domain.Schema {
	return domain.Schema{Columns: domain.DefaultColumnMap()}
}

func TestLoadStep_CommitsAllSinks(t *testing.T) {
	a, b := &memorySink{name: "a"}, &memorySink{name: "b"}
	logger, h := testutil.NewTestLogger(t)
	minTx := 5.0
	step := NewLoadStep(loadSchema(), map[string]domain.Threshold{
		domain.KPITotalTransactions: {Min: &minTx},
	}, logger, a, b)
	data := processedData()

	require.NoError(t, step.Execute(context.Background(), data))

	assert.True(t, a.staged.committed)
	assert.True(t, b.staged.committed)
	assert.Equal(t, []string{"a", "b"}, data.Outputs)
	require.NotNil(t, data.Result)
	assert.Equal(t, 2, data.Result.KPIs.TotalTransactions)
	require.Len(t, data.Result.Alerts, 1)
	assert.Equal(t, domain.AlertLow, data.Result.Alerts[0].Kind)
	testutil.AssertLogged(t, h, slog.LevelWarn, "KPI threshold crossed")
}

func TestLoadStep_StageFailureRollsBack(t *testing.T) {
	a := &memorySink{name: "a"}
	step := NewLoadStep(loadSchema(), nil, nil, a, failingSink{})
	data := processedData()

	err := step.Execute(context.Background(), data)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.True(t, a.staged.rolledBack)
	assert.False(t, a.staged.committed)
	assert.Empty(t, data.Outputs)
}

func TestLoadStep_RequiresProcessedTable(t *testing.T) {
	err := NewLoadStep(loadSchema(), nil, nil).Execute(context.Background(), &RunData{})
	assert.Error(t, err)
}

func TestBuildResult(t *testing.T) {
	data := processedData()
	res := BuildResult(loadSchema(), nil, "run", reference, data.Processed)

	assert.Equal(t, "run", res.RunID)
	assert.Same(t, data.Processed, res.Table)
	assert.Len(t, res.Groups, 2)
	assert.Len(t, res.Departments, 2)
	assert.NotEmpty(t, res.Executive)
	assert.Equal(t, 1, res.KPIs.TransactionsToday)
	assert.Equal(t, 2, res.Quality.TotalRecords)
	assert.Empty(t, res.Alerts)
}
