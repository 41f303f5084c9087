package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "etlcli/internal/errors"
	"etlcli/internal/files"
	"etlcli/internal/transform"
	"etlcli/pkg/contracts/domain"
)

// Step identifiers
const (
	StepExtract   = "extract"
	StepValidate  = "validate"
	StepTransform = "transform"
	StepLoad      = "load"
)

// RunData carries the phase outputs of one run. Each step reads what the
// previous one stored.
type RunData struct {
	RunID         string
	ReferenceTime time.Time

	Raw        *domain.Table
	Validation transform.ValidationSummary
	Processed  *domain.Table
	Result     *domain.Result
	Outputs    []string

	Issues apperrors.Issues
}

// Rows returns the row count of the latest table.
func (d *RunData) Rows() int {
	if d.Processed != nil {
		return d.Processed.Len()
	}
	return d.Raw.Len()
}

// TableReader loads the input table.
type TableReader interface {
	Read(ctx context.Context, path, sheet string) (*domain.Table, error)
}

// Sink stages one output of the Load phase. Nothing is visible until the
// returned Staged is committed.
type Sink interface {
	Name() string
	Stage(ctx context.Context, res *domain.Result) (files.Staged, error)
}

// ExtractStep reads the input table.
type ExtractStep struct {
	BaseStage
	reader TableReader
	path   string
	sheet  string
}

// NewExtractStep creates the Extract phase
func NewExtractStep(reader TableReader, path, sheet string) *ExtractStep {
	return &ExtractStep{
		BaseStage: NewBaseStage(StepExtract, "Extract", StateExtracted),
		reader:    reader,
		path:      path,
		sheet:     sheet,
	}
}

// Execute implements Step
func (s *ExtractStep) Execute(ctx context.Context, data *RunData) error {
	t, err := s.reader.Read(ctx, s.path, s.sheet)
	if err != nil {
		return err
	}
	data.Raw = t
	return nil
}

// ValidateStep checks the raw table against the schema.
type ValidateStep struct {
	BaseStage
	validator *transform.Validator
}

// NewValidateStep creates the Validate phase
func NewValidateStep(validator *transform.Validator) *ValidateStep {
	return &ValidateStep{
		BaseStage: NewBaseStage(StepValidate, "Validate", StateValidated),
		validator: validator,
	}
}

// Execute implements Step
func (s *ValidateStep) Execute(ctx context.Context, data *RunData) error {
	if data.Raw == nil {
		return fmt.Errorf("no extracted table")
	}
	summary, err := s.validator.Validate(ctx, data.Raw)
	if err != nil {
		return err
	}
	data.Validation = summary
	data.Issues = append(data.Issues, summary.Issues...)
	return nil
}

// TransformStep runs the transform chain over the validated table.
type TransformStep struct {
	BaseStage
	chain *transform.Chain
}

// NewTransformStep creates the Transform phase
func NewTransformStep(chain *transform.Chain) *TransformStep {
	return &TransformStep{
		BaseStage: NewBaseStage(StepTransform, "Transform", StateTransformed),
		chain:     chain,
	}
}

// Execute implements Step
func (s *TransformStep) Execute(ctx context.Context, data *RunData) error {
	if data.Raw == nil {
		return fmt.Errorf("no validated table")
	}
	out, issues, err := s.chain.Run(ctx, data.Raw)
	data.Issues = append(data.Issues, issues...)
	if err != nil {
		return err
	}
	data.Processed = out
	return nil
}

// LoadStep derives the summaries of the processed table and publishes every
// sink output together.
type LoadStep struct {
	BaseStage
	schema     domain.Schema
	thresholds map[string]domain.Threshold
	sinks      []Sink
	logger     *slog.Logger
}

// NewLoadStep creates the Load phase
func NewLoadStep(schema domain.Schema, thresholds map[string]domain.Threshold, logger *slog.Logger, sinks ...Sink) *LoadStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadStep{
		BaseStage:  NewBaseStage(StepLoad, "Load", StateLoaded),
		schema:     schema,
		thresholds: thresholds,
		sinks:      sinks,
		logger:     logger,
	}
}

// Execute implements Step
func (s *LoadStep) Execute(ctx context.Context, data *RunData) error {
	if data.Processed == nil {
		return fmt.Errorf("no transformed table")
	}
	res := BuildResult(s.schema, s.thresholds, data.RunID, data.ReferenceTime, data.Processed)
	for _, a := range res.Alerts {
		s.logger.WarnContext(ctx, "KPI threshold crossed",
			slog.String("kpi", a.KPI),
			slog.Float64("value", a.Value),
			slog.Float64("threshold", a.Threshold),
			slog.String("kind", string(a.Kind)))
	}
	data.Result = res

	tx := files.NewTransaction(s.logger)
	for _, sink := range s.sinks {
		if err := ctx.Err(); err != nil {
			tx.Rollback()
			return err
		}
		staged, err := sink.Stage(ctx, res)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("%s: %w", sink.Name(), err)
		}
		tx.Add(staged)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	for _, sink := range s.sinks {
		data.Outputs = append(data.Outputs, sink.Name())
	}
	return nil
}

// BuildResult computes the summaries, quality report, KPIs and alerts of a
// processed table.
func BuildResult(schema domain.Schema, thresholds map[string]domain.Threshold, runID string, ref time.Time, t *domain.Table) *domain.Result {
	summarizer := transform.NewSummarizer(schema)
	kpis := transform.ComputeKPIs(schema, t, ref)
	return &domain.Result{
		RunID:         runID,
		ReferenceTime: ref,
		Table:         t,
		Groups:        transform.GroupStats(t, schema.Columns.Name(domain.RoleDepartment), schema.Columns.Name(domain.RoleAmount)),
		Departments:   summarizer.Departments(t),
		Monthly:       summarizer.Monthly(t),
		Executive:     summarizer.Executive(t),
		Quality:       transform.BuildQualityReport(runID, ref, t),
		KPIs:          kpis,
		Alerts:        transform.CheckThresholds(kpis, thresholds),
	}
}
