package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"etlcli/internal/config"
	"etlcli/internal/exporter"
	"etlcli/internal/generator"
	"etlcli/internal/infrastructure"
	"etlcli/internal/operations"
	"etlcli/internal/report"
	"etlcli/internal/sheets"
	"etlcli/internal/storage/sqlite"
	"etlcli/internal/transform"
	"etlcli/internal/validation"
	"etlcli/pkg/contracts/domain"
)

// shutdownTimeout bounds the final metrics push and provider shutdown.
const shutdownTimeout = 10 * time.Second

// Application wires configuration, logging and telemetry to the pipeline
// and the report and generator tools.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Telemetry *infrastructure.OTelProviders
	// Clock is the reference time of runs and reports.
	Clock transform.Clock

	files *validation.FileValidator
}

// New creates an application for cfg. A nil logger uses slog.Default.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	telemetry, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	return &Application{
		Config:    cfg,
		Logger:    logger,
		Telemetry: telemetry,
		Clock:     transform.SystemClock,
		files:     validation.NewFileValidator(logger),
	}, nil
}

// Sinks returns the Load phase outputs enabled by the configuration, in
// commit order.
func (a *Application) Sinks() []operations.Sink {
	sinks := []operations.Sink{
		sheets.NewWorkbookSink(a.Config.OutputFile, a.Logger),
		exporter.NewCSVSink(a.Config.CSVPath(), a.Logger),
	}
	if a.Config.QualityReport != "" {
		sinks = append(sinks, exporter.NewQualityReportSink(a.Config.QualityReport, a.Logger))
	}
	if a.Config.SQLite.Enabled() {
		sinks = append(sinks, sqlite.NewSink(a.Config.SQLite, a.Logger))
	}
	return sinks
}

// reader keeps the identifier column as text.
func (a *Application) reader(logger *slog.Logger) *sheets.Reader {
	return sheets.NewReader(logger).KeepText(a.Config.Schema().Columns.Name(domain.RoleID))
}

// Pipeline assembles the Extract, Validate, Transform and Load steps of one
// run. Clock is read once here, so the KPIs, the quality report and the
// derived day counts all share the same reference time.
func (a *Application) Pipeline() (*operations.Pipeline, error) {
	schema := a.Config.Schema()
	logger := infrastructure.WithComponent(a.Logger, "pipeline")
	clock := transform.FixedClock(a.Clock())

	otelObserver, err := operations.NewOTelObserver(a.Telemetry)
	if err != nil {
		return nil, err
	}
	observer := operations.NewMultiObserver(operations.NewSlogObserver(logger), otelObserver)

	return operations.NewPipeline(logger, observer, clock,
		operations.NewExtractStep(a.reader(logger), a.Config.InputFile, a.Config.SheetName),
		operations.NewValidateStep(transform.NewValidator(schema, logger)),
		operations.NewTransformStep(transform.DefaultChain(logger, schema, clock)),
		operations.NewLoadStep(schema, a.Config.KPIThresholds, logger, a.Sinks()...),
	), nil
}

// RunETL checks the input and output locations, then runs the pipeline once.
// The report is returned for failed runs too.
func (a *Application) RunETL(ctx context.Context) (*operations.RunReport, error) {
	if err := a.files.ValidateInput(a.Config.InputFile); err != nil {
		return nil, err
	}
	outputs := a.Config.OutputPaths()
	if a.Config.SQLite.Enabled() {
		outputs = append(outputs, a.Config.SQLite.DSN)
	}
	if err := a.files.ValidateOutputs(outputs...); err != nil {
		return nil, err
	}

	p, err := a.Pipeline()
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

// Report reads a workbook or CSV file, types it and writes the formatted
// report workbook to out. The VBA module is written to macro unless it is
// empty.
func (a *Application) Report(ctx context.Context, in, sheet, out, macro string) error {
	if err := a.files.ValidateInput(in); err != nil {
		return err
	}
	if err := a.files.ValidateOutputs(out, macro); err != nil {
		return err
	}

	t, err := a.reader(a.Logger).Read(ctx, in, sheet)
	if err != nil {
		return err
	}
	clock := transform.FixedClock(a.Clock())
	t, err = a.prepare(ctx, t, clock)
	if err != nil {
		return err
	}

	schema := a.Config.Schema()
	logger := infrastructure.WithComponent(a.Logger, "report")
	b := report.NewBuilder(schema, a.Config.KPIThresholds, clock, logger)
	if err := b.Save(ctx, out, t); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	a.Logger.InfoContext(ctx, "Report saved", slog.String("file_path", out))

	if macro == "" {
		return nil
	}
	if err := report.WriteMacro(macro, schema); err != nil {
		return fmt.Errorf("failed to write macro: %w", err)
	}
	a.Logger.InfoContext(ctx, "Macro saved", slog.String("file_path", macro))
	return nil
}

// prepare cleans, types and derives t so the report sees dates, amounts and
// outlier flags.
func (a *Application) prepare(ctx context.Context, t *domain.Table, clock transform.Clock) (*domain.Table, error) {
	schema := a.Config.Schema()
	chain := transform.NewChain(a.Logger,
		transform.NewCleaner(schema),
		transform.NewTypeCoercer(schema),
		transform.NewDerivedColumnBuilder(schema, clock),
	)
	out, _, err := chain.Run(ctx, t)
	return out, err
}

// Generate writes a synthetic dataset to out.
func (a *Application) Generate(ctx context.Context, opts generator.Options, out string) error {
	if err := a.files.ValidateOutputs(out); err != nil {
		return err
	}
	t := generator.Generate(opts)
	if err := generator.Save(out, t); err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	a.Logger.InfoContext(ctx, "Synthetic dataset saved",
		slog.String("file_path", out),
		slog.Int("rows", t.Len()),
		slog.Uint64("seed", opts.Seed))
	return nil
}

// Close pushes the final metrics and shuts telemetry down. Push failures are
// logged, not returned.
func (a *Application) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.Telemetry.Push(ctx); err != nil {
		infrastructure.WithError(a.Logger, err).WarnContext(ctx, "Failed to push metrics")
	}
	return a.Telemetry.Shutdown(ctx)
}
