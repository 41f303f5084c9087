package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"etlcli/internal/config"
	"etlcli/internal/files"
	"etlcli/pkg/contracts/domain"
)

var (
	departmentHeader = []string{
		"Department", "Count", "Sum", "Mean", "Min", "Max",
		"ID_Count", "Outliers", "Share_Pct", "Rank_By_Sum",
	}
	monthlyHeader = []string{
		"Year", "Month", "Count", "Sum", "Mean",
		"Departments", "Growth_Pct", "Moving_Avg_3",
	}
	executiveHeader = []string{"Metric", "Value"}
	alertHeader     = []string{"KPI", "Value", "Threshold", "Alert"}
)

// WriteResult lays out the processed workbook. KPI_Alerts is only
// present when the run raised alerts.
func WriteResult(w *Writer, res *domain.Result) error {
	table := res.Table
	if table == nil {
		table = domain.NewTable()
	}
	if err := w.WriteTable(config.SheetProcessedData, table); err != nil {
		return fmt.Errorf("%s: %w", config.SheetProcessedData, err)
	}

	exec := make([][]any, len(res.Executive))
	for i, item := range res.Executive {
		exec[i] = []any{item.Metric, item.Value}
	}
	if err := w.WriteRows(config.SheetExecutiveSummary, executiveHeader, exec); err != nil {
		return fmt.Errorf("%s: %w", config.SheetExecutiveSummary, err)
	}

	depts := make([][]any, len(res.Departments))
	for i, d := range res.Departments {
		depts[i] = []any{d.Department, d.Count, d.Sum, d.Mean, d.Min, d.Max,
			d.IDCount, d.Outliers, d.SharePct, d.RankBySum}
	}
	if err := w.WriteRows(config.SheetDepartmentSummary, departmentHeader, depts); err != nil {
		return fmt.Errorf("%s: %w", config.SheetDepartmentSummary, err)
	}

	months := make([][]any, len(res.Monthly))
	for i, m := range res.Monthly {
		months[i] = []any{m.Year, m.Month, m.Count, m.Sum, m.Mean,
			m.Departments, optional(m.GrowthPct), optional(m.MovingAverage3)}
	}
	if err := w.WriteRows(config.SheetMonthlySummary, monthlyHeader, months); err != nil {
		return fmt.Errorf("%s: %w", config.SheetMonthlySummary, err)
	}

	if len(res.Alerts) > 0 {
		alerts := make([][]any, len(res.Alerts))
		for i, a := range res.Alerts {
			alerts[i] = []any{a.KPI, a.Value, a.Threshold, string(a.Kind)}
		}
		if err := w.WriteRows(config.SheetKPIAlerts, alertHeader, alerts); err != nil {
			return fmt.Errorf("%s: %w", config.SheetKPIAlerts, err)
		}
	}
	return nil
}

func optional(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// WorkbookSink writes the processed workbook.
type WorkbookSink struct {
	path   string
	logger *slog.Logger
}

// NewWorkbookSink creates a sink publishing to path.
func NewWorkbookSink(path string, logger *slog.Logger) *WorkbookSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookSink{path: path, logger: logger}
}

// Name identifies the sink in logs.
func (s *WorkbookSink) Name() string { return "workbook" }

// Stage builds the workbook into a temporary file beside the destination.
func (s *WorkbookSink) Stage(ctx context.Context, res *domain.Result) (files.Staged, error) {
	w, err := NewWriter()
	if err != nil {
		return nil, err
	}
	defer w.Close()

	if err := WriteResult(w, res); err != nil {
		return nil, err
	}

	out, staged, err := files.CreateStaged(s.path)
	if err != nil {
		return nil, err
	}
	if err := w.Write(out); err != nil {
		out.Close()
		staged.Rollback()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := out.Close(); err != nil {
		staged.Rollback()
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}

	s.logger.DebugContext(ctx, "Workbook staged",
		slog.String("path", s.path),
		slog.Int("rows", res.Table.Len()))
	return staged, nil
}
