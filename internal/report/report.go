package report

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"etlcli/internal/files"
	"etlcli/internal/sheets"
	"etlcli/internal/transform"
	"etlcli/pkg/contracts/domain"
)

// Sheet names of the report workbook.
const (
	SheetDashboard = "Dashboard"
	SheetData      = "Data"
	SheetSummary   = "Summary"
	SheetCharts    = "Charts"
)

const (
	labelFill   = "E7E6E6"
	moneyFormat = `"R$" #,##0.00`
	chartCell   = "D2"
)

// Builder lays out report workbooks for one schema.
type Builder struct {
	schema     domain.Schema
	thresholds map[string]domain.Threshold
	clock      transform.Clock
	logger     *slog.Logger
}

// NewBuilder creates a builder. thresholds drive the alert block of the
// dashboard; a nil clock reads the wall clock.
func NewBuilder(schema domain.Schema, thresholds map[string]domain.Threshold, clock transform.Clock, logger *slog.Logger) *Builder {
	if clock == nil {
		clock = transform.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{schema: schema, thresholds: thresholds, clock: clock, logger: logger}
}

// Build writes every report sheet for t into a new workbook. The caller
// closes the returned writer.
func (b *Builder) Build(ctx context.Context, t *domain.Table) (*sheets.Writer, error) {
	w, err := sheets.NewWriter()
	if err != nil {
		return nil, err
	}

	kpis := transform.ComputeKPIs(b.schema, t, b.clock())
	alerts := transform.CheckThresholds(kpis, b.thresholds)
	for _, a := range alerts {
		b.logger.WarnContext(ctx, "KPI threshold crossed",
			slog.String("kpi", a.KPI),
			slog.Float64("value", a.Value),
			slog.Float64("threshold", a.Threshold),
			slog.String("kind", string(a.Kind)))
	}

	stats := transform.GroupStats(t,
		b.schema.Columns.Name(domain.RoleDepartment),
		b.schema.Columns.Name(domain.RoleAmount))

	steps := []struct {
		name string
		fn   func() error
	}{
		{SheetDashboard, func() error { return b.dashboard(w, kpis, alerts) }},
		{SheetData, func() error { return w.WriteTable(SheetData, t) }},
		{SheetSummary, func() error { return b.summary(w, stats) }},
		{SheetCharts, func() error { return b.charts(w, stats) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			w.Close()
			return nil, fmt.Errorf("%s sheet: %w", s.name, err)
		}
	}
	w.File().SetActiveSheet(0)

	b.logger.InfoContext(ctx, "Report workbook built",
		slog.Int("rows", t.Len()),
		slog.Int("departments", len(stats)),
		slog.Int("alerts", len(alerts)))
	return w, nil
}

// Save builds the report and publishes it at path.
func (b *Builder) Save(ctx context.Context, path string, t *domain.Table) error {
	w, err := b.Build(ctx, t)
	if err != nil {
		return err
	}
	defer w.Close()

	out, staged, err := files.CreateStaged(path)
	if err != nil {
		return err
	}
	if err := w.Write(out); err != nil {
		out.Close()
		staged.Rollback()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := out.Close(); err != nil {
		staged.Rollback()
		return err
	}
	return staged.Commit()
}

type tile struct {
	label string
	value string
}

func (b *Builder) dashboard(w *sheets.Writer, k domain.KPIs, alerts []domain.Alert) error {
	f := w.File()
	if err := w.AddSheet(SheetDashboard); err != nil {
		return err
	}

	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 20, Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{sheets.HeaderFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	label, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 12, Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{labelFill}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	value, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 14, Bold: true, Color: sheets.HeaderFill},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	if err := f.SetCellValue(SheetDashboard, "A1", "FINANCIAL DASHBOARD"); err != nil {
		return err
	}
	if err := f.MergeCell(SheetDashboard, "A1", "H1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetDashboard, "A1", "H1", title); err != nil {
		return err
	}

	tiles := []tile{
		{"Total Transactions", strconv.Itoa(k.TotalTransactions)},
		{"Total Amount", transform.FormatMoney(k.TotalAmount)},
		{"Mean Amount", transform.FormatMoney(k.MeanAmount)},
		{"Departments", strconv.Itoa(k.ActiveDepartments)},
	}
	for i, t := range tiles {
		first, _ := excelize.ColumnNumberToName(i*2 + 1)
		second, _ := excelize.ColumnNumberToName(i*2 + 2)
		if err := f.SetCellValue(SheetDashboard, first+"3", t.label); err != nil {
			return err
		}
		if err := f.SetCellValue(SheetDashboard, first+"4", t.value); err != nil {
			return err
		}
		if err := f.MergeCell(SheetDashboard, first+"3", second+"3"); err != nil {
			return err
		}
		if err := f.MergeCell(SheetDashboard, first+"4", second+"4"); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetDashboard, first+"3", second+"3", label); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetDashboard, first+"4", second+"4", value); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetDashboard, "A", "H", 15); err != nil {
		return err
	}
	for row, h := range map[int]float64{1: 30, 3: 25, 4: 25} {
		if err := f.SetRowHeight(SheetDashboard, row, h); err != nil {
			return err
		}
	}

	if len(alerts) == 0 {
		return nil
	}
	if err := f.SetSheetRow(SheetDashboard, "A6", &[]any{"KPI", "Value", "Threshold", "Alert"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetDashboard, "A6", "D6", w.HeaderStyleID()); err != nil {
		return err
	}
	for i, a := range alerts {
		cell, _ := excelize.CoordinatesToCellName(1, 7+i)
		if err := f.SetSheetRow(SheetDashboard, cell, &[]any{a.KPI, a.Value, a.Threshold, string(a.Kind)}); err != nil {
			return err
		}
	}
	return nil
}

var summaryHeader = []string{
	"Department", "Transactions", "Total Amount", "Mean Amount", "Largest Amount", "Smallest Amount",
}

func (b *Builder) summary(w *sheets.Writer, stats []domain.DepartmentStats) error {
	f := w.File()
	if err := w.AddSheet(SheetSummary); err != nil {
		return err
	}

	title, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{sheets.HeaderFill}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	border := thinBorder()
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{labelFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}
	plain, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}
	moneyFmt := moneyFormat
	money, err := f.NewStyle(&excelize.Style{
		Alignment:    &excelize.Alignment{Horizontal: "center"},
		Border:       border,
		CustomNumFmt: &moneyFmt,
	})
	if err != nil {
		return err
	}

	if err := f.SetCellValue(SheetSummary, "A1", "SUMMARY BY DEPARTMENT"); err != nil {
		return err
	}
	if err := f.MergeCell(SheetSummary, "A1", "F1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "A1", "F1", title); err != nil {
		return err
	}

	cells := make([]any, len(summaryHeader))
	for i, h := range summaryHeader {
		cells[i] = h
	}
	if err := f.SetSheetRow(SheetSummary, "A3", &cells); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "A3", "F3", header); err != nil {
		return err
	}

	for i, s := range stats {
		row := 4 + i
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetSummary, start, &[]any{s.Department, s.Count, s.Sum, s.Mean, s.Max, s.Min}); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetSummary, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), plain); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetSummary, fmt.Sprintf("C%d", row), fmt.Sprintf("F%d", row), money); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetSummary, "A", "F", 18)
}

func (b *Builder) charts(w *sheets.Writer, stats []domain.DepartmentStats) error {
	rows := make([][]any, len(stats))
	for i, s := range stats {
		rows[i] = []any{s.Department, s.Sum}
	}
	if err := w.WriteRows(SheetCharts, []string{"Department", "Total Amount"}, rows); err != nil {
		return err
	}
	if len(stats) == 0 {
		return nil
	}

	last := len(stats) + 1
	return w.File().AddChart(SheetCharts, chartCell, &excelize.Chart{
		Type:   excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", SheetCharts),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetCharts, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", SheetCharts, last),
		}},
		Title:     []excelize.RichTextRun{{Text: "Total Amount by Department"}},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Department"}}},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Amount (R$)"}}},
		Dimension: excelize.ChartDimension{Width: 720, Height: 480},
	})
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

// Generated stamps a report file name with the reference day.
func Generated(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, at.Format("2006-01-02"))
}
