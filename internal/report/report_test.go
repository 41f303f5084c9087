package report

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"etlcli/internal/shared/testutil"
	"etlcli/internal/transform"
	"etlcli/pkg/contracts/domain"
)

var refTime = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

func testSchema() domain.Schema {
	return domain.Schema{Columns: domain.DefaultColumnMap()}
}

func typedTable() *domain.Table {
	cols := []domain.Column{
		{Name: "ID", Type: domain.TypeText},
		{Name: "Date", Type: domain.TypeDate},
		{Name: "Department", Type: domain.TypeCategory},
		{Name: "Category", Type: domain.TypeCategory},
		{Name: "Amount", Type: domain.TypeNumber},
	}
	return testutil.NewTable(cols,
		[]any{"T1", testutil.Date(2024, 3, 20), "Vendas", "Produto A", 1500.0},
		[]any{"T2", testutil.Date(2024, 3, 1), "Vendas", "Produto B", 500.0},
		[]any{"T3", testutil.Date(2024, 2, 10), "Marketing", "Digital", 250.5},
	)
}

func openBuilt(t *testing.T, b *Builder, tbl *domain.Table) *excelize.File {
	t.Helper()
	w, err := b.Build(context.Background(), tbl)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w.File()
}

func cellValue(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell)
	require.NoError(t, err)
	return v
}

func TestBuildSheets(t *testing.T) {
	b := NewBuilder(testSchema(), nil, transform.FixedClock(refTime), slog.New(slog.DiscardHandler))
	f := openBuilt(t, b, typedTable())

	assert.Equal(t, []string{SheetDashboard, SheetData, SheetSummary, SheetCharts}, f.GetSheetList())
	assert.Equal(t, 0, f.GetActiveSheetIndex())
}

func TestDashboard(t *testing.T) {
	b := NewBuilder(testSchema(), nil, transform.FixedClock(refTime), slog.New(slog.DiscardHandler))
	f := openBuilt(t, b, typedTable())

	assert.Equal(t, "FINANCIAL DASHBOARD", cellValue(t, f, SheetDashboard, "A1"))
	merged, err := f.GetMergeCells(SheetDashboard)
	require.NoError(t, err)
	var ranges []string
	for _, m := range merged {
		ranges = append(ranges, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	assert.Contains(t, ranges, "A1:H1")
	assert.Contains(t, ranges, "C4:D4")

	tiles := map[string]string{
		"A3": "Total Transactions", "A4": "3",
		"C3": "Total Amount", "C4": transform.FormatMoney(2250.5),
		"E3": "Mean Amount",
		"G3": "Departments", "G4": "2",
	}
	for cell, want := range tiles {
		assert.Equal(t, want, cellValue(t, f, SheetDashboard, cell), cell)
	}

	h, err := f.GetRowHeight(SheetDashboard, 1)
	require.NoError(t, err)
	assert.Equal(t, 30.0, h)

	assert.Empty(t, cellValue(t, f, SheetDashboard, "A6"))
}

func TestDashboardAlerts(t *testing.T) {
	low := 10.0
	thresholds := map[string]domain.Threshold{domain.KPITotalTransactions: {Min: &low}}
	logger, logs := testutil.NewTestLogger(t)
	b := NewBuilder(testSchema(), thresholds, transform.FixedClock(refTime), logger)
	f := openBuilt(t, b, typedTable())

	assert.Equal(t, "KPI", cellValue(t, f, SheetDashboard, "A6"))
	assert.Equal(t, domain.KPITotalTransactions, cellValue(t, f, SheetDashboard, "A7"))
	assert.Equal(t, "LOW", cellValue(t, f, SheetDashboard, "D7"))

	testutil.AssertLogged(t, logs, slog.LevelWarn, "KPI threshold crossed")
	assert.True(t, logs.HasAttr("kpi", domain.KPITotalTransactions))
}

func TestSummarySheet(t *testing.T) {
	b := NewBuilder(testSchema(), nil, transform.FixedClock(refTime), slog.New(slog.DiscardHandler))
	f := openBuilt(t, b, typedTable())

	assert.Equal(t, "SUMMARY BY DEPARTMENT", cellValue(t, f, SheetSummary, "A1"))
	header, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(header), 5)
	assert.Equal(t, summaryHeader, header[2])

	// groups are sorted by name
	assert.Equal(t, "Marketing", cellValue(t, f, SheetSummary, "A4"))
	assert.Equal(t, "Vendas", cellValue(t, f, SheetSummary, "A5"))
	assert.Equal(t, "2", cellValue(t, f, SheetSummary, "B5"))

	raw, err := f.GetCellValue(SheetSummary, "C5", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "2000", raw)

	style, err := f.GetCellStyle(SheetSummary, "C5")
	require.NoError(t, err)
	s, err := f.GetStyle(style)
	require.NoError(t, err)
	require.NotNil(t, s.CustomNumFmt)
	assert.Contains(t, *s.CustomNumFmt, "#,##0.00")
}

func TestChartsSheet(t *testing.T) {
	b := NewBuilder(testSchema(), nil, transform.FixedClock(refTime), slog.New(slog.DiscardHandler))
	f := openBuilt(t, b, typedTable())

	rows, err := f.GetRows(SheetCharts)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Department", "Total Amount"}, rows[0])
	assert.Equal(t, "Marketing", rows[1][0])
}

func TestBuildEmptyTable(t *testing.T) {
	b := NewBuilder(testSchema(), nil, transform.FixedClock(refTime), slog.New(slog.DiscardHandler))
	empty := domain.NewTable(typedTable().Columns...)
	f := openBuilt(t, b, empty)

	assert.Equal(t, "0", cellValue(t, f, SheetDashboard, "A4"))
	rows, err := f.GetRows(SheetCharts)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", Generated("report", refTime))
	b := NewBuilder(testSchema(), nil, transform.FixedClock(refTime), slog.New(slog.DiscardHandler))

	require.NoError(t, b.Save(context.Background(), path, typedTable()))
	assert.Equal(t, "report_2024-03-20.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "T1", cellValue(t, f, SheetData, "A2"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}
