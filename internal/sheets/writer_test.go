package sheets

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"etlcli/internal/config"
	"etlcli/internal/shared/testutil"
	"etlcli/pkg/contracts/domain"
)

func sampleResult() *domain.Result {
	growth := 12.5
	tbl := testutil.NewTable([]domain.Column{
		{Name: "ID", Type: domain.TypeText},
		{Name: "Date", Type: domain.TypeDate},
		{Name: "Amount", Type: domain.TypeNumber},
	},
		[]any{"T1", testutil.Date(2024, 1, 5), 1500.0},
		[]any{"T2", testutil.Date(2024, 2, 5), nil},
	)
	return &domain.Result{
		RunID: "run-1",
		Table: tbl,
		Executive: []domain.SummaryItem{
			{Metric: "Total Records", Value: "2"},
		},
		Departments: []domain.DepartmentSummary{
			{Department: "Vendas", Count: 2, Sum: 1500, Mean: 750, IDCount: 2, SharePct: 100, RankBySum: 1},
		},
		Monthly: []domain.MonthlySummary{
			{Year: 2024, Month: 1, Count: 1, Sum: 1500, Mean: 1500, Departments: 1},
			{Year: 2024, Month: 2, Count: 1, Sum: 0, Mean: 0, Departments: 1, GrowthPct: &growth},
		},
	}
}

func openWorkbook(t *testing.T, w *Writer) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestColumnWidth(t *testing.T) {
	assert.Equal(t, 8.0, ColumnWidth(6))
	assert.Equal(t, 50.0, ColumnWidth(48))
	assert.Equal(t, 50.0, ColumnWidth(300))
}

func TestWriter_HeaderStyleAndWidths(t *testing.T) {
	w, err := NewWriter()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.WriteRows("Data", []string{"Metric", "Value"}, [][]any{
		{"Total Records", 3},
		{"Largest Transaction", "R$ 1,234.56"},
	}))

	f := openWorkbook(t, w)
	assert.Equal(t, []string{"Data"}, f.GetSheetList(), "default sheet is renamed")

	styleID, err := f.GetCellStyle("Data", "B1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
	assert.Contains(t, strings.ToUpper(style.Font.Color), "FFFFFF")
	require.NotEmpty(t, style.Fill.Color)
	assert.Contains(t, strings.ToUpper(style.Fill.Color[0]), HeaderFill)
	assert.Len(t, style.Border, 4)

	width, err := f.GetColWidth("Data", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(len("Largest Transaction")+2), width)

	v, err := f.GetCellValue("Data", "B2")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestWriteResult_Sheets(t *testing.T) {
	w, err := NewWriter()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, WriteResult(w, sampleResult()))

	f := openWorkbook(t, w)
	assert.Equal(t, []string{
		config.SheetProcessedData,
		config.SheetExecutiveSummary,
		config.SheetDepartmentSummary,
		config.SheetMonthlySummary,
	}, f.GetSheetList())

	rows, err := f.GetRows(config.SheetProcessedData)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Date", "Amount"}, rows[0])
	assert.Equal(t, "2024-01-05", rows[1][1])
	assert.Equal(t, "1500", rows[1][2])

	monthly, err := f.GetRows(config.SheetMonthlySummary)
	require.NoError(t, err)
	require.Len(t, monthly, 3)
	if len(monthly[1]) > 6 {
		assert.Empty(t, monthly[1][6], "null growth stays empty")
	}
	assert.Equal(t, "12.5", monthly[2][6])
}

func TestWriteResult_AlertsSheet(t *testing.T) {
	res := sampleResult()
	res.Alerts = []domain.Alert{{KPI: domain.KPIOutliers, Value: 9, Threshold: 5, Kind: domain.AlertHigh}}
	w, err := NewWriter()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, WriteResult(w, res))

	f := openWorkbook(t, w)
	assert.Contains(t, f.GetSheetList(), config.SheetKPIAlerts)
	rows, err := f.GetRows(config.SheetKPIAlerts)
	require.NoError(t, err)
	assert.Equal(t, []string{"outliers", "9", "5", "HIGH"}, rows[1])
}

func TestWorkbookSink_StageCommitRollback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "processed.xlsx")
	sink := NewWorkbookSink(path, nil)
	assert.Equal(t, "workbook", sink.Name())

	staged, err := sink.Stage(context.Background(), sampleResult())
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing visible before commit")

	require.NoError(t, staged.Commit())
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 4)

	other := filepath.Join(dir, "discarded.xlsx")
	staged, err = NewWorkbookSink(other, nil).Stage(context.Background(), sampleResult())
	require.NoError(t, err)
	require.NoError(t, staged.Rollback())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "discarded")
	}
}
