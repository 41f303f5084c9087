package generator

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"etlcli/internal/config"
	"etlcli/internal/sheets"
	"etlcli/pkg/contracts/domain"
)

var end = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

func options(rows int, seed uint64) Options {
	return Options{Rows: rows, Seed: seed, End: end, Days: 730}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(options(200, 42))
	b := Generate(options(200, 42))
	c := Generate(options(200, 7))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Rows, c.Rows)
}

func TestGenerate_Values(t *testing.T) {
	tbl := Generate(options(500, 42))
	require.Equal(t, 500, tbl.Len())
	assert.Len(t, tbl.Columns, 17)

	idPattern := regexp.MustCompile(`^TXN\d{4}$`)
	start := end.AddDate(0, 0, -730)
	for r := range tbl.Rows {
		assert.Regexp(t, idPattern, tbl.Get(r, ColID).Str)

		date := tbl.Get(r, ColDate).Time
		assert.False(t, date.Before(start), "row %d date %s", r, date)
		assert.False(t, date.After(end), "row %d date %s", r, date)
		assert.Equal(t, float64(date.Month()), tbl.Get(r, ColMonth).Num)
		assert.Equal(t, float64(date.Year()), tbl.Get(r, ColYear).Num)

		amount := tbl.Get(r, ColAmount).Num
		if tbl.Get(r, ColTransactionType).Str == "Receita" {
			assert.True(t, amount >= 5000 && amount <= 50000, "receita %v", amount)
		} else {
			assert.True(t, amount >= 100 && amount <= 15000, "amount %v", amount)
		}
		assert.Contains(t, Statuses, tbl.Get(r, ColStatus).Str)
		assert.Contains(t, Departments, tbl.Get(r, ColDepartment).Str)
	}
	assert.Equal(t, "TXN0001", tbl.Get(0, ColID).Str)
}

func TestGenerate_CalculatedColumns(t *testing.T) {
	tbl := Generate(options(300, 1))

	running := map[string]float64{}
	for r := range tbl.Rows {
		d := tbl.Get(r, ColDepartment).Str
		running[d] += tbl.Get(r, ColAmount).Num
		assert.InDelta(t, running[d], tbl.Get(r, ColCumulative).Num, 0.01)
	}

	target := tbl.Get(0, ColDepartment).Str
	month := tbl.Get(0, ColMonth).Num
	var sum float64
	var n int
	for r := range tbl.Rows {
		if tbl.Get(r, ColDepartment).Str == target && tbl.Get(r, ColMonth).Num == month {
			sum += tbl.Get(r, ColAmount).Num
			n++
		}
	}
	assert.InDelta(t, sum/float64(n), tbl.Get(0, ColDeptMonthlyMean).Num, 0.01)
}

func TestSummaries(t *testing.T) {
	tbl := Generate(options(400, 42))
	depts, months := Summaries(tbl)

	total := 0
	for i, d := range depts {
		total += d.Count
		if i > 0 {
			assert.Less(t, depts[i-1].Department, d.Department)
		}
	}
	assert.Equal(t, 400, total)

	total = 0
	for i, m := range months {
		total += m.Count
		if i > 0 {
			prev := months[i-1]
			assert.True(t, prev.Year < m.Year || (prev.Year == m.Year && prev.Month < m.Month))
		}
	}
	assert.Equal(t, 400, total)
}

func TestSave_ReadsBackThroughPipelineReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "synthetic.xlsx")
	tbl := Generate(options(50, 42))

	require.NoError(t, Save(path, tbl))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{config.DefaultSheetName, config.SheetDepartmentSummary, config.SheetMonthlySummary}, f.GetSheetList())

	back, err := sheets.NewReader(nil).Read(context.Background(), path, config.DefaultSheetName)
	require.NoError(t, err)
	assert.Equal(t, 50, back.Len())
	assert.Equal(t, tbl.ColumnNames(), back.ColumnNames())
	amount, _ := back.Column(ColAmount)
	assert.Equal(t, domain.TypeNumber, amount.Type)
	assert.Equal(t, tbl.Get(3, ColAmount), back.Get(3, ColAmount))
}
