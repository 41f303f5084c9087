package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etlcli/internal/shared/testutil"
	"etlcli/pkg/contracts/domain"
)

var dateAmountColumns = []domain.Column{
	{Name: "Date", Type: domain.TypeDate},
	{Name: "Amount", Type: domain.TypeNumber},
}

func derive(t *testing.T, in *domain.Table) *domain.Table {
	t.Helper()
	out, issues, err := NewDerivedColumnBuilder(testSchema(), FixedClock(refTime)).Apply(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, issues)
	return out
}

func TestDerivedCalendarColumns(t *testing.T) {
	out := derive(t, testutil.NewTable(dateAmountColumns,
		[]any{testutil.Date(2024, 3, 1), 1.0},
		[]any{testutil.Date(2024, 3, 11), 1.0},
		[]any{nil, 1.0},
		[]any{testutil.Date(2024, 1, 1), 1.0},
	))

	assert.Equal(t, domain.Text("Friday"), out.Get(0, ColWeekday))
	assert.Equal(t, domain.Number(9), out.Get(0, ColISOWeek))
	assert.Equal(t, domain.Number(9), out.Get(0, ColDaysSinceRun))

	assert.Equal(t, domain.Text("Monday"), out.Get(1, ColWeekday))
	assert.Equal(t, domain.Number(11), out.Get(1, ColISOWeek))
	assert.Equal(t, domain.Number(-1), out.Get(1, ColDaysSinceRun), "future dates floor toward negative")

	assert.True(t, out.Get(2, ColWeekday).IsNull())
	assert.True(t, out.Get(2, ColDaysSinceRun).IsNull())

	assert.Equal(t, domain.Number(1), out.Get(3, ColISOWeek))
	assert.Equal(t, domain.Number(69), out.Get(3, ColDaysSinceRun))
}

func TestAmountBand(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
		ok     bool
	}{
		{-5, "", false},
		{0, "", false},
		{0.01, BandLow, true},
		{1000, BandLow, true},
		{1000.01, BandMedium, true},
		{5000, BandMedium, true},
		{5000.5, BandHigh, true},
		{15000, BandHigh, true},
		{15000.01, BandVeryHigh, true},
		{1e9, BandVeryHigh, true},
	}
	for _, tt := range tests {
		got, ok := AmountBand(tt.amount)
		assert.Equal(t, tt.ok, ok, "amount %v", tt.amount)
		assert.Equal(t, tt.want, got, "amount %v", tt.amount)
	}
}

func TestDerivedAmountColumns(t *testing.T) {
	out := derive(t, testutil.NewTable(dateAmountColumns,
		[]any{nil, 10.0},
		[]any{nil, 20.0},
		[]any{nil, 20.0},
		[]any{nil, 40.0},
		[]any{nil, nil},
	))

	t.Run("bands", func(t *testing.T) {
		col, _ := out.Column(ColAmountBand)
		assert.Equal(t, domain.TypeCategory, col.Type)
		assert.Equal(t, domain.Text(BandLow), out.Get(0, ColAmountBand))
		assert.True(t, out.Get(4, ColAmountBand).IsNull())
	})

	t.Run("percentile ranks average ties", func(t *testing.T) {
		want := []float64{0.25, 0.625, 0.625, 1}
		for r, w := range want {
			assert.Equal(t, domain.Number(w), out.Get(r, ColAmountPercentile), "row %d", r)
		}
		assert.True(t, out.Get(4, ColAmountPercentile).IsNull())
	})
}

func TestOutliers(t *testing.T) {
	out := derive(t, testutil.NewTable(dateAmountColumns,
		[]any{nil, 10.0},
		[]any{nil, 11.0},
		[]any{nil, 12.0},
		[]any{nil, 13.0},
		[]any{nil, 100.0},
		[]any{nil, nil},
	))

	for r := 0; r < 4; r++ {
		assert.Equal(t, domain.Bool(false), out.Get(r, ColIsOutlier), "row %d", r)
	}
	assert.Equal(t, domain.Bool(true), out.Get(4, ColIsOutlier))
	assert.True(t, out.Get(5, ColIsOutlier).IsNull())

	lower, upper := OutlierBounds([]float64{10, 11, 12, 13, 100})
	assert.Equal(t, 8.0, lower)
	assert.Equal(t, 16.0, upper)
}

func TestDerivedSkipsAbsentColumns(t *testing.T) {
	in := testutil.NewTable([]domain.Column{{Name: "Other"}}, []any{"x"})
	out := derive(t, in)
	assert.Equal(t, []string{"Other"}, out.ColumnNames())
}
