package transform

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "etlcli/internal/errors"
	"etlcli/internal/shared/testutil"
	"etlcli/pkg/contracts/domain"
)

func TestTypeCoercer(t *testing.T) {
	cols := []domain.Column{
		{Name: "Date", Type: domain.TypeText},
		{Name: "Amount", Type: domain.TypeText},
		{Name: "Status", Type: domain.TypeText},
	}
	in := testutil.NewTable(cols,
		[]any{"2024-01-15", "1,234.50", "ok"},
		[]any{"15/01/2024", "12", "ok"},
		[]any{"45292", "abc", "ok"},
		[]any{"garbage", nil, "ok"},
		[]any{nil, "-3.5", "ok"},
		[]any{45292.0, 7.0, "ok"},
		[]any{"2024-01-15T10:30:00Z", "12,34", "ok"},
	)

	out, issues, err := NewTypeCoercer(testSchema()).Apply(context.Background(), in)
	require.NoError(t, err)

	t.Run("dates", func(t *testing.T) {
		col, _ := out.Column("Date")
		assert.Equal(t, domain.TypeDate, col.Type)
		want := testutil.Date(2024, 1, 15)
		assert.Equal(t, domain.Date(want), out.Get(0, "Date"))
		assert.Equal(t, domain.Date(want), out.Get(1, "Date"))
		for _, r := range []int{2, 5} {
			v := out.Get(r, "Date")
			require.Equal(t, domain.KindDate, v.Kind, "row %d", r)
			y, m, d := v.Time.Date()
			assert.Equal(t, []int{2024, 1, 1}, []int{y, int(m), d}, "excel serial row %d", r)
		}
		assert.True(t, out.Get(3, "Date").IsNull())
		assert.True(t, out.Get(4, "Date").IsNull())
		assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), out.Get(6, "Date").Time.UTC())
	})

	t.Run("numbers", func(t *testing.T) {
		col, _ := out.Column("Amount")
		assert.Equal(t, domain.TypeNumber, col.Type)
		assert.Equal(t, domain.Number(1234.5), out.Get(0, "Amount"))
		assert.Equal(t, domain.Number(12), out.Get(1, "Amount"))
		assert.True(t, out.Get(2, "Amount").IsNull())
		assert.True(t, out.Get(3, "Amount").IsNull())
		assert.Equal(t, domain.Number(-3.5), out.Get(4, "Amount"))
		assert.Equal(t, domain.Number(7), out.Get(5, "Amount"))
		assert.True(t, out.Get(6, "Amount").IsNull(), "misplaced separator")
	})

	t.Run("categories keep values", func(t *testing.T) {
		col, _ := out.Column("Status")
		assert.Equal(t, domain.TypeCategory, col.Type)
		assert.Equal(t, domain.Text("ok"), out.Get(0, "Status"))
	})

	t.Run("only non-null failures are warned", func(t *testing.T) {
		require.Len(t, issues, 2)
		assert.Equal(t, apperrors.NewParseWarning("Date", 1), issues[0])
		assert.Equal(t, apperrors.NewParseWarning("Amount", 2), issues[1])
	})

	t.Run("input untouched", func(t *testing.T) {
		col, _ := in.Column("Date")
		assert.Equal(t, domain.TypeText, col.Type)
		assert.Equal(t, domain.Text("1,234.50"), in.Get(0, "Amount"))
	})
}

func TestTypeCoercerSkipsAbsentColumns(t *testing.T) {
	in := testutil.NewTable([]domain.Column{{Name: "Other"}}, []any{"x"})
	out, issues, err := NewTypeCoercer(testSchema()).Apply(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, in, out)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{" 3.25 ", 3.25, true},
		{"1,000", 1000, true},
		{"-12,345,678.9", -12345678.9, true},
		{"1e3", 1000, true},
		{"1,00", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
