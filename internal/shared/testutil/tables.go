package testutil

import (
	"time"

	"etlcli/pkg/contracts/domain"
)

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Cell converts a Go literal to a table value: nil is Null, strings are Text,
// ints and floats are Number, time.Time is Date and bool is Bool.
func Cell(v any) domain.Value {
	switch x := v.(type) {
	case nil:
		return domain.Null
	case domain.Value:
		return x
	case string:
		return domain.Text(x)
	case int:
		return domain.Number(float64(x))
	case float64:
		return domain.Number(x)
	case time.Time:
		return domain.Date(x)
	case bool:
		return domain.Bool(x)
	default:
		panic("testutil: unsupported cell type")
	}
}

// NewTable builds a table from columns and literal rows.
func NewTable(cols []domain.Column, rows ...[]any) *domain.Table {
	t := domain.NewTable(cols...)
	for _, r := range rows {
		row := make(domain.Row, len(r))
		for i, v := range r {
			row[i] = Cell(v)
		}
		t.Append(row)
	}
	return t
}

// TransactionColumns are the role columns of the default schema with raw
// types, as read from a CSV before coercion.
func TransactionColumns() []domain.Column {
	return []domain.Column{
		{Name: "ID", Type: domain.TypeText},
		{Name: "Date", Type: domain.TypeText},
		{Name: "Department", Type: domain.TypeText},
		{Name: "Category", Type: domain.TypeText},
		{Name: "Amount", Type: domain.TypeNumber},
		{Name: "Status", Type: domain.TypeText},
	}
}
