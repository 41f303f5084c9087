package domain

// ColumnType is the declared type of a column.
type ColumnType uint8

const (
	TypeText ColumnType = iota
	TypeNumber
	TypeDate
	TypeCategory
	TypeBool
)

// String returns the type name used in reports and schemas.
func (t ColumnType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeDate:
		return "date"
	case TypeCategory:
		return "category"
	case TypeBool:
		return "bool"
	default:
		return "text"
	}
}

// IsText reports whether cells of this type carry text payloads.
func (t ColumnType) IsText() bool { return t == TypeText || t == TypeCategory }

// Column describes one table column.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"-"`
}

// Row holds the cells of one record aligned with Table.Columns.
type Row []Value

// Table is an ordered sequence of rows sharing a fixed column set.
type Table struct {
	Columns []Column
	Rows    []Row
}

// NewTable creates an empty table with the given columns.
func NewTable(cols ...Column) *Table {
	c := make([]Column, len(cols))
	copy(c, cols)
	return &Table{Columns: c}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of the named column or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	if i := t.Index(name); i >= 0 {
		return t.Columns[i], true
	}
	return Column{}, false
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Get returns the cell at row r in the named column, Null when the column is absent.
func (t *Table) Get(r int, name string) Value {
	i := t.Index(name)
	if i < 0 || r < 0 || r >= len(t.Rows) || i >= len(t.Rows[r]) {
		return Null
	}
	return t.Rows[r][i]
}

// Values returns a copy of the named column's cells, nil when absent.
func (t *Table) Values(name string) []Value {
	i := t.Index(name)
	if i < 0 {
		return nil
	}
	out := make([]Value, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

// Append adds a row, padding or truncating it to the column count.
func (t *Table) Append(row Row) {
	n := len(t.Columns)
	if len(row) != n {
		fixed := make(Row, n)
		copy(fixed, row)
		row = fixed
	}
	t.Rows = append(t.Rows, row)
}

// Clone returns a deep copy; rows of the copy can be modified freely.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: make([]Column, len(t.Columns)),
		Rows:    make([]Row, len(t.Rows)),
	}
	copy(out.Columns, t.Columns)
	for i, row := range t.Rows {
		r := make(Row, len(row))
		copy(r, row)
		out.Rows[i] = r
	}
	return out
}

// WithColumn returns a copy with the column set to values, replacing an existing
// column of the same name or appending a new one. len(values) must equal Len().
func (t *Table) WithColumn(col Column, values []Value) *Table {
	out := t.Clone()
	i := out.Index(col.Name)
	if i < 0 {
		out.Columns = append(out.Columns, col)
		for r := range out.Rows {
			out.Rows[r] = append(out.Rows[r], Null)
		}
		i = len(out.Columns) - 1
	} else {
		out.Columns[i] = col
	}
	for r := range out.Rows {
		if r < len(values) {
			out.Rows[r][i] = values[r]
		}
	}
	return out
}
