package transform

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "etlcli/internal/errors"
	"etlcli/pkg/contracts/domain"
)

var thousandsPattern = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// TypeCoercer converts the configured date and numeric columns to typed cells
// and marks categorical columns. It never fails; unparseable cells become Null
// and are counted as parse warnings.
type TypeCoercer struct {
	dateColumns        []string
	numericColumns     []string
	categoricalColumns []string
	layouts            []string
}

// NewTypeCoercer creates a coercer for schema
func NewTypeCoercer(schema domain.Schema) *TypeCoercer {
	layouts := schema.DateLayouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	return &TypeCoercer{
		dateColumns:        schema.DateColumns,
		numericColumns:     schema.NumericColumns,
		categoricalColumns: schema.CategoricalColumns,
		layouts:            layouts,
	}
}

// DefaultDateLayouts are tried in order when the schema names none.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Name implements Transform
func (c *TypeCoercer) Name() string { return "coerce" }

// Apply implements Transform
func (c *TypeCoercer) Apply(_ context.Context, t *domain.Table) (*domain.Table, apperrors.Issues, error) {
	out := t.Clone()
	var issues apperrors.Issues

	for _, name := range c.dateColumns {
		if failed, ok := coerceColumn(out, name, domain.TypeDate, c.parseDate); ok && failed > 0 {
			issues = append(issues, apperrors.NewParseWarning(name, failed))
		}
	}
	for _, name := range c.numericColumns {
		if failed, ok := coerceColumn(out, name, domain.TypeNumber, parseNumber); ok && failed > 0 {
			issues = append(issues, apperrors.NewParseWarning(name, failed))
		}
	}
	for _, name := range c.categoricalColumns {
		if i := out.Index(name); i >= 0 {
			out.Columns[i].Type = domain.TypeCategory
		}
	}
	return out, issues, nil
}

// coerceColumn rewrites the named column in place with parse and returns the
// number of non-null cells that failed. ok is false when the column is absent.
func coerceColumn(t *domain.Table, name string, typ domain.ColumnType, parse func(domain.Value) (domain.Value, bool)) (failed int, ok bool) {
	i := t.Index(name)
	if i < 0 {
		return 0, false
	}
	t.Columns[i].Type = typ
	for _, row := range t.Rows {
		if i >= len(row) || row[i].IsNull() {
			continue
		}
		v, parsed := parse(row[i])
		if !parsed {
			failed++
			v = domain.Null
		}
		row[i] = v
	}
	return failed, true
}

func (c *TypeCoercer) parseDate(v domain.Value) (domain.Value, bool) {
	switch v.Kind {
	case domain.KindDate:
		return v, true
	case domain.KindNumber:
		return excelSerial(v.Num)
	case domain.KindText:
		s := strings.TrimSpace(v.Str)
		for _, layout := range c.layouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return domain.Date(ts), true
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return excelSerial(f)
		}
	}
	return domain.Null, false
}

func excelSerial(f float64) (domain.Value, bool) {
	if f <= 0 {
		return domain.Null, false
	}
	ts, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return domain.Null, false
	}
	return domain.Date(ts), true
}

func parseNumber(v domain.Value) (domain.Value, bool) {
	switch v.Kind {
	case domain.KindNumber:
		return v, true
	case domain.KindBool:
		if v.Bool {
			return domain.Number(1), true
		}
		return domain.Number(0), true
	case domain.KindText:
		f, ok := ParseNumber(v.Str)
		if !ok {
			return domain.Null, false
		}
		return domain.Number(f), true
	}
	return domain.Null, false
}

// ParseNumber parses s as a float, accepting comma thousands separators such
// as "1,234.50".
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if thousandsPattern.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	v := domain.Number(f)
	if v.IsNull() {
		return 0, false
	}
	return f, true
}
