package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "etlcli/internal/errors"
	"etlcli/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader loads a table from an .xlsx or .csv file.
type Reader struct {
	logger   *slog.Logger
	keepText []string
}

// NewReader creates a reader. A nil logger uses slog.Default.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// KeepText makes the named columns Text even when every cell is numeric, so
// identifiers such as "001" keep their leading zeros.
func (r *Reader) KeepText(columns ...string) *Reader {
	r.keepText = append(r.keepText, columns...)
	return r
}

// Read dispatches on the file extension. sheet selects the worksheet of a
// workbook; the first sheet is used when it is empty or absent.
func (r *Reader) Read(ctx context.Context, path, sheet string) (*domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return r.ReadWorkbook(ctx, path, sheet)
	case ".csv":
		return r.ReadCSV(ctx, path)
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported input format %q", filepath.Ext(path)), nil).
			WithContext("path", path)
	}
}

// ReadWorkbook reads one worksheet. Raw cell values are used, so dates stored
// as serial numbers arrive as numbers.
func (r *Reader) ReadWorkbook(ctx context.Context, path, sheet string) (*domain.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("input file").WithContext("path", path)
		}
		return nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	name := resolveSheet(f.GetSheetList(), sheet)
	if name == "" {
		return nil, apperrors.NewParsingError("workbook has no sheets", nil).WithContext("path", path)
	}
	if sheet != "" && name != sheet {
		r.logger.WarnContext(ctx, "Sheet not found, using first sheet",
			slog.String("requested", sheet),
			slog.String("sheet", name))
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet", err).WithContext("sheet", name)
	}

	t := BuildTable(rows, r.keepText...)
	r.logger.InfoContext(ctx, "Workbook loaded",
		slog.String("path", path),
		slog.String("sheet", name),
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(t.Columns)))
	return t, nil
}

// ReadCSV reads a comma separated file with a header row. A leading UTF-8 BOM
// is dropped.
func (r *Reader) ReadCSV(ctx context.Context, path string) (*domain.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("input file").WithContext("path", path)
		}
		return nil, apperrors.NewParsingError("failed to read csv", err).WithContext("path", path)
	}
	rows, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse csv", err).WithContext("path", path)
	}

	t := BuildTable(rows, r.keepText...)
	r.logger.InfoContext(ctx, "CSV loaded",
		slog.String("path", path),
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(t.Columns)))
	return t, nil
}

// ParseCSV returns the records of r with any BOM removed.
func ParseCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

func resolveSheet(list []string, want string) string {
	for _, name := range list {
		if name == want {
			return name
		}
	}
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

// BuildTable turns a header row plus data rows into a typed table. Empty
// cells are Null. A column is Number when every non-empty cell parses as a
// number, otherwise Text; columns named in keepText are always Text. Fully
// empty trailing rows are dropped.
func BuildTable(rows [][]string, keepText ...string) *domain.Table {
	if len(rows) == 0 {
		return domain.NewTable()
	}
	header := rows[0]
	cols := make([]domain.Column, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Column_%d", i+1)
		}
		cols[i] = domain.Column{Name: name, Type: domain.TypeNumber}
	}

	body := rows[1:]
	for len(body) > 0 && blank(body[len(body)-1]) {
		body = body[:len(body)-1]
	}

	text := make(map[string]bool, len(keepText))
	for _, name := range keepText {
		text[name] = true
	}
	for i := range cols {
		if text[cols[i].Name] {
			cols[i].Type = domain.TypeText
			continue
		}
		for _, row := range body {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				continue
			}
			if _, ok := parseFloat(row[i]); !ok {
				cols[i].Type = domain.TypeText
				break
			}
		}
	}

	t := domain.NewTable(cols...)
	for _, raw := range body {
		row := make(domain.Row, len(cols))
		for i, col := range cols {
			if i >= len(raw) || strings.TrimSpace(raw[i]) == "" {
				continue
			}
			if col.Type == domain.TypeNumber {
				f, _ := parseFloat(raw[i])
				row[i] = domain.Number(f)
			} else {
				row[i] = domain.Text(raw[i])
			}
		}
		t.Append(row)
	}
	return t
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
