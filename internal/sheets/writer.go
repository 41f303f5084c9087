package sheets

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"etlcli/pkg/contracts/domain"
)

const (
	// HeaderFill is the background of header cells.
	HeaderFill = "366092"
	// MaxColumnWidth caps automatic column widths.
	MaxColumnWidth = 50

	defaultSheet = "Sheet1"
	dateFormat   = "yyyy-mm-dd"
)

// Writer builds a workbook of styled sheets. Every sheet gets a header row
// with the header style and columns sized to their content.
type Writer struct {
	f           *excelize.File
	headerStyle int
	dateStyle   int
	sheets      int
}

// NewWriter creates an empty workbook with the header and date styles
// registered.
func NewWriter() (*Writer, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(HeaderStyle())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	dateFmt := dateFormat
	date, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("date style: %w", err)
	}
	return &Writer{f: f, headerStyle: header, dateStyle: date}, nil
}

// HeaderStyle is the header cell style: white bold text on HeaderFill with
// thin borders.
func HeaderStyle() *excelize.Style {
	return &excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{HeaderFill}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}
}

// File exposes the underlying workbook.
func (w *Writer) File() *excelize.File { return w.f }

// HeaderStyleID returns the registered header style.
func (w *Writer) HeaderStyleID() int { return w.headerStyle }

// AddSheet creates a sheet. The first call renames the default sheet so the
// workbook holds no empty leftover.
func (w *Writer) AddSheet(name string) error {
	defer func() { w.sheets++ }()
	if w.sheets == 0 {
		return w.f.SetSheetName(defaultSheet, name)
	}
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", name, err)
	}
	return nil
}

// WriteTable writes t to a new sheet, one column per table column. Date
// cells use the yyyy-mm-dd number format.
func (w *Writer) WriteTable(sheet string, t *domain.Table) error {
	if err := w.AddSheet(sheet); err != nil {
		return err
	}
	widths := make([]int, len(t.Columns))
	for i, name := range t.ColumnNames() {
		widths[i] = utf8.RuneCountInString(name)
	}
	if err := w.setRow(sheet, 1, headerCells(t.ColumnNames())); err != nil {
		return err
	}
	for r, row := range t.Rows {
		cells := make([]any, len(t.Columns))
		for i := range t.Columns {
			if i >= len(row) {
				continue
			}
			cells[i] = row[i].Any()
			if n := utf8.RuneCountInString(row[i].String()); n > widths[i] {
				widths[i] = n
			}
		}
		if err := w.setRow(sheet, r+2, cells); err != nil {
			return err
		}
	}
	if err := w.styleDates(sheet, t); err != nil {
		return err
	}
	return w.finish(sheet, widths)
}

func (w *Writer) styleDates(sheet string, t *domain.Table) error {
	if t.Len() == 0 {
		return nil
	}
	for i, col := range t.Columns {
		if col.Type != domain.TypeDate {
			continue
		}
		top, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return err
		}
		bottom, err := excelize.CoordinatesToCellName(i+1, t.Len()+1)
		if err != nil {
			return err
		}
		if err := w.f.SetCellStyle(sheet, top, bottom, w.dateStyle); err != nil {
			return err
		}
	}
	return nil
}

// WriteRows writes a header and plain rows to a new sheet.
func (w *Writer) WriteRows(sheet string, header []string, rows [][]any) error {
	if err := w.AddSheet(sheet); err != nil {
		return err
	}
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := w.setRow(sheet, 1, headerCells(header)); err != nil {
		return err
	}
	for r, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				if n := utf8.RuneCountInString(cellText(cell)); n > widths[i] {
					widths[i] = n
				}
			}
		}
		if err := w.setRow(sheet, r+2, row); err != nil {
			return err
		}
	}
	return w.finish(sheet, widths)
}

// Write serializes the workbook.
func (w *Writer) Write(out io.Writer) error {
	return w.f.Write(out)
}

// Close releases the workbook.
func (w *Writer) Close() error {
	return w.f.Close()
}

func (w *Writer) setRow(sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &cells)
}

// finish styles the header row and sets column widths.
func (w *Writer) finish(sheet string, widths []int) error {
	if len(widths) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(widths), 1)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(sheet, "A1", last, w.headerStyle); err != nil {
		return err
	}
	for i, n := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(sheet, name, name, ColumnWidth(n)); err != nil {
			return err
		}
	}
	return nil
}

// ColumnWidth is the width for content of n characters.
func ColumnWidth(n int) float64 {
	return float64(min(n+2, MaxColumnWidth))
}

func headerCells(names []string) []any {
	cells := make([]any, len(names))
	for i, n := range names {
		cells[i] = n
	}
	return cells
}

func cellText(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case domain.Value:
		return c.String()
	default:
		return fmt.Sprint(c)
	}
}
