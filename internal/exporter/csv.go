package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"etlcli/internal/files"
	"etlcli/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes headers and records to w.
func WriteCSV(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// TableRecords renders every cell of t as CSV text.
func TableRecords(t *domain.Table) ([]string, [][]string) {
	records := make([][]string, t.Len())
	for r, row := range t.Rows {
		rec := make([]string, len(t.Columns))
		for i := range t.Columns {
			if i < len(row) {
				rec[i] = formatValue(row[i])
			}
		}
		records[r] = rec
	}
	return t.ColumnNames(), records
}

// CSVSink writes the processed table as a UTF-8 CSV with BOM.
type CSVSink struct {
	path   string
	logger *slog.Logger
}

// NewCSVSink creates a sink publishing to path.
func NewCSVSink(path string, logger *slog.Logger) *CSVSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSink{path: path, logger: logger}
}

// Name identifies the sink in logs.
func (s *CSVSink) Name() string { return "csv" }

// Stage writes the table into a temporary file beside the destination.
func (s *CSVSink) Stage(ctx context.Context, res *domain.Result) (files.Staged, error) {
	table := res.Table
	if table == nil {
		table = domain.NewTable()
	}
	headers, records := TableRecords(table)

	s.logger.InfoContext(ctx, "Writing CSV file",
		slog.String("file_path", s.path),
		slog.Int("record_count", len(records)))

	return stage(s.path, func(w io.Writer) error {
		return WriteCSV(w, WriteOptions{Headers: headers, Records: records, BOMPrefix: true})
	})
}

// stage runs write against a temporary file for dst and returns it unpublished.
func stage(dst string, write func(io.Writer) error) (files.Staged, error) {
	out, staged, err := files.CreateStaged(dst)
	if err != nil {
		return nil, err
	}
	if err := write(out); err != nil {
		out.Close()
		staged.Rollback()
		return nil, err
	}
	if err := out.Close(); err != nil {
		staged.Rollback()
		return nil, fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return staged, nil
}
