package exporter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"etlcli/internal/files"
	"etlcli/pkg/contracts/domain"
)

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// QualityReportSink writes the data-quality report of a run.
type QualityReportSink struct {
	path   string
	logger *slog.Logger
}

// NewQualityReportSink creates a sink publishing to path.
func NewQualityReportSink(path string, logger *slog.Logger) *QualityReportSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &QualityReportSink{path: path, logger: logger}
}

// Name identifies the sink in logs.
func (s *QualityReportSink) Name() string { return "quality_report" }

// Stage encodes the quality report into a temporary file.
func (s *QualityReportSink) Stage(ctx context.Context, res *domain.Result) (files.Staged, error) {
	s.logger.InfoContext(ctx, "Writing quality report",
		slog.String("file_path", s.path),
		slog.Int("total_records", res.Quality.TotalRecords))
	return stage(s.path, func(w io.Writer) error {
		return WriteJSON(w, res.Quality)
	})
}
