package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "etlcli/internal/errors"
)

// FileValidator checks input files and output directories before a run
// touches them. Every rejection is logged at error level with the path.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator returns a validator logging to logger, or to the default
// logger when nil.
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

func (v *FileValidator) reject(path string, err *apperrors.AppError) error {
	v.logger.Error("Path rejected",
		slog.String("path", path),
		slog.String("type", string(err.Type)),
		slog.String("error", err.Error()))
	return err
}

// ValidateInput dispatches on extension: .csv files are checked as CSV,
// everything else as a workbook.
func (v *FileValidator) ValidateInput(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return v.ValidateCSVFile(path)
	}
	return v.ValidateExcelFile(path)
}

// ValidateOutputDirectory creates dir if needed and probes it with a
// temporary file.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return v.reject(dir, apperrors.NewStorageError("cannot create output directory "+dir, err))
	}

	probe, err := os.CreateTemp(dir, ".etl_probe*")
	if err != nil {
		return v.reject(dir, apperrors.NewPermissionError("output directory "+dir+" is not writable").
			WithContext("cause", err.Error()))
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateOutputs checks the parent directory of every non-empty path once.
func (v *FileValidator) ValidateOutputs(paths ...string) error {
	checked := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		dir := filepath.Dir(p)
		if _, ok := checked[dir]; ok {
			continue
		}
		checked[dir] = struct{}{}
		if err := v.ValidateOutputDirectory(dir); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFile requires path to be an existing, openable regular file.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return v.reject(path, apperrors.NewNotFoundError("file "+path).WithContext("path", path))
	case err != nil:
		return v.reject(path, apperrors.NewStorageError("cannot stat "+path, err))
	case info.IsDir():
		return v.reject(path, apperrors.NewAppValidationError(path+" is a directory, not a file"))
	}

	f, err := os.Open(path)
	if err != nil {
		return v.reject(path, apperrors.NewPermissionError("file "+path+" is not readable").
			WithContext("cause", err.Error()))
	}
	f.Close()

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateExcelFile accepts .xlsx and .xlsm files that are not Office lock
// files ("~$" prefix).
func (v *FileValidator) ValidateExcelFile(path string) error {
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return v.reject(path, apperrors.NewAppValidationError(path+" is an Excel lock file"))
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xlsm" {
		return v.reject(path, apperrors.NewAppValidationError(
			fmt.Sprintf("%s is not an Excel workbook (extension %q)", path, ext)))
	}
	return v.ValidateFile(path)
}

// ValidateCSVFile accepts existing .csv files.
func (v *FileValidator) ValidateCSVFile(path string) error {
	if ext := filepath.Ext(path); !strings.EqualFold(ext, ".csv") {
		return v.reject(path, apperrors.NewAppValidationError(
			fmt.Sprintf("%s is not a CSV file (extension %q)", path, ext)))
	}
	return v.ValidateFile(path)
}
