package files

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Staged is an output written aside. Commit publishes it and Rollback
// discards it; Rollback after Commit is a no-op.
type Staged interface {
	Commit() error
	Rollback() error
}

// StagedFile is a temporary file in the destination's directory that Commit
// renames over the destination.
type StagedFile struct {
	tmp  string
	dst  string
	done bool
}

// CreateStaged creates the destination directory and a temporary file beside
// dst. The caller writes to and closes the returned file before Commit.
func CreateStaged(dst string) (*os.File, *StagedFile, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	return f, &StagedFile{tmp: f.Name(), dst: dst}, nil
}

// Path returns the temporary path.
func (s *StagedFile) Path() string { return s.tmp }

// Destination returns the final path.
func (s *StagedFile) Destination() string { return s.dst }

// Commit moves the temporary file onto the destination.
func (s *StagedFile) Commit() error {
	if s.done {
		return nil
	}
	if err := MoveFile(s.tmp, s.dst); err != nil {
		return fmt.Errorf("failed to publish %s: %w", s.dst, err)
	}
	s.done = true
	return nil
}

// Rollback removes the temporary file.
func (s *StagedFile) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := os.Remove(s.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MoveFile renames src to dst, falling back to copy and delete across
// file systems.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// CopyFile copies src to dst and syncs it.
func CopyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	return dstFile.Sync()
}

// Transaction publishes a set of staged outputs together.
type Transaction struct {
	staged []Staged
	logger *slog.Logger
}

// NewTransaction creates an empty transaction. A nil logger uses slog.Default.
func NewTransaction(logger *slog.Logger) *Transaction {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transaction{logger: logger}
}

// Add registers a staged output.
func (t *Transaction) Add(s Staged) {
	if s != nil {
		t.staged = append(t.staged, s)
	}
}

// Len returns the number of staged outputs.
func (t *Transaction) Len() int { return len(t.staged) }

// Commit publishes the outputs in the order they were added. On the first
// failure the remaining outputs are rolled back and the error is returned.
func (t *Transaction) Commit() error {
	for i, s := range t.staged {
		if err := s.Commit(); err != nil {
			for _, rest := range t.staged[i:] {
				t.rollbackOne(rest)
			}
			return err
		}
	}
	t.logger.Debug("Outputs committed", slog.Int("count", len(t.staged)))
	return nil
}

// Rollback discards every output that was not committed.
func (t *Transaction) Rollback() {
	for _, s := range t.staged {
		t.rollbackOne(s)
	}
}

func (t *Transaction) rollbackOne(s Staged) {
	if err := s.Rollback(); err != nil {
		t.logger.Warn("Failed to discard staged output", slog.String("error", err.Error()))
	}
}
