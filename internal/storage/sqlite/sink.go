// Package sqlite stores the processed table in a SQLite database using
// database/sql and the pure Go modernc.org/sqlite driver. The table is
// replaced inside one transaction that the Load phase commits together with
// the file outputs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"etlcli/internal/config"
	apperrors "etlcli/internal/errors"
	"etlcli/internal/files"
	"etlcli/pkg/contracts/domain"
)

// Sink replaces a table with the processed rows of a run.
type Sink struct {
	cfg    config.SQLiteConfig
	logger *slog.Logger
}

// NewSink creates a sink for cfg. The database is opened when staging.
func NewSink(cfg config.SQLiteConfig, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{cfg: cfg, logger: logger}
}

// Name identifies the sink in logs.
func (s *Sink) Name() string { return "sqlite" }

// Stage drops and recreates the table and inserts every row inside an open
// transaction. Nothing is visible to other connections until Commit.
func (s *Sink) Stage(ctx context.Context, res *domain.Result) (files.Staged, error) {
	if strings.TrimSpace(s.cfg.DSN) == "" {
		return nil, apperrors.NewConfigError("sqlite: DSN must not be empty", nil)
	}
	table := res.Table
	if table == nil || len(table.Columns) == 0 {
		return nil, apperrors.NewStorageError("sqlite: nothing to store", nil)
	}

	db, err := sql.Open("sqlite", s.cfg.DSN)
	if err != nil {
		return nil, apperrors.NewStorageError("sqlite: open", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("sqlite: ping", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("sqlite: begin tx", err)
	}
	staged := &stagedTx{tx: tx, db: db}

	inserted, err := s.replace(ctx, tx, table)
	if err != nil {
		staged.Rollback()
		return nil, apperrors.NewStorageError("sqlite: stage table", err).WithContext("table", s.cfg.Table)
	}

	s.logger.InfoContext(ctx, "SQLite table staged",
		slog.String("table", s.cfg.Table),
		slog.Int64("rows", inserted))
	return staged, nil
}

func (s *Sink) replace(ctx context.Context, tx *sql.Tx, t *domain.Table) (int64, error) {
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+QuoteIdent(s.cfg.Table)); err != nil {
		return 0, fmt.Errorf("drop: %w", err)
	}
	if _, err := tx.ExecContext(ctx, CreateTableSQL(s.cfg.Table, t.Columns)); err != nil {
		return 0, fmt.Errorf("create: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, InsertSQL(s.cfg.Table, t.ColumnNames()))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	args := make([]any, len(t.Columns))
	for _, row := range t.Rows {
		for i := range t.Columns {
			args[i] = nil
			if i < len(row) {
				args[i] = sqlValue(row[i])
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return inserted, fmt.Errorf("insert row %d: %w", inserted, err)
		}
		inserted++
	}
	return inserted, nil
}

// QuoteIdent quotes name as a SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ColumnAffinity maps a column type to a SQLite column type.
func ColumnAffinity(t domain.ColumnType) string {
	switch t {
	case domain.TypeNumber:
		return "REAL"
	case domain.TypeBool:
		return "INTEGER"
	case domain.TypeDate:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// CreateTableSQL is the CREATE TABLE statement for cols.
func CreateTableSQL(table string, cols []domain.Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = QuoteIdent(c.Name) + " " + ColumnAffinity(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(table), strings.Join(defs, ", "))
}

// InsertSQL is a single-row INSERT with one placeholder per column.
func InsertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdent(c)
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

func sqlValue(v domain.Value) any {
	switch v.Kind {
	case domain.KindText:
		return v.Str
	case domain.KindNumber:
		return v.Num
	case domain.KindDate:
		return v.Time.Format(domain.DateTimeLayout)
	case domain.KindBool:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return nil
	}
}

// stagedTx publishes the rows by committing the transaction. Either way
// the connection is closed.
type stagedTx struct {
	tx   *sql.Tx
	db   *sql.DB
	done bool
}

func (s *stagedTx) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	defer s.db.Close()
	if err := s.tx.Commit(); err != nil {
		return apperrors.NewStorageError("sqlite: commit", err)
	}
	return nil
}

func (s *stagedTx) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	defer s.db.Close()
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return apperrors.NewStorageError("sqlite: rollback", err)
	}
	return nil
}
