package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etlcli/internal/config"
	apperrors "etlcli/internal/errors"
	"etlcli/internal/shared/testutil"
	"etlcli/pkg/contracts/domain"
)

func result() *domain.Result {
	return &domain.Result{Table: testutil.NewTable([]domain.Column{
		{Name: "ID", Type: domain.TypeText},
		{Name: "Date", Type: domain.TypeDate},
		{Name: "Amount", Type: domain.TypeNumber},
		{Name: "Is_Outlier", Type: domain.TypeBool},
		{Name: `Odd "Name"`, Type: domain.TypeCategory},
	},
		[]any{"T1", testutil.Date(2024, 1, 5), 1500.5, false, "Vendas"},
		[]any{"T2", nil, nil, true, "TI"},
	)}
}

func openDB(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+QuoteIdent(table)).Scan(&n))
	return n
}

func TestStatements(t *testing.T) {
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
	assert.Equal(t,
		`CREATE TABLE "t" ("ID" TEXT, "Amount" REAL, "Date" TIMESTAMP, "Flag" INTEGER, "Dept" TEXT)`,
		CreateTableSQL("t", []domain.Column{
			{Name: "ID", Type: domain.TypeText},
			{Name: "Amount", Type: domain.TypeNumber},
			{Name: "Date", Type: domain.TypeDate},
			{Name: "Flag", Type: domain.TypeBool},
			{Name: "Dept", Type: domain.TypeCategory},
		}))
	assert.Equal(t, `INSERT INTO "t" ("A", "B") VALUES (?, ?)`, InsertSQL("t", []string{"A", "B"}))
}

func TestSink_StageAndCommit(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "etl.db")
	logger, h := testutil.NewTestLogger(t)
	sink := NewSink(config.SQLiteConfig{DSN: dsn, Table: "processed_data"}, logger)
	assert.Equal(t, "sqlite", sink.Name())

	staged, err := sink.Stage(context.Background(), result())
	require.NoError(t, err)
	require.NoError(t, staged.Commit())
	assert.True(t, h.HasAttr("rows", int64(2)))

	db := openDB(t, dsn)
	assert.Equal(t, 2, countRows(t, db, "processed_data"))

	var (
		date    sql.NullString
		amount  sql.NullFloat64
		outlier int
		dept    string
	)
	row := db.QueryRow(`SELECT "Date", "Amount", "Is_Outlier", "Odd ""Name""" FROM processed_data WHERE "ID" = 'T1'`)
	require.NoError(t, row.Scan(&date, &amount, &outlier, &dept))
	assert.Contains(t, date.String, "2024-01-05")
	assert.Equal(t, 1500.5, amount.Float64)
	assert.Equal(t, 0, outlier)
	assert.Equal(t, "Vendas", dept)

	row = db.QueryRow(`SELECT "Amount" FROM processed_data WHERE "ID" = 'T2'`)
	require.NoError(t, row.Scan(&amount))
	assert.False(t, amount.Valid)
}

func TestSink_ReplacesTable(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "etl.db")
	sink := NewSink(config.SQLiteConfig{DSN: dsn, Table: "runs"}, nil)

	for i := 0; i < 2; i++ {
		staged, err := sink.Stage(context.Background(), result())
		require.NoError(t, err)
		require.NoError(t, staged.Commit())
	}

	assert.Equal(t, 2, countRows(t, openDB(t, dsn), "runs"))
}

func TestSink_RollbackKeepsPreviousTable(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "etl.db")
	sink := NewSink(config.SQLiteConfig{DSN: dsn, Table: "runs"}, nil)

	staged, err := sink.Stage(context.Background(), result())
	require.NoError(t, err)
	require.NoError(t, staged.Commit())

	res := result()
	res.Table.Append(domain.Row{domain.Text("T3"), domain.Null, domain.Number(1), domain.Bool(false), domain.Text("TI")})
	staged, err = sink.Stage(context.Background(), res)
	require.NoError(t, err)
	require.NoError(t, staged.Rollback())
	require.NoError(t, staged.Rollback(), "second rollback is a no-op")

	assert.Equal(t, 2, countRows(t, openDB(t, dsn), "runs"))
}

func TestSink_Errors(t *testing.T) {
	_, err := NewSink(config.SQLiteConfig{Table: "t"}, nil).Stage(context.Background(), result())
	assert.ErrorIs(t, err, apperrors.ErrConfig)

	dsn := filepath.Join(t.TempDir(), "etl.db")
	_, err = NewSink(config.SQLiteConfig{DSN: dsn, Table: "t"}, nil).Stage(context.Background(), &domain.Result{})
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}
