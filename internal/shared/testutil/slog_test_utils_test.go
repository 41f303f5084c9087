package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etlcli/pkg/contracts/domain"
)

func TestCaptureHandler(t *testing.T) {
	t.Run("captures records and attrs", func(t *testing.T) {
		logger, h := NewTestLogger(t)
		logger.Info("run started", slog.String("run_id", "r1"))
		logger.Warn("null values", slog.Int("count", 3))

		require.Len(t, h.Records(), 2)
		assert.True(t, h.HasAttr("run_id", "r1"))
		assert.True(t, h.HasAttr("count", int64(3)))
		assert.Len(t, h.AtLevel(slog.LevelWarn), 1)
		AssertLogged(t, h, slog.LevelWarn, "null")
	})

	t.Run("derived handlers share the store", func(t *testing.T) {
		logger, h := NewTestLogger(t)
		logger.With("component", "clean").WithGroup("issue").Info("dup", slog.Int("n", 1))

		records := h.Records()
		require.Len(t, records, 1)
		assert.Equal(t, "clean", records[0].Attrs["component"])
		assert.Equal(t, int64(1), records[0].Attrs["issue.n"])
	})

	t.Run("reset", func(t *testing.T) {
		logger, h := NewTestLogger(nil)
		logger.Error("boom")
		assert.Len(t, h.Find("boo"), 1)
		h.Reset()
		assert.Empty(t, h.Records())
		AssertNoErrors(t, h)
	})
}

func TestNewTable(t *testing.T) {
	tbl := NewTable(TransactionColumns(),
		[]any{"TXN1", "2024-01-02", "Sales", "Services", 10, nil},
	)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, domain.Number(10), tbl.Get(0, "Amount"))
	assert.True(t, tbl.Get(0, "Status").IsNull())
	assert.Equal(t, domain.Date(Date(2024, 1, 2)), Cell(Date(2024, 1, 2)))
}
