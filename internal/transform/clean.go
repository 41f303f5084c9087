package transform

import (
	"context"
	"encoding/binary"
	"math"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/unicode/norm"

	apperrors "etlcli/internal/errors"
	"etlcli/pkg/contracts/domain"
)

// NotInformed replaces missing text cells.
const NotInformed = "Not Informed"

// Cleaner fills missing cells, normalizes text and drops exact duplicate rows.
type Cleaner struct {
	schema domain.Schema
}

// NewCleaner creates a cleaner. The schema is kept for symmetry with the other
// transforms; cleaning is driven by column types alone.
func NewCleaner(schema domain.Schema) *Cleaner {
	return &Cleaner{schema: schema}
}

// Name implements Transform
func (c *Cleaner) Name() string { return "clean" }

// Apply implements Transform
func (c *Cleaner) Apply(_ context.Context, t *domain.Table) (*domain.Table, apperrors.Issues, error) {
	out, removed := Clean(t)
	var issues apperrors.Issues
	if removed > 0 {
		issues = append(issues, apperrors.NewDuplicateInfo(removed))
	}
	return out, issues, nil
}

// Clean returns a copy of t where null text cells hold NotInformed, null number
// cells hold 0, text is trimmed and NFC-normalized, and duplicate rows are
// dropped keeping the first occurrence. Duplicates are detected after
// normalization, so Clean(Clean(t)) equals Clean(t).
func Clean(t *domain.Table) (*domain.Table, int) {
	normalized := t.Clone()
	for _, row := range normalized.Rows {
		for i, col := range normalized.Columns {
			if i < len(row) {
				row[i] = cleanCell(row[i], col.Type)
			}
		}
	}

	out := domain.NewTable(normalized.Columns...)
	seen := make(map[uint64][]int)
	removed := 0
	for _, row := range normalized.Rows {
		h := hashRow(row)
		if isDuplicate(out.Rows, seen[h], row) {
			removed++
			continue
		}
		seen[h] = append(seen[h], len(out.Rows))
		out.Rows = append(out.Rows, row)
	}
	return out, removed
}

func cleanCell(v domain.Value, typ domain.ColumnType) domain.Value {
	switch {
	case v.IsNull() && typ.IsText():
		return domain.Text(NotInformed)
	case v.IsNull() && typ == domain.TypeNumber:
		return domain.Number(0)
	case v.Kind == domain.KindText:
		return domain.Text(normalizeText(v.Str))
	default:
		return v
	}
}

func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func isDuplicate(kept []domain.Row, candidates []int, row domain.Row) bool {
	for _, idx := range candidates {
		if rowsEqual(kept[idx], row) {
			return true
		}
	}
	return false
}

func rowsEqual(a, b domain.Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// hashRow hashes kind and payload of every cell; it is consistent with Value.Equal.
func hashRow(row domain.Row) uint64 {
	h := xxh3.New()
	var buf [8]byte
	for _, v := range row {
		h.Write([]byte{byte(v.Kind)})
		switch v.Kind {
		case domain.KindText:
			binary.LittleEndian.PutUint64(buf[:], uint64(len(v.Str)))
			h.Write(buf[:])
			h.WriteString(v.Str)
		case domain.KindNumber:
			f := v.Num
			if f == 0 {
				f = 0 // -0 and +0 are Equal
			}
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
			h.Write(buf[:])
		case domain.KindDate:
			binary.LittleEndian.PutUint64(buf[:], uint64(v.Time.UnixNano()))
			h.Write(buf[:])
		case domain.KindBool:
			if v.Bool {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
		}
	}
	return h.Sum64()
}

// countDuplicates returns how many rows of t repeat an earlier row.
func countDuplicates(t *domain.Table) int {
	seen := make(map[uint64][]int)
	dups := 0
	for i, row := range t.Rows {
		h := hashRow(row)
		dup := false
		for _, idx := range seen[h] {
			if rowsEqual(t.Rows[idx], row) {
				dup = true
				break
			}
		}
		if dup {
			dups++
			continue
		}
		seen[h] = append(seen[h], i)
	}
	return dups
}
