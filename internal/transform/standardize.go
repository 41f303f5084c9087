package transform

import (
	"context"

	"golang.org/x/text/cases"

	apperrors "etlcli/internal/errors"
	"etlcli/pkg/contracts/domain"
)

// DefaultStatusMapping maps folded raw status values to canonical labels.
var DefaultStatusMapping = map[string]string{
	"approved":  "Approved",
	"pending":   "Pending",
	"rejected":  "Rejected",
	"aprovado":  "Aprovado",
	"pendente":  "Pendente",
	"rejeitado": "Rejeitado",
}

// CategoryStandardizer rewrites the status column to canonical labels using a
// case-insensitive lookup.
type CategoryStandardizer struct {
	statusColumn string
	mapping      map[string]string
}

// NewCategoryStandardizer creates a standardizer. The schema mapping replaces
// DefaultStatusMapping when set.
func NewCategoryStandardizer(schema domain.Schema) *CategoryStandardizer {
	raw := schema.StatusMapping
	if len(raw) == 0 {
		raw = DefaultStatusMapping
	}
	mapping := make(map[string]string, len(raw))
	for k, v := range raw {
		mapping[foldKey(k)] = v
	}
	return &CategoryStandardizer{
		statusColumn: schema.Columns.Name(domain.RoleStatus),
		mapping:      mapping,
	}
}

// Name implements Transform
func (s *CategoryStandardizer) Name() string { return "standardize" }

// Apply implements Transform
func (s *CategoryStandardizer) Apply(_ context.Context, t *domain.Table) (*domain.Table, apperrors.Issues, error) {
	out := t.Clone()
	i := out.Index(s.statusColumn)
	if i < 0 {
		return out, nil, nil
	}
	for _, row := range out.Rows {
		if i >= len(row) || row[i].Kind != domain.KindText {
			continue
		}
		if label, ok := s.Lookup(row[i].Str); ok {
			row[i] = domain.Text(label)
		}
	}
	return out, nil, nil
}

// Lookup returns the canonical label of raw.
func (s *CategoryStandardizer) Lookup(raw string) (string, bool) {
	label, ok := s.mapping[foldKey(raw)]
	return label, ok
}

// foldKey is the comparison key of a category value. A cases.Caser keeps
// state, so each call builds its own.
func foldKey(s string) string {
	return cases.Fold().String(normalizeText(s))
}
