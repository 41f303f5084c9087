package transform

import (
	"context"
	"log/slog"

	apperrors "etlcli/internal/errors"
	"etlcli/pkg/contracts/domain"
)

// ValidationSummary holds the counts found by Validator. It never carries rows.
type ValidationSummary struct {
	Rows            int              `json:"rows"`
	RangeViolations int              `json:"range_violations"`
	NullCounts      map[string]int   `json:"null_counts"`
	Extensions      []string         `json:"extension_columns,omitempty"`
	Issues          apperrors.Issues `json:"issues,omitempty"`
}

// Validator checks required columns, amount bounds and nulls.
type Validator struct {
	schema domain.Schema
	logger *slog.Logger
}

// NewValidator creates a validator. A nil logger uses slog.Default.
func NewValidator(schema domain.Schema, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{schema: schema, logger: logger}
}

// Validate returns a *apperrors.SchemaError when a required column is missing.
// Range and null findings are returned as warnings in the summary.
func (v *Validator) Validate(ctx context.Context, t *domain.Table) (ValidationSummary, error) {
	var missing []string
	for _, name := range v.schema.Required {
		if !t.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return ValidationSummary{}, apperrors.NewSchemaError(missing)
	}

	summary := ValidationSummary{
		Rows:       t.Len(),
		NullCounts: make(map[string]int),
		Extensions: v.schema.Extensions(t),
	}
	if len(summary.Extensions) > 0 {
		v.logger.DebugContext(ctx, "Passing through extension columns",
			slog.Any("columns", summary.Extensions))
	}

	amountCol := v.schema.Columns.Name(domain.RoleAmount)
	if amounts := t.Values(amountCol); amounts != nil {
		for _, a := range amounts {
			f, ok := a.Float()
			if !ok && a.Kind == domain.KindText {
				f, ok = ParseNumber(a.Str)
			}
			if ok && (f < v.schema.AmountMin || f > v.schema.AmountMax) {
				summary.RangeViolations++
			}
		}
		if summary.RangeViolations > 0 {
			is := apperrors.NewRangeWarning(amountCol, summary.RangeViolations, v.schema.AmountMin, v.schema.AmountMax)
			summary.Issues = append(summary.Issues, is)
			v.logger.WarnContext(ctx, "Amount outside validation range",
				slog.String("column", amountCol),
				slog.Int("count", is.Count),
				slog.Float64("min", v.schema.AmountMin),
				slog.Float64("max", v.schema.AmountMax))
		}
	}

	for i, col := range t.Columns {
		nulls := 0
		for _, row := range t.Rows {
			if i >= len(row) || row[i].IsNull() {
				nulls++
			}
		}
		summary.NullCounts[col.Name] = nulls
		if nulls > 0 {
			summary.Issues = append(summary.Issues, apperrors.NewNullWarning(col.Name, nulls))
			v.logger.WarnContext(ctx, "Null values found",
				slog.String("column", col.Name),
				slog.Int("count", nulls))
		}
	}
	return summary, nil
}
