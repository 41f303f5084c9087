package transform

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "etlcli/internal/errors"
	"etlcli/pkg/contracts/domain"
)

// Transform is one pass of the Transform phase. Apply must not modify its
// input; it returns a new table plus the non-fatal issues it found.
type Transform interface {
	Name() string
	Apply(ctx context.Context, t *domain.Table) (*domain.Table, apperrors.Issues, error)
}

// Chain runs transforms in order, feeding each one the previous output.
type Chain struct {
	steps  []Transform
	logger *slog.Logger
}

// NewChain creates a chain of the given transforms.
func NewChain(logger *slog.Logger, steps ...Transform) *Chain {
	return &Chain{steps: steps, logger: logger}
}

// Add appends a transform to the chain.
func (c *Chain) Add(t Transform) *Chain {
	c.steps = append(c.steps, t)
	return c
}

// Names returns the transform names in execution order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.steps))
	for i, s := range c.steps {
		names[i] = s.Name()
	}
	return names
}

// Run applies every transform. It stops at the first error or when ctx is done.
func (c *Chain) Run(ctx context.Context, t *domain.Table) (*domain.Table, apperrors.Issues, error) {
	var all apperrors.Issues
	cur := t
	for _, step := range c.steps {
		if err := ctx.Err(); err != nil {
			return nil, all, err
		}
		next, issues, err := step.Apply(ctx, cur)
		if err != nil {
			return nil, all, fmt.Errorf("%s: %w", step.Name(), err)
		}
		for _, is := range issues {
			level := slog.LevelWarn
			if is.Kind == apperrors.IssueDuplicateInfo {
				level = slog.LevelInfo
			}
			c.logger.Log(ctx, level, "Data issue",
				slog.String("transform", step.Name()),
				slog.String("kind", string(is.Kind)),
				slog.String("column", is.Column),
				slog.Int("count", is.Count),
				slog.String("message", is.Message))
		}
		c.logger.DebugContext(ctx, "Transform applied",
			slog.String("transform", step.Name()),
			slog.Int("rows", next.Len()),
			slog.Int("columns", len(next.Columns)))
		all = append(all, issues...)
		cur = next
	}
	return cur, all, nil
}

// DefaultChain is Clean, Coerce, Derive, Aggregate, Standardize over schema.
func DefaultChain(logger *slog.Logger, schema domain.Schema, clock Clock) *Chain {
	return NewChain(logger,
		NewCleaner(schema),
		NewTypeCoercer(schema),
		NewDerivedColumnBuilder(schema, clock),
		NewAggregator(schema),
		NewCategoryStandardizer(schema),
	)
}
