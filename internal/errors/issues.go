package errors

import (
	"fmt"
	"strings"
)

// SchemaError is returned when required columns are missing from the input.
// It always aborts a run.
type SchemaError struct {
	Missing []string
}

// NewSchemaError creates a schema error for the missing columns.
func NewSchemaError(missing []string) *SchemaError {
	m := make([]string, len(missing))
	copy(m, missing)
	return &SchemaError{Missing: m}
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	return fmt.Sprintf("[%s] missing required columns: %s", ErrTypeSchema, strings.Join(e.Missing, ", "))
}

// Is makes errors.Is(err, ErrSchema) hold for schema errors.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// IssueKind classifies a non-fatal finding of a run.
type IssueKind string

const (
	IssueParseWarning  IssueKind = "parse_warning"
	IssueRangeWarning  IssueKind = "range_warning"
	IssueNullWarning   IssueKind = "null_warning"
	IssueDuplicateInfo IssueKind = "duplicate_info"
)

// Issue is a non-fatal finding recorded in the run report.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Column  string    `json:"column,omitempty"`
	Count   int       `json:"count"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	if i.Column != "" {
		return fmt.Sprintf("%s(%s): %s", i.Kind, i.Column, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Kind, i.Message)
}

// NewParseWarning reports cells of column that could not be coerced.
func NewParseWarning(column string, count int) Issue {
	return Issue{
		Kind:    IssueParseWarning,
		Column:  column,
		Count:   count,
		Message: fmt.Sprintf("%d values could not be parsed", count),
	}
}

// NewRangeWarning reports rows whose value lies outside [min, max].
func NewRangeWarning(column string, count int, min, max float64) Issue {
	return Issue{
		Kind:    IssueRangeWarning,
		Column:  column,
		Count:   count,
		Message: fmt.Sprintf("%d values outside [%g, %g]", count, min, max),
	}
}

// NewNullWarning reports null cells in column.
func NewNullWarning(column string, count int) Issue {
	return Issue{
		Kind:    IssueNullWarning,
		Column:  column,
		Count:   count,
		Message: fmt.Sprintf("%d null values", count),
	}
}

// NewDuplicateInfo reports rows removed as exact duplicates.
func NewDuplicateInfo(count int) Issue {
	return Issue{
		Kind:    IssueDuplicateInfo,
		Count:   count,
		Message: fmt.Sprintf("%d duplicate rows removed", count),
	}
}

// Issues is the ordered list of findings of a run.
type Issues []Issue

// OfKind returns the issues of kind k.
func (is Issues) OfKind(k IssueKind) Issues {
	var out Issues
	for _, i := range is {
		if i.Kind == k {
			out = append(out, i)
		}
	}
	return out
}

// Total sums the counts of the issues of kind k.
func (is Issues) Total(k IssueKind) int {
	n := 0
	for _, i := range is {
		if i.Kind == k {
			n += i.Count
		}
	}
	return n
}
