package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is. Every error returned by Pivot matches exactly one.
var (
	ErrInvalidSpec        = errors.New("invalid pivot spec")
	ErrInvalidAggregation = errors.New("invalid aggregation")
)

// SpecError reports a spec that cannot be applied to the table:
// a missing column, a duplicated key, an unknown function, or nothing to pivot.
type SpecError struct {
	Field  string // "index", "columns", "values", "aggregations", "sort", "filter"
	Column string // offending column (empty if spec-level)
	Reason string
}

func (e *SpecError) Error() string {
	parts := []string{ErrInvalidSpec.Error()}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column=%q", e.Column))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	return strings.Join(parts, " - ")
}

func (e *SpecError) Is(target error) bool { return target == ErrInvalidSpec }

// AggregationError reports a numeric function applied to a column holding a
// non-numeric value.
type AggregationError struct {
	Column string
	Func   AggFunc
	Value  any // first offending value
	Row    int // input row index of Value (-1 if unknown)
}

func (e *AggregationError) Error() string {
	parts := []string{
		ErrInvalidAggregation.Error(),
		fmt.Sprintf("%s(%s) requires numeric values", e.Func, e.Column),
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v (%T)", e.Value, e.Value))
	}
	if e.Row >= 0 {
		parts = append(parts, fmt.Sprintf("at row %d", e.Row))
	}
	return strings.Join(parts, " - ")
}

func (e *AggregationError) Is(target error) bool { return target == ErrInvalidAggregation }

func missingColumn(field, column string) *SpecError {
	return &SpecError{Field: field, Column: column, Reason: "column does not exist"}
}
