package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// PIVOT ENGINE TYPES
// ============================================================================
// Row/Table describe the input, Spec describes the reshape, Result is the
// immutable output. The engine has no I/O: loaders live in helpers/.
// ============================================================================

// ============================================================================
// ROW — Generic data row
// ============================================================================

// Row maps column name to a scalar cell.
// Cells are nil, a Go number (int*, uint*, float*), a string or a bool.
type Row map[string]any

// ============================================================================
// AGGREGATION FUNCTIONS
// ============================================================================

// AggFunc names a reduction over the values of one bucket.
type AggFunc string

const (
	Sum   AggFunc = "sum"
	Mean  AggFunc = "mean"
	Count AggFunc = "count"
	Min   AggFunc = "min"
	Max   AggFunc = "max"
)

// DefaultAggFunc is applied to value columns listed without functions.
const DefaultAggFunc = Mean

// DefaultMarginsName labels the margin row and margin columns.
const DefaultMarginsName = "All"

// Valid reports whether f is one of the supported functions.
func (f AggFunc) Valid() bool {
	switch f {
	case Sum, Mean, Count, Min, Max:
		return true
	}
	return false
}

// Numeric reports whether f only accepts numeric input.
func (f AggFunc) Numeric() bool {
	return f != Count
}

// ParseAggFunc accepts the canonical names plus the usual aliases
// ("avg", "average", "len", "size", "total", "minimum", "maximum").
func ParseAggFunc(s string) (AggFunc, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum", "total":
		return Sum, nil
	case "mean", "avg", "average":
		return Mean, nil
	case "count", "len", "size":
		return Count, nil
	case "min", "minimum":
		return Min, nil
	case "max", "maximum":
		return Max, nil
	}
	return "", &SpecError{Field: "aggregations", Reason: fmt.Sprintf("unknown aggregation function %q", s)}
}

// ============================================================================
// SPEC — What the engine should compute
// ============================================================================

// Spec defines a pivot: row keys, column keys, value columns and how to
// reduce them. The zero value of every optional field is meaningful.
type Spec struct {
	Index        []string             `json:"index"`                  // row keys
	Columns      []string             `json:"columns,omitempty"`      // column keys
	Values       []string             `json:"values,omitempty"`       // value columns (empty → derived)
	Aggregations map[string][]AggFunc `json:"aggregations,omitempty"` // value column → functions (empty → mean)
	FillValue    any                  `json:"fillValue,omitempty"`    // written to undefined cells
	Margins      bool                 `json:"margins,omitempty"`      // append "All" row/columns
	MarginsName  string               `json:"marginsName,omitempty"`  // label for margins (empty → "All")
}

// AggregateAll returns a copy of s with every value column mapped to fns.
func (s Spec) AggregateAll(fns ...AggFunc) Spec {
	out := s
	out.Aggregations = make(map[string][]AggFunc, len(s.Values))
	for _, v := range s.Values {
		out.Aggregations[v] = append([]AggFunc(nil), fns...)
	}
	return out
}

func (s Spec) marginsName() string {
	if s.MarginsName == "" {
		return DefaultMarginsName
	}
	return s.MarginsName
}

// ============================================================================
// COLUMN KEY — Label of one result column
// ============================================================================

// ColumnKey identifies a result column: the value column, the function
// applied to it and the column-key combination (empty without column keys).
type ColumnKey struct {
	Value  string  `json:"value"`
	Func   AggFunc `json:"func"`
	Keys   []any   `json:"keys,omitempty"`
	Margin bool    `json:"margin,omitempty"`
}

// labelSep separates the parts of a ColumnKey label.
const labelSep = "|"

// String renders the key as "Value|func|key1|key2".
func (c ColumnKey) String() string {
	parts := make([]string, 0, 2+len(c.Keys))
	parts = append(parts, c.Value, string(c.Func))
	for _, k := range c.Keys {
		parts = append(parts, FormatValue(k))
	}
	return strings.Join(parts, labelSep)
}

// Equal compares two keys by value, margin flag included.
func (c ColumnKey) Equal(o ColumnKey) bool {
	if c.Value != o.Value || c.Func != o.Func || c.Margin != o.Margin || len(c.Keys) != len(o.Keys) {
		return false
	}
	for i := range c.Keys {
		if compareValues(c.Keys[i], o.Keys[i]) != 0 {
			return false
		}
	}
	return true
}

// ============================================================================
// TABLE DATA — Render-ready output
// ============================================================================

// TableData is a Result flattened to strings for renderers.
type TableData struct {
	Title   string     `json:"title"`
	Headers [][]string `json:"headers"` // one row per header level
	Rows    [][]string `json:"rows"`
	Margin  []bool     `json:"margin"` // per row: true for the margin row
	Columns []Column   `json:"columns"`
}

// Column describes one rendered column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "key", "number"
	Align string `json:"align"` // "left", "right"
}
