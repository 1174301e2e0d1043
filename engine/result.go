package engine

import (
	"encoding/json"
	"strings"
)

// ============================================================================
// RESULT — Immutable pivot output
// ============================================================================
// Rows are key tuples over Index(); columns are ColumnKeys. Every operation
// on a Result returns a new Result. Row slices may be shared between results
// because nothing writes to them after construction.
// ============================================================================

// Result is a pivoted table.
type Result struct {
	index   []string    // row key names
	colKeys []string    // column key names
	columns []ColumnKey // result columns
	rowKeys [][]any     // per row: key tuple
	cells   [][]any     // per row: one cell per column
	margin  []bool      // per row: margin row flag
}

// Len returns the number of rows, margin row included.
func (r *Result) Len() int { return len(r.rowKeys) }

// Width returns the number of result columns.
func (r *Result) Width() int { return len(r.columns) }

// Index returns the row key names.
func (r *Result) Index() []string { return append([]string(nil), r.index...) }

// ColumnNames returns the column key names.
func (r *Result) ColumnNames() []string { return append([]string(nil), r.colKeys...) }

// Columns returns the result column labels in order.
func (r *Result) Columns() []ColumnKey {
	out := make([]ColumnKey, len(r.columns))
	for i, c := range r.columns {
		out[i] = c
		out[i].Keys = append([]any(nil), c.Keys...)
	}
	return out
}

// Column returns the label of column j.
func (r *Result) Column(j int) ColumnKey {
	c := r.columns[j]
	c.Keys = append([]any(nil), c.Keys...)
	return c
}

// RowKey returns the key tuple of row i.
func (r *Result) RowKey(i int) []any { return append([]any(nil), r.rowKeys[i]...) }

// Cell returns the value at row i, column j.
func (r *Result) Cell(i, j int) any { return r.cells[i][j] }

// IsMarginRow reports whether row i is the margin row.
func (r *Result) IsMarginRow(i int) bool { return r.margin[i] }

// ColumnIndex returns the position of col, or -1.
func (r *Result) ColumnIndex(col ColumnKey) int {
	for j, c := range r.columns {
		if c.Equal(col) {
			return j
		}
	}
	return -1
}

// FindColumn resolves a label produced by ColumnKey.String ("Price|mean|CPU").
func (r *Result) FindColumn(label string) (ColumnKey, error) {
	label = strings.TrimSpace(label)
	for _, c := range r.columns {
		if c.String() == label {
			return r.Column(r.ColumnIndex(c)), nil
		}
	}
	return ColumnKey{}, &SpecError{Field: "sort", Column: label, Reason: "no such result column"}
}

// Lookup returns the cell addressed by a row key tuple and a column label.
func (r *Result) Lookup(rowKey []any, col ColumnKey) (any, bool) {
	j := r.ColumnIndex(col)
	if j < 0 {
		return nil, false
	}
	for i, k := range r.rowKeys {
		if len(k) == len(rowKey) && compareTuples(k, rowKey) == 0 {
			return r.cells[i][j], true
		}
	}
	return nil, false
}

// hasKey reports whether name is a row key.
func (r *Result) hasKey(name string) bool {
	for _, n := range r.index {
		if n == name {
			return true
		}
	}
	return false
}

// withRows builds a new Result from a selection of rows, in the given order.
func (r *Result) withRows(rows []int) *Result {
	out := &Result{
		index:   r.index,
		colKeys: r.colKeys,
		columns: r.columns,
		rowKeys: make([][]any, len(rows)),
		cells:   make([][]any, len(rows)),
		margin:  make([]bool, len(rows)),
	}
	for n, i := range rows {
		out.rowKeys[n] = r.rowKeys[i]
		out.cells[n] = r.cells[i]
		out.margin[n] = r.margin[i]
	}
	return out
}

type jsonRow struct {
	Key    []any `json:"key"`
	Cells  []any `json:"cells"`
	Margin bool  `json:"margin,omitempty"`
}

type jsonResult struct {
	Index   []string    `json:"index"`
	Columns []string    `json:"columnKeys,omitempty"`
	Labels  []ColumnKey `json:"columns"`
	Rows    []jsonRow   `json:"rows"`
}

// MarshalJSON encodes the result as index names, column labels and rows.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := jsonResult{
		Index:   r.index,
		Columns: r.colKeys,
		Labels:  r.columns,
		Rows:    make([]jsonRow, len(r.rowKeys)),
	}
	for i := range r.rowKeys {
		out.Rows[i] = jsonRow{Key: r.rowKeys[i], Cells: r.cells[i], Margin: r.margin[i]}
	}
	return json.Marshal(out)
}
