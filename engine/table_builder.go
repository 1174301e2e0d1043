package engine

import (
	"strings"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from a Result
// ============================================================================
// Header levels: value column, function, then one level per column key.
// Row key names head the key columns on the last header level.
// ============================================================================

// BuildTable flattens a Result into render-ready strings.
func BuildTable(r *Result, title string) *TableData {
	levels := 2 + len(r.colKeys)
	td := &TableData{
		Title:   title,
		Headers: make([][]string, levels),
		Rows:    make([][]string, 0, r.Len()),
		Margin:  make([]bool, 0, r.Len()),
		Columns: make([]Column, 0, len(r.index)+len(r.columns)),
	}

	for _, name := range r.index {
		td.Columns = append(td.Columns, Column{Key: name, Label: name, Type: "key", Align: "left"})
	}
	for _, c := range r.columns {
		td.Columns = append(td.Columns, Column{Key: c.String(), Label: columnLabel(c), Type: "number", Align: "right"})
	}

	for l := 0; l < levels; l++ {
		row := make([]string, 0, len(td.Columns))
		for _, name := range r.index {
			if l == levels-1 {
				row = append(row, name)
			} else {
				row = append(row, "")
			}
		}
		for _, c := range r.columns {
			row = append(row, headerPart(c, l))
		}
		td.Headers[l] = row
	}

	for i := 0; i < r.Len(); i++ {
		row := make([]string, 0, len(td.Columns))
		for _, k := range r.rowKeys[i] {
			row = append(row, FormatValue(k))
		}
		for _, v := range r.cells[i] {
			row = append(row, FormatValue(v))
		}
		td.Rows = append(td.Rows, row)
		td.Margin = append(td.Margin, r.margin[i])
	}
	return td
}

func headerPart(c ColumnKey, level int) string {
	switch level {
	case 0:
		return c.Value
	case 1:
		return string(c.Func)
	}
	if k := level - 2; k < len(c.Keys) {
		return FormatValue(c.Keys[k])
	}
	return ""
}

// columnLabel is a single-line label: "Price mean CPU".
func columnLabel(c ColumnKey) string {
	parts := []string{c.Value, string(c.Func)}
	for _, k := range c.Keys {
		if s := FormatValue(k); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
