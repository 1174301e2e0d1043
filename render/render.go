// Package render writes pivot results as a terminal table, CSV, JSON or Parquet.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/helpers"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	marginStyle = cellStyle.Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Write renders r in the named format: table, csv, json or parquet.
func Write(w io.Writer, r *engine.Result, title, format string) error {
	switch format {
	case "", "table":
		return Text(w, r, title)
	case "csv":
		return CSV(w, r)
	case "json":
		return JSON(w, r, title)
	case "parquet":
		return Parquet(w, r)
	}
	return errors.Errorf("unknown output format %q", format)
}

// Text draws r as a bordered table. Header levels stack inside each header
// cell; the margin row is bold.
func Text(w io.Writer, r *engine.Result, title string) error {
	td := engine.BuildTable(r, title)

	headers := make([]string, len(td.Columns))
	for j := range td.Columns {
		var parts []string
		for _, level := range td.Headers {
			if s := level[j]; s != "" {
				parts = append(parts, s)
			}
		}
		headers[j] = strings.Join(parts, "\n")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(td.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			var s lipgloss.Style
			switch {
			case row == table.HeaderRow:
				s = headerStyle
			case row >= 0 && row < len(td.Margin) && td.Margin[row]:
				s = marginStyle
			default:
				s = cellStyle
			}
			if col < len(td.Columns) && td.Columns[col].Align == "right" {
				return s.Align(lipgloss.Right)
			}
			return s
		})

	var out strings.Builder
	if td.Title != "" {
		out.WriteString(titleStyle.Render(td.Title))
		out.WriteString("\n")
	}
	out.WriteString(t.Render())
	out.WriteString("\n")

	_, err := io.WriteString(w, out.String())
	return err
}

// CSV writes one header row (row key names, then column labels such as
// "Price|sum|CPU") and one record per result row. Empty cells are blank.
func CSV(w io.Writer, r *engine.Result) error {
	cw := csv.NewWriter(w)

	header := r.Index()
	for _, c := range r.Columns() {
		header = append(header, c.String())
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}

	for i := 0; i < r.Len(); i++ {
		rec := make([]string, 0, len(header))
		for _, k := range r.RowKey(i) {
			rec = append(rec, engine.FormatValue(k))
		}
		for j := 0; j < r.Width(); j++ {
			rec = append(rec, engine.FormatValue(r.Cell(i, j)))
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "failed to write CSV row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush CSV")
}

type jsonDocument struct {
	Title  string         `json:"title,omitempty"`
	Result *engine.Result `json:"result"`
}

// JSON writes {"title": ..., "result": ...} indented.
func JSON(w io.Writer, r *engine.Result, title string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonDocument{Title: title, Result: r}); err != nil {
		return errors.Wrap(err, "failed to encode result")
	}
	return nil
}

// Parquet writes r as a single-record Parquet file.
func Parquet(w io.Writer, r *engine.Result) error {
	rec := helpers.ResultToArrow(r, memory.NewGoAllocator())
	defer rec.Release()
	return helpers.WriteParquet(w, rec)
}

// Separator is printed between results when several go to one text stream.
func Separator(w io.Writer) error {
	_, err := fmt.Fprintln(w)
	return err
}
