package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/schema"
)

// maxSamples caps the sample values shown per column in text output.
const maxSamples = 3

// Schema writes a dataset summary: name, rows, columns, memory, then one line
// per column and the suggested pivot. Format is "table" or "json".
func Schema(w io.Writer, sch *schema.Config, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		doc := struct {
			Schema    *schema.Config `json:"schema"`
			Suggested engine.Spec    `json:"suggestedSpec"`
		}{sch, sch.SuggestSpec()}
		return errors.Wrap(enc.Encode(doc), "failed to encode schema")
	case "", "table":
	default:
		return errors.Errorf("unknown schema format %q", format)
	}

	var out strings.Builder
	out.WriteString(titleStyle.Render(sch.Name))
	out.WriteString("\n")
	fmt.Fprintf(&out, "Rows         : %d\n", sch.Rows)
	fmt.Fprintf(&out, "Columns      : %d\n", len(sch.Columns))
	fmt.Fprintf(&out, "Memory usage : %s\n\n", schema.ByteSize(sch.MemoryBytes))

	rows := make([][]string, 0, len(sch.Columns))
	for _, c := range sch.Columns {
		samples := c.SampleValues
		if len(samples) > maxSamples {
			samples = samples[:maxSamples]
		}
		role := string(c.SuggestedRole)
		if c.SkipReason != "" {
			role += " (" + c.SkipReason + ")"
		}
		rows = append(rows, []string{
			c.Key,
			string(c.Kind),
			role,
			strconv.Itoa(c.NullCount),
			strconv.Itoa(c.Cardinality),
			strings.Join(samples, ", "),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("Column", "Kind", "Role", "Nulls", "Distinct", "Samples").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 || col == 4 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})
	out.WriteString(t.Render())
	out.WriteString("\n")

	if spec := sch.SuggestSpec(); len(spec.Index) > 0 {
		fmt.Fprintf(&out, "\nSuggested pivot: index=%v columns=%v values=%v aggfunc=sum\n",
			spec.Index, spec.Columns, spec.Values)
	}

	_, err := io.WriteString(w, out.String())
	return err
}
