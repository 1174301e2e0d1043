package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/spektr-org/pivot/helpers"
)

const funnelCSV = `Manager,Product,Price
Debra Henley,CPU,30000
Debra Henley,Software,10000
Debra Henley,CPU,65000
Fred Anderson,CPU,95000
Fred Anderson,Monitor,5000
`

const pivotsYAML = `source: funnel.csv
format: csv
log:
  level: error
pivots:
  - name: by-manager
    index: [Manager]
    values: [Price]
    aggfunc: [sum]
    margins: true
  - name: by-product
    index: [Product]
    values: [Price]
    aggfunc: [count]
    sort: {column: "Price|count", ascending: false}
`

// workspace writes the data file and config into a temp dir.
func workspace(t *testing.T, config string) string {
	t.Helper()
	dir := t.TempDir()
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "funnel.csv"), []byte(funnelCSV), 0o644))
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "pivots.yaml"), []byte(config), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func readCSV(t *testing.T, s string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(s)).ReadAll()
	assert.NilError(t, err)
	return records
}

func TestRunWritesResultsInConfigOrder(t *testing.T) {
	dir := workspace(t, pivotsYAML)

	out, _, err := execute(t, "run", "--config", filepath.Join(dir, "pivots.yaml"))
	assert.NilError(t, err)

	blocks := strings.Split(strings.TrimSpace(out), "\n\n")
	assert.Equal(t, len(blocks), 2)

	assert.DeepEqual(t, readCSV(t, blocks[0]), [][]string{
		{"Manager", "Price|sum"},
		{"Debra Henley", "105000"},
		{"Fred Anderson", "100000"},
		{"All", "205000"},
	})
	assert.DeepEqual(t, readCSV(t, blocks[1]), [][]string{
		{"Product", "Price|count"},
		{"CPU", "3"},
		{"Monitor", "1"},
		{"Software", "1"},
	})
}

func TestRunFlagsOverrideConfig(t *testing.T) {
	dir := workspace(t, pivotsYAML)
	out := filepath.Join(dir, "report.json")

	stdout, _, err := execute(t, "run",
		"--config", filepath.Join(dir, "pivots.yaml"),
		"--format", "json",
		"--out", out,
		"--concurrency", "1")
	assert.NilError(t, err)
	assert.Equal(t, stdout, "")

	data, err := os.ReadFile(out)
	assert.NilError(t, err)

	dec := json.NewDecoder(bytes.NewReader(data))
	var titles []string
	for dec.More() {
		var doc struct {
			Title string `json:"title"`
		}
		assert.NilError(t, dec.Decode(&doc))
		titles = append(titles, doc.Title)
	}
	assert.DeepEqual(t, titles, []string{"by-manager", "by-product"})
}

func TestRunParquetWritesOneFilePerPivot(t *testing.T) {
	dir := workspace(t, pivotsYAML)
	out := filepath.Join(dir, "report.parquet")

	_, _, err := execute(t, "run",
		"--config", filepath.Join(dir, "pivots.yaml"),
		"--format", "parquet",
		"--out", out)
	assert.NilError(t, err)

	table, err := helpers.ReadParquet(context.Background(), filepath.Join(dir, "report-by-manager.parquet"))
	assert.NilError(t, err)
	defer table.Release()

	assert.DeepEqual(t, table.Columns(), []string{"Manager", "Price|sum"})
	assert.Equal(t, table.Len(), 3)
	assert.Equal(t, table.Value(2, "Price|sum"), int64(205000))

	_, err = os.Stat(filepath.Join(dir, "report-by-product.parquet"))
	assert.NilError(t, err)
}

func TestRunQueryAndRound(t *testing.T) {
	dir := workspace(t, `source: funnel.csv
format: csv
pivots:
  - name: mean-price
    index: [Manager]
    values: [Price]
    aggfunc: [mean]
    margins: true
    round: -3
    query: Manager != "Fred Anderson"
`)

	out, _, err := execute(t, "run", "--config", filepath.Join(dir, "pivots.yaml"))
	assert.NilError(t, err)
	assert.DeepEqual(t, readCSV(t, out), [][]string{
		{"Manager", "Price|mean"},
		{"Debra Henley", "35000"},
		{"All", "41000"},
	})
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
		args   []string
		want   string
	}{
		{
			name:   "unknown column",
			config: "source: funnel.csv\npivots:\n  - name: bad\n    index: [Region]\n    values: [Price]\n",
			want:   `pivot "bad"`,
		},
		{
			name:   "text under sum",
			config: "source: funnel.csv\npivots:\n  - name: bad\n    index: [Manager]\n    values: [Product]\n    aggfunc: [sum]\n",
			want:   "Product",
		},
		{
			name:   "unknown format",
			config: pivotsYAML,
			args:   []string{"--format", "xml"},
			want:   "unknown format",
		},
		{
			name:   "missing data file",
			config: pivotsYAML,
			args:   []string{"--file", "nope.csv"},
			want:   "nope.csv",
		},
		{
			name:   "unsupported data file",
			config: pivotsYAML,
			args:   []string{"--file", "funnel.xlsx"},
			want:   "unsupported data file",
		},
		{
			name:   "bad query",
			config: "source: funnel.csv\npivots:\n  - name: bad\n    index: [Manager]\n    values: [Price]\n    query: Manager ==\n",
			want:   "query syntax error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := workspace(t, tt.config)
			args := append([]string{"run", "--config", filepath.Join(dir, "pivots.yaml")}, tt.args...)
			_, _, err := execute(t, args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestRunRequiresConfig(t *testing.T) {
	_, _, err := execute(t, "run")
	assert.ErrorContains(t, err, `"config" not set`)
}

func TestDiscover(t *testing.T) {
	dir := workspace(t, pivotsYAML)

	out, _, err := execute(t, "discover", "--file", filepath.Join(dir, "funnel.csv"), "--format", "json")
	assert.NilError(t, err)

	var doc struct {
		Schema struct {
			Name string `json:"name"`
			Rows int    `json:"rows"`
		} `json:"schema"`
		SuggestedSpec struct {
			Index  []string `json:"index"`
			Values []string `json:"values"`
		} `json:"suggestedSpec"`
	}
	assert.NilError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, doc.Schema.Name, "funnel")
	assert.Equal(t, doc.Schema.Rows, 5)
	assert.DeepEqual(t, doc.SuggestedSpec.Values, []string{"Price"})
}

func TestDiscoverTable(t *testing.T) {
	dir := workspace(t, pivotsYAML)

	out, _, err := execute(t, "discover", "--file", filepath.Join(dir, "funnel.csv"))
	assert.NilError(t, err)
	assert.Check(t, is.Contains(out, "Rows         : 5"))
	assert.Check(t, is.Contains(out, "Manager"))
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	assert.NilError(t, err)
	assert.Equal(t, out, "pivot "+version+"\n")
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, outputPath("report.parquet", "a", 1), "report.parquet")
	assert.Equal(t, outputPath("out/report.parquet", "by-manager", 2), "out/report-by-manager.parquet")
	assert.Equal(t, outputPath("report", "a", 2), "report-a")
}
