package engine

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestBuildTableHeaders(t *testing.T) {
	r := mustPivot(t, salesFunnel(), Spec{
		Index:        []string{"Manager"},
		Columns:      []string{"Product"},
		Values:       []string{"Price"},
		Aggregations: map[string][]AggFunc{"Price": {Sum}},
		FillValue:    0,
		Margins:      true,
	})

	td := BuildTable(r, "Price by product")

	assert.Equal(t, td.Title, "Price by product")
	assert.DeepEqual(t, td.Headers, [][]string{
		{"", "Price", "Price", "Price", "Price", "Price"},
		{"", "sum", "sum", "sum", "sum", "sum"},
		{"Manager", "CPU", "Maintenance", "Monitor", "Software", "All"},
	})
	assert.DeepEqual(t, td.Rows, [][]string{
		{"Debra Henley", "205000", "10000", "0", "20000", "235000"},
		{"Fred Anderson", "160000", "12000", "5000", "10000", "187000"},
		{"All", "365000", "22000", "5000", "30000", "422000"},
	})
	assert.DeepEqual(t, td.Margin, []bool{false, false, true})
	assert.Equal(t, td.Columns[0].Type, "key")
	assert.Equal(t, td.Columns[1].Key, "Price|sum|CPU")
	assert.Equal(t, td.Columns[1].Label, "Price sum CPU")
}

func TestBuildTableWithoutColumnKeys(t *testing.T) {
	r := Round(mustPivot(t, salesFunnel(), Spec{
		Index:  []string{"Manager", "Rep"},
		Values: []string{"Price"},
	}), 2)

	td := BuildTable(r, "")
	assert.Equal(t, len(td.Headers), 2)
	assert.DeepEqual(t, td.Headers[1], []string{"Manager", "Rep", "mean"})
	assert.DeepEqual(t, td.Rows[0], []string{"Debra Henley", "Craig Booker", "20000"})
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, FormatValue(nil), "")
	assert.Equal(t, FormatValue(40000.0), "40000")
	assert.Equal(t, FormatValue(26111.11), "26111.11")
	assert.Equal(t, FormatValue(int64(7)), "7")
	assert.Equal(t, FormatValue(true), "true")
	assert.Equal(t, FormatValue("won"), "won")
}
