package engine

import "testing"

// ── Test Data ─────────────────────────────────────────────────────────────────

var salesColumns = []string{"Manager", "Rep", "Product", "Price", "Quantity", "Status"}

// salesFunnel is a small sales pipeline: two managers, five reps, four products.
// Price totals: Debra Henley 235000, Fred Anderson 187000, all 422000.
func salesFunnel() *SliceTable {
	raw := [][]any{
		{"Debra Henley", "Craig Booker", "CPU", 30000, 1, "presented"},
		{"Debra Henley", "Craig Booker", "Software", 10000, 1, "presented"},
		{"Debra Henley", "Craig Booker", "Maintenance", 5000, 2, "pending"},
		{"Debra Henley", "Craig Booker", "CPU", 35000, 1, "declined"},
		{"Debra Henley", "Daniel Hilton", "CPU", 65000, 2, "won"},
		{"Debra Henley", "Daniel Hilton", "CPU", 40000, 1, "pending"},
		{"Debra Henley", "Daniel Hilton", "Software", 10000, 1, "presented"},
		{"Debra Henley", "John Smith", "Maintenance", 5000, 2, "pending"},
		{"Debra Henley", "John Smith", "CPU", 35000, 1, "declined"},
		{"Fred Anderson", "Cedric Moss", "CPU", 95000, 3, "presented"},
		{"Fred Anderson", "Cedric Moss", "Maintenance", 5000, 1, "won"},
		{"Fred Anderson", "Cedric Moss", "Software", 10000, 1, "won"},
		{"Fred Anderson", "Wendy Yule", "CPU", 65000, 3, "won"},
		{"Fred Anderson", "Wendy Yule", "Maintenance", 7000, 3, "won"},
		{"Fred Anderson", "Wendy Yule", "Monitor", 5000, 2, "presented"},
	}
	return tableOf(salesColumns, raw)
}

func tableOf(columns []string, raw [][]any) *SliceTable {
	rows := make([]Row, len(raw))
	for i, vals := range raw {
		r := make(Row, len(columns))
		for j, c := range columns {
			r[c] = vals[j]
		}
		rows[i] = r
	}
	return NewTable(columns, rows)
}

func col(value string, fn AggFunc, keys ...any) ColumnKey {
	return ColumnKey{Value: value, Func: fn, Keys: keys}
}

func marginCol(value string, fn AggFunc, keys ...any) ColumnKey {
	return ColumnKey{Value: value, Func: fn, Keys: keys, Margin: true}
}

func mustPivot(t testing.TB, table Table, spec Spec) *Result {
	t.Helper()
	r, err := Pivot(table, spec)
	if err != nil {
		t.Fatalf("Pivot failed: %v", err)
	}
	return r
}

func rowKeys(r *Result) [][]any {
	out := make([][]any, r.Len())
	for i := range out {
		out[i] = r.RowKey(i)
	}
	return out
}

func cell(t testing.TB, r *Result, key []any, c ColumnKey) any {
	t.Helper()
	v, ok := r.Lookup(key, c)
	if !ok {
		t.Fatalf("no cell for row %v column %s", key, c)
	}
	return v
}
