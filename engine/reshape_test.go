package engine

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"
)

// ============================================================================
// SORT
// ============================================================================

func quantityByRep(t *testing.T) *Result {
	t.Helper()
	return mustPivot(t, salesFunnel(), Spec{
		Index:        []string{"Manager", "Rep"},
		Values:       []string{"Quantity"},
		Aggregations: map[string][]AggFunc{"Quantity": {Sum}},
	})
}

func reps(r *Result) []any {
	out := make([]any, r.Len())
	for i := range out {
		out[i] = r.RowKey(i)[1]
	}
	return out
}

func TestSortDescendingIsStable(t *testing.T) {
	r := quantityByRep(t)

	got, err := Sort(r, col("Quantity", Sum), false)
	assert.NilError(t, err)
	// Craig Booker and Cedric Moss both sold 5 and keep their input order.
	assert.DeepEqual(t, reps(got), []any{"Wendy Yule", "Craig Booker", "Cedric Moss", "Daniel Hilton", "John Smith"})
}

func TestSortAscendingIsStable(t *testing.T) {
	got, err := Sort(quantityByRep(t), col("Quantity", Sum), true)
	assert.NilError(t, err)
	assert.DeepEqual(t, reps(got), []any{"John Smith", "Daniel Hilton", "Craig Booker", "Cedric Moss", "Wendy Yule"})
}

func TestSortNullsLast(t *testing.T) {
	r := mustPivot(t, salesFunnel(), Spec{
		Index:        []string{"Rep"},
		Columns:      []string{"Product"},
		Values:       []string{"Price"},
		Aggregations: map[string][]AggFunc{"Price": {Sum}},
	})

	for _, asc := range []bool{true, false} {
		got, err := SortBy(r, "Price|sum|Monitor", asc)
		assert.NilError(t, err)
		assert.Equal(t, got.RowKey(0)[0], "Wendy Yule")
		for i := 1; i < got.Len(); i++ {
			assert.Equal(t, got.Cell(i, got.ColumnIndex(col("Price", Sum, "Monitor"))), nil)
		}
	}
}

func TestSortByMultiFunctionColumn(t *testing.T) {
	r := managerStatus(t)
	got, err := SortBy(r, "Price|mean|CPU", false)
	assert.NilError(t, err)

	j := got.ColumnIndex(col("Price", Mean, "CPU"))
	for i := 1; i < got.Len(); i++ {
		prev, _ := ToFloat(got.Cell(i-1, j))
		cur, _ := ToFloat(got.Cell(i, j))
		assert.Assert(t, prev >= cur, "row %d: %v before %v", i, prev, cur)
	}
}

func TestSortUnknownColumn(t *testing.T) {
	_, err := SortBy(quantityByRep(t), "Quantity|mean", true)
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = Sort(quantityByRep(t), col("Price", Sum), true)
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestSortDoesNotMutateInput(t *testing.T) {
	r := quantityByRep(t)
	before := reps(r)
	_, err := Sort(r, col("Quantity", Sum), false)
	assert.NilError(t, err)
	assert.DeepEqual(t, reps(r), before)
}

// ============================================================================
// ROUND
// ============================================================================

func TestRoundMeans(t *testing.T) {
	r := mustPivot(t, salesFunnel(), Spec{
		Index:  []string{"Manager"},
		Values: []string{"Price"},
	})

	got := Round(r, 2)
	assert.Equal(t, got.Cell(0, 0), 26111.11)
	assert.Equal(t, got.Cell(1, 0), 31166.67)
	// input untouched
	assert.Equal(t, r.Cell(0, 0), 235000.0/9)
}

func TestRoundHalfToEven(t *testing.T) {
	table := tableOf(
		[]string{"Key", "Value"},
		[][]any{{"a", 2.5}, {"b", 3.5}, {"c", -2.5}, {"d", 0.125}, {"e", 0.375}},
	)
	r := mustPivot(t, table, Spec{
		Index:        []string{"Key"},
		Values:       []string{"Value"},
		Aggregations: map[string][]AggFunc{"Value": {Sum}},
	})

	zero := Round(r, 0)
	assert.Equal(t, zero.Cell(0, 0), 2.0)
	assert.Equal(t, zero.Cell(1, 0), 4.0)
	assert.Equal(t, zero.Cell(2, 0), -2.0)

	two := Round(r, 2)
	assert.Equal(t, two.Cell(3, 0), 0.12)
	assert.Equal(t, two.Cell(4, 0), 0.38)
}

func TestRoundIsIdempotent(t *testing.T) {
	r := managerStatus(t)
	for _, d := range []int{0, 1, 2, 3} {
		once := Round(r, d)
		twice := Round(once, d)
		for i := 0; i < once.Len(); i++ {
			for j := 0; j < once.Width(); j++ {
				assert.Equal(t, twice.Cell(i, j), once.Cell(i, j), "digits %d cell %d,%d", d, i, j)
			}
		}
	}
}

func TestRoundPassesThroughNonNumeric(t *testing.T) {
	r := mustPivot(t, salesFunnel(), Spec{
		Index:        []string{"Manager"},
		Columns:      []string{"Product"},
		Values:       []string{"Price", "Quantity"},
		Aggregations: map[string][]AggFunc{"Price": {Mean}, "Quantity": {Count}},
		FillValue:    "n/a",
	})

	got := Round(r, 0)
	monitor := col("Price", Mean, "Monitor")
	v, _ := got.Lookup([]any{"Debra Henley"}, monitor)
	assert.Equal(t, v, "n/a")

	count, _ := got.Lookup([]any{"Debra Henley"}, col("Quantity", Count, "CPU"))
	assert.Equal(t, count, int64(5))
}

func TestRoundNegativeDigits(t *testing.T) {
	r := mustPivot(t, salesFunnel(), Spec{
		Index:        []string{"Manager"},
		Values:       []string{"Price"},
		Aggregations: map[string][]AggFunc{"Price": {Sum}},
	})
	got := Round(r, -4)
	assert.Equal(t, got.Cell(0, 0), int64(240000))
	assert.Equal(t, got.Cell(1, 0), int64(190000))
}

func TestRoundExtremeDigits(t *testing.T) {
	r := mustPivot(t, salesFunnel(), Spec{
		Index:        []string{"Manager"},
		Values:       []string{"Price"},
		Aggregations: map[string][]AggFunc{"Price": {Sum, Mean}},
	})

	huge := Round(r, math.MaxInt)
	assert.Equal(t, huge.Cell(0, 0), int64(235000))
	assert.Equal(t, huge.Cell(0, 1), r.Cell(0, 1))

	tiny := Round(r, math.MinInt)
	assert.Equal(t, tiny.Cell(0, 0), int64(0))
	assert.Equal(t, tiny.Cell(0, 1), 0.0)
}

func TestRoundIntegerPastInt64Range(t *testing.T) {
	table := tableOf([]string{"Key", "N"}, [][]any{{"a", int64(math.MaxInt64)}})
	r := mustPivot(t, table, Spec{
		Index:        []string{"Key"},
		Values:       []string{"N"},
		Aggregations: map[string][]AggFunc{"N": {Max}},
	})

	assert.Equal(t, Round(r, -18).Cell(0, 0), int64(9_000_000_000_000_000_000))
	assert.Equal(t, Round(r, -19).Cell(0, 0), 1e19)
}
