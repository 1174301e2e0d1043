package engine

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// ============================================================================
// RESHAPE — Sort and Round
// ============================================================================

// Sort reorders rows by the cells of col. The sort is stable, so rows with
// equal cells keep their relative order. Null cells go last in both
// directions. The margin row takes part like any other row.
func Sort(r *Result, col ColumnKey, ascending bool) (*Result, error) {
	j := r.ColumnIndex(col)
	if j < 0 {
		return nil, &SpecError{Field: "sort", Column: col.String(), Reason: "no such result column"}
	}

	rows := allRows(r.Len())
	sort.SliceStable(rows, func(a, b int) bool {
		va, vb := r.cells[rows[a]][j], r.cells[rows[b]][j]
		na, nb := IsNull(va), IsNull(vb)
		if na || nb {
			return !na && nb
		}
		c := compareValues(va, vb)
		if ascending {
			return c < 0
		}
		return c > 0
	})
	return r.withRows(rows), nil
}

// SortBy is Sort with the column given as a label ("Price|mean|CPU").
func SortBy(r *Result, label string, ascending bool) (*Result, error) {
	col, err := r.FindColumn(label)
	if err != nil {
		return nil, err
	}
	return Sort(r, col, ascending)
}

// Round returns a copy of r with numeric cells rounded to digits decimal
// places, half to even. Integer cells only change for negative digits.
// Non-numeric cells pass through.
func Round(r *Result, digits int) *Result {
	places := int32(max(-maxRoundDigits, min(digits, maxRoundDigits)))
	out := r.withRows(allRows(r.Len()))
	for i := range out.cells {
		row := make([]any, len(out.cells[i]))
		for j, v := range out.cells[i] {
			row[j] = roundValue(v, places)
		}
		out.cells[i] = row
	}
	return out
}

// maxRoundDigits bounds digits; float64 has no digits beyond 10^±330, so
// rounding further in either direction changes nothing.
const maxRoundDigits = 400

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

func roundValue(v any, places int32) any {
	if isInteger(v) {
		if places >= 0 {
			return v
		}
		if i, ok := ToInt64(v); ok {
			d := decimal.NewFromInt(i).RoundBank(places)
			if d.IsInteger() && d.Cmp(minInt64) >= 0 && d.Cmp(maxInt64) <= 0 {
				return d.IntPart()
			}
			f, _ := d.Float64()
			return f
		}
	}
	f, ok := ToFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return v
	}
	rounded, _ := decimal.NewFromFloat(f).RoundBank(places).Float64()
	return rounded
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
