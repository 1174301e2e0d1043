package engine

import (
	"math"
)

// ============================================================================
// AGGREGATORS — Reductions over one column of a Table
// ============================================================================
// Nulls are skipped. Integer-only input keeps integer results for sum, min
// and max; anything else reduces in float64. mean always yields float64.
// An integer sum that would leave the int64 range, or a uint64 above
// MaxInt64, switches the whole column to float64.
// ============================================================================

// Aggregate applies fn to column over every row of view.
// It assumes the column was validated: numeric functions ignore non-numbers.
func Aggregate(view Table, column string, fn AggFunc) any {
	acc := newAccumulator()
	for i := 0; i < view.Len(); i++ {
		acc.add(view.Value(i, column))
	}
	return acc.result(fn)
}

// SumColumn sums a column. Empty input yields 0.
func SumColumn(view Table, column string) any { return Aggregate(view, column, Sum) }

// MeanColumn averages a column. Empty input yields nil.
func MeanColumn(view Table, column string) any { return Aggregate(view, column, Mean) }

// CountColumn counts non-null cells of a column.
func CountColumn(view Table, column string) any { return Aggregate(view, column, Count) }

// MinColumn returns the smallest value of a column, or nil.
func MinColumn(view Table, column string) any { return Aggregate(view, column, Min) }

// MaxColumn returns the largest value of a column, or nil.
func MaxColumn(view Table, column string) any { return Aggregate(view, column, Max) }

// accumulator collects everything the five functions need in one pass.
type accumulator struct {
	count   int64 // non-null cells, any type
	numbers int64 // numeric cells
	allInt  bool
	fsum    float64
	isum    int64
	fmin    float64
	fmax    float64
	imin    int64
	imax    int64
}

func newAccumulator() *accumulator {
	return &accumulator{
		allInt: true,
		fmin:   math.Inf(1),
		fmax:   math.Inf(-1),
		imin:   math.MaxInt64,
		imax:   math.MinInt64,
	}
}

func (a *accumulator) add(v any) {
	if IsNull(v) {
		return
	}
	a.count++
	f, ok := ToFloat(v)
	if !ok {
		return
	}
	a.numbers++
	a.fsum += f
	if f < a.fmin {
		a.fmin = f
	}
	if f > a.fmax {
		a.fmax = f
	}
	if !a.allInt {
		return
	}
	i, ok := ToInt64(v)
	if !ok || addOverflows(a.isum, i) {
		a.allInt = false
		return
	}
	a.isum += i
	if i < a.imin {
		a.imin = i
	}
	if i > a.imax {
		a.imax = i
	}
}

func (a *accumulator) result(fn AggFunc) any {
	switch fn {
	case Count:
		return a.count
	case Sum:
		if a.allInt {
			return a.isum
		}
		return a.fsum
	case Mean:
		if a.numbers == 0 {
			return nil
		}
		return a.fsum / float64(a.numbers)
	case Min:
		if a.numbers == 0 {
			return nil
		}
		if a.allInt {
			return a.imin
		}
		return a.fmin
	case Max:
		if a.numbers == 0 {
			return nil
		}
		if a.allInt {
			return a.imax
		}
		return a.fmax
	}
	return nil
}

// addOverflows reports whether a+b leaves the int64 range.
func addOverflows(a, b int64) bool {
	return (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b)
}
