package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ============================================================================
// VALUES — Scalar normalization, ordering and bucket keys
// ============================================================================

// ToFloat converts any Go number to float64.
// Non-finite floats are numbers too; nil and non-numbers report false.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// IsNull reports whether v is a missing value. NaN counts as missing.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	if f, ok := v.(float32); ok && math.IsNaN(float64(f)) {
		return true
	}
	return false
}

// ToInt64 converts an integer of any width to int64. It reports false for
// non-integers and for unsigned values above math.MaxInt64.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	}
	return 0, false
}

func isInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// valueRank orders types: numbers, strings, bools, anything else, nil.
func valueRank(v any) int {
	if IsNull(v) {
		return 4
	}
	if _, ok := ToFloat(v); ok {
		return 0
	}
	switch v.(type) {
	case string:
		return 1
	case bool:
		return 2
	}
	return 3
}

// compareValues is a total order over scalars: numbers numerically, strings
// lexicographically, false before true, nil last.
func compareValues(a, b any) int {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 0:
		fa, _ := ToFloat(a)
		fb, _ := ToFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 1:
		return strings.Compare(a.(string), b.(string))
	case 2:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		}
		return 1
	case 3:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
	return 0
}

// compareTuples orders key tuples element by element.
func compareTuples(a, b []any) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// tupleKey encodes a key tuple as a map key. Equal numbers of different Go
// types share a bucket; NaN and nil share the null bucket.
func tupleKey(vals []any) string {
	var b strings.Builder
	for _, v := range vals {
		writeKeyPart(&b, v)
	}
	return b.String()
}

func writeKeyPart(b *strings.Builder, v any) {
	if IsNull(v) {
		b.WriteString("z;")
		return
	}
	if f, ok := ToFloat(v); ok {
		b.WriteString("n")
		b.WriteString(strconv.FormatUint(math.Float64bits(f+0), 16))
		b.WriteByte(';')
		return
	}
	switch x := v.(type) {
	case string:
		b.WriteString("s")
		b.WriteString(strconv.Itoa(len(x)))
		b.WriteByte(':')
		b.WriteString(x)
	case bool:
		if x {
			b.WriteString("b1")
		} else {
			b.WriteString("b0")
		}
	default:
		s := fmt.Sprint(x)
		b.WriteString("o")
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	b.WriteByte(';')
}

// valuesEqual is equality under the bucket encoding.
func valuesEqual(a, b any) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	return compareValues(a, b) == 0
}

// FormatValue renders a scalar for labels and tables.
// Integral floats print without a fraction; nil prints as "".
func FormatValue(v any) string {
	if IsNull(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}
