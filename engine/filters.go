package engine

import (
	"sort"
)

// ============================================================================
// FILTERS — Row-key predicates over a Result
// ============================================================================
// Predicates see one row's key tuple by name. Filter keeps matching rows in
// their original order and never touches the column set, so
// Filter(Filter(r, p1), p2) and Filter(r, And(p1, p2)) select the same rows.
// ============================================================================

// RowKey is the key tuple of one result row, addressable by key name.
type RowKey struct {
	names  []string
	values []any
	margin bool
}

// Get returns the value of the named row key.
func (k RowKey) Get(name string) (any, bool) {
	for i, n := range k.names {
		if n == name {
			return k.values[i], true
		}
	}
	return nil, false
}

// IsMargin reports whether the row is the margin row.
func (k RowKey) IsMargin() bool { return k.margin }

// Predicate decides whether a row is kept.
type Predicate func(RowKey) bool

// In matches rows whose key equals any of values. Numbers compare by value
// regardless of Go type; nil matches null keys.
func In(name string, values ...any) Predicate {
	return func(k RowKey) bool {
		v, ok := k.Get(name)
		if !ok {
			return false
		}
		for _, want := range values {
			if valuesEqual(v, want) {
				return true
			}
		}
		return false
	}
}

// Eq matches rows whose key equals value.
func Eq(name string, value any) Predicate { return In(name, value) }

// NotIn matches rows whose key is present and equals none of values.
func NotIn(name string, values ...any) Predicate {
	in := In(name, values...)
	return func(k RowKey) bool {
		if _, ok := k.Get(name); !ok {
			return false
		}
		return !in(k)
	}
}

// And matches when every predicate matches. And() matches everything.
func And(ps ...Predicate) Predicate {
	return func(k RowKey) bool {
		for _, p := range ps {
			if p != nil && !p(k) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches. Or() matches nothing.
func Or(ps ...Predicate) Predicate {
	return func(k RowKey) bool {
		for _, p := range ps {
			if p != nil && p(k) {
				return true
			}
		}
		return false
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(k RowKey) bool { return !p(k) }
}

// Filter returns the rows of r for which p holds, in their original order.
// A nil predicate keeps every row.
func Filter(r *Result, p Predicate) *Result {
	rows := make([]int, 0, r.Len())
	for i := 0; i < r.Len(); i++ {
		if p == nil || p(r.rowKeyAt(i)) {
			rows = append(rows, i)
		}
	}
	return r.withRows(rows)
}

func (r *Result) rowKeyAt(i int) RowKey {
	return RowKey{names: r.index, values: r.rowKeys[i], margin: r.margin[i]}
}

// ============================================================================
// FILTERS — Allowed-value sets per key
// ============================================================================

// Filters define which rows to keep.
// Keys are row key names, values are the allowed values.
// OR within a key, AND across keys. Empty = all.
type Filters struct {
	Keys map[string][]any `json:"keys"`
}

// HasFilter returns true if a specific key filter is set.
func (f Filters) HasFilter(name string) bool {
	if f.Keys == nil {
		return false
	}
	vals, ok := f.Keys[name]
	return ok && len(vals) > 0
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Keys {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// Predicate converts the filter set into a conjunction of membership tests.
func (f Filters) Predicate() Predicate {
	names := make([]string, 0, len(f.Keys))
	for name, vals := range f.Keys {
		if len(vals) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	ps := make([]Predicate, 0, len(names))
	for _, name := range names {
		ps = append(ps, In(name, f.Keys[name]...))
	}
	return And(ps...)
}

// ApplyFilters keeps the rows matching every key filter.
// Unknown key names are an error rather than an empty result.
func ApplyFilters(r *Result, f Filters) (*Result, error) {
	if f.IsEmpty() {
		return r, nil
	}
	for name := range f.Keys {
		if !r.hasKey(name) {
			return nil, &SpecError{Field: "filter", Column: name, Reason: "not a row key"}
		}
	}
	return Filter(r, f.Predicate()), nil
}
