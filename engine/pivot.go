package engine

import (
	"fmt"
	"sort"
)

// ============================================================================
// PIVOT — Validation, Partitioning, Aggregation, Margins
// ============================================================================
// Entry point: Pivot(table, spec, opts...)
//
// Pipeline:
//   1. Resolve spec against the table (every error is raised here)
//   2. Partition rows into (row-combo, column-combo) buckets
//   3. Order row combos and column combos lexicographically
//   4. Reduce every bucket per (value column, function)
//   5. Append margin column(s) and margin row
//
// Pure function: reads the table once, shares nothing with the caller.
// ============================================================================

// Pivot reshapes table according to spec.
// Errors match ErrInvalidSpec or ErrInvalidAggregation; there is no partial result.
func Pivot(table Table, spec Spec, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)

	if table == nil {
		return nil, &SpecError{Reason: "table is nil"}
	}

	p, err := resolve(table, spec)
	if err != nil {
		cfg.Logger.Debug("pivot: spec rejected", "error", err)
		return nil, err
	}

	// 1. Partition
	parts := partition(table, p.index, p.columns)

	cfg.Logger.Debug("pivot: partitioned rows",
		"rows", table.Len(),
		"row_combos", len(parts.rows),
		"column_combos", len(parts.cols),
		"buckets", parts.buckets)

	// 2. Assemble columns: value → function → column combo (+ margin)
	result := &Result{
		index:   append([]string(nil), p.index...),
		colKeys: append([]string(nil), p.columns...),
	}
	type source struct {
		value string
		fn    AggFunc
		combo *combo // nil for the margin column
	}
	var sources []source
	for _, v := range p.values {
		for _, fn := range v.funcs {
			for _, cc := range parts.cols {
				result.columns = append(result.columns, ColumnKey{Value: v.name, Func: fn, Keys: cc.key})
				sources = append(sources, source{value: v.name, fn: fn, combo: cc})
			}
			if p.margins && len(p.columns) > 0 {
				result.columns = append(result.columns, ColumnKey{
					Value:  v.name,
					Func:   fn,
					Keys:   marginKey(p.marginsName, len(p.columns)),
					Margin: true,
				})
				sources = append(sources, source{value: v.name, fn: fn})
			}
		}
	}

	reduce := func(rows []int, value string, fn AggFunc) any {
		if len(rows) == 0 {
			return p.fill
		}
		v := Aggregate(newSubTable(table, rows), value, fn)
		if v == nil {
			return p.fill
		}
		return v
	}

	// 3. Data rows
	for _, rc := range parts.rows {
		row := make([]any, len(sources))
		for j, s := range sources {
			if s.combo == nil {
				row[j] = reduce(rc.rows, s.value, s.fn)
				continue
			}
			row[j] = reduce(parts.bucket(rc, s.combo), s.value, s.fn)
		}
		result.rowKeys = append(result.rowKeys, rc.key)
		result.cells = append(result.cells, row)
		result.margin = append(result.margin, false)
	}

	// 4. Margin row
	if p.margins && len(p.index) > 0 {
		all := make([]int, table.Len())
		for i := range all {
			all[i] = i
		}
		row := make([]any, len(sources))
		for j, s := range sources {
			if s.combo == nil {
				row[j] = reduce(all, s.value, s.fn)
				continue
			}
			row[j] = reduce(s.combo.rows, s.value, s.fn)
		}
		result.rowKeys = append(result.rowKeys, marginKey(p.marginsName, len(p.index)))
		result.cells = append(result.cells, row)
		result.margin = append(result.margin, true)
	}

	cfg.Logger.Debug("pivot: result assembled",
		"result_rows", result.Len(),
		"result_columns", result.Width(),
		"margins", p.margins)

	return result, nil
}

// marginKey is the key tuple of a margin row/column: the label, then blanks.
func marginKey(label string, levels int) []any {
	key := make([]any, levels)
	key[0] = label
	for i := 1; i < levels; i++ {
		key[i] = ""
	}
	return key
}

// ============================================================================
// SPEC RESOLUTION
// ============================================================================

type valueSpec struct {
	name  string
	funcs []AggFunc
}

type plan struct {
	index       []string
	columns     []string
	values      []valueSpec
	fill        any
	margins     bool
	marginsName string
}

func resolve(table Table, spec Spec) (*plan, error) {
	if len(spec.Index)+len(spec.Columns)+len(spec.Values)+len(spec.Aggregations) == 0 {
		return nil, &SpecError{Reason: "row keys, column keys and values are all empty"}
	}

	exists := make(map[string]bool, len(table.Columns()))
	for _, c := range table.Columns() {
		exists[c] = true
	}
	used := make(map[string]string)
	claim := func(field, col string) error {
		if !exists[col] {
			return missingColumn(field, col)
		}
		if prev, dup := used[col]; dup {
			return &SpecError{Field: field, Column: col, Reason: "column already used in " + prev}
		}
		used[col] = field
		return nil
	}

	p := &plan{
		index:       append([]string(nil), spec.Index...),
		columns:     append([]string(nil), spec.Columns...),
		fill:        spec.FillValue,
		margins:     spec.Margins,
		marginsName: spec.marginsName(),
	}
	for _, c := range p.index {
		if err := claim("index", c); err != nil {
			return nil, err
		}
	}
	for _, c := range p.columns {
		if err := claim("columns", c); err != nil {
			return nil, err
		}
	}

	if err := checkMarginLabel(table, p); err != nil {
		return nil, err
	}

	values := append([]string(nil), spec.Values...)
	if len(values) == 0 && len(spec.Aggregations) > 0 {
		for v := range spec.Aggregations {
			values = append(values, v)
		}
		sort.Strings(values)
	}
	if len(values) == 0 && len(spec.Aggregations) == 0 {
		values = numericColumns(table, used)
	}

	valueSet := make(map[string]bool, len(values))
	for _, v := range values {
		if err := claim("values", v); err != nil {
			return nil, err
		}
		valueSet[v] = true
	}
	for v := range spec.Aggregations {
		if !valueSet[v] {
			if !exists[v] {
				return nil, missingColumn("aggregations", v)
			}
			return nil, &SpecError{Field: "aggregations", Column: v, Reason: "not a value column"}
		}
	}

	for _, v := range values {
		fns := spec.Aggregations[v]
		if len(fns) == 0 {
			fns = []AggFunc{DefaultAggFunc}
		}
		seen := make(map[AggFunc]bool, len(fns))
		vs := valueSpec{name: v}
		for _, fn := range fns {
			if !fn.Valid() {
				return nil, &SpecError{Field: "aggregations", Column: v, Reason: "unknown aggregation function " + string(fn)}
			}
			if seen[fn] {
				return nil, &SpecError{Field: "aggregations", Column: v, Reason: "duplicate aggregation function " + string(fn)}
			}
			seen[fn] = true
			vs.funcs = append(vs.funcs, fn)
		}
		if err := checkNumeric(table, vs); err != nil {
			return nil, err
		}
		p.values = append(p.values, vs)
	}

	return p, nil
}

// checkMarginLabel rejects key values equal to the margin label, which would
// make a data row or column indistinguishable from the margin.
func checkMarginLabel(table Table, p *plan) error {
	if !p.margins {
		return nil
	}
	keys := append(append([]string(nil), p.index...), p.columns...)
	for i := 0; i < table.Len(); i++ {
		for _, k := range keys {
			if v, ok := table.Value(i, k).(string); ok && v == p.marginsName {
				return &SpecError{
					Field:  "margins",
					Column: k,
					Reason: fmt.Sprintf("key value %q conflicts with the margins name at row %d", v, i),
				}
			}
		}
	}
	return nil
}

// checkNumeric rejects numeric functions over columns holding non-numbers.
func checkNumeric(table Table, vs valueSpec) error {
	var numeric AggFunc
	for _, fn := range vs.funcs {
		if fn.Numeric() {
			numeric = fn
			break
		}
	}
	if numeric == "" {
		return nil
	}
	for i := 0; i < table.Len(); i++ {
		v := table.Value(i, vs.name)
		if IsNull(v) {
			continue
		}
		if _, ok := ToFloat(v); !ok {
			return &AggregationError{Column: vs.name, Func: numeric, Value: v, Row: i}
		}
	}
	return nil
}

// numericColumns lists the unused columns whose non-null cells are all numbers.
func numericColumns(table Table, used map[string]string) []string {
	var out []string
	for _, c := range table.Columns() {
		if _, taken := used[c]; taken {
			continue
		}
		numeric := true
		for i := 0; i < table.Len() && numeric; i++ {
			v := table.Value(i, c)
			if IsNull(v) {
				continue
			}
			_, numeric = ToFloat(v)
		}
		if numeric {
			out = append(out, c)
		}
	}
	return out
}

// ============================================================================
// PARTITIONING
// ============================================================================

// combo is one distinct key tuple on an axis and the rows carrying it.
type combo struct {
	id   string
	key  []any
	rows []int
}

type partitions struct {
	rows    []*combo
	cols    []*combo
	cells   map[string]map[string][]int // row combo id → column combo id → rows
	buckets int
}

func (p *partitions) bucket(rc, cc *combo) []int {
	return p.cells[rc.id][cc.id]
}

func partition(table Table, index, columns []string) *partitions {
	p := &partitions{cells: make(map[string]map[string][]int)}
	rowCombos := make(map[string]*combo)
	colCombos := make(map[string]*combo)

	lookup := func(set map[string]*combo, list *[]*combo, key []any) *combo {
		id := tupleKey(key)
		c, ok := set[id]
		if !ok {
			c = &combo{id: id, key: key}
			set[id] = c
			*list = append(*list, c)
		}
		return c
	}

	for i := 0; i < table.Len(); i++ {
		rk := make([]any, len(index))
		for l, name := range index {
			rk[l] = normalizeKey(table.Value(i, name))
		}
		ck := make([]any, len(columns))
		for l, name := range columns {
			ck[l] = normalizeKey(table.Value(i, name))
		}

		rc := lookup(rowCombos, &p.rows, rk)
		cc := lookup(colCombos, &p.cols, ck)
		rc.rows = append(rc.rows, i)
		cc.rows = append(cc.rows, i)

		inner, ok := p.cells[rc.id]
		if !ok {
			inner = make(map[string][]int)
			p.cells[rc.id] = inner
		}
		if _, ok := inner[cc.id]; !ok {
			p.buckets++
		}
		inner[cc.id] = append(inner[cc.id], i)
	}

	// Without column keys there is always exactly one column combo.
	if len(columns) == 0 && len(p.cols) == 0 {
		p.cols = append(p.cols, &combo{id: tupleKey(nil), key: []any{}})
	}

	sort.SliceStable(p.rows, func(a, b int) bool { return compareTuples(p.rows[a].key, p.rows[b].key) < 0 })
	sort.SliceStable(p.cols, func(a, b int) bool { return compareTuples(p.cols[a].key, p.cols[b].key) < 0 })
	return p
}

// normalizeKey maps NaN to nil so every missing key reads the same way.
func normalizeKey(v any) any {
	if IsNull(v) {
		return nil
	}
	return v
}
