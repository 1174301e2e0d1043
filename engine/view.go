package engine

// ============================================================================
// TABLE — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns caller data. It reads through this interface.
//
// Implementations:
//   SliceTable     — wraps []Row with a declared column order
//   DomainTable[T] — reads typed structs via accessor functions (zero-copy)
//   subTable       — row subset (indices into parent, zero-copy)
//   helpers.ArrowTable — columnar Arrow data (zero-copy)
//
// Callers must not mutate a Table while a Pivot over it is running.
// ============================================================================

// Table provides indexed access to a dataset with named, ordered columns.
// Value is called in tight loops; keep implementations fast.
type Table interface {
	Len() int
	Columns() []string
	Value(index int, column string) any
}

// ============================================================================
// SLICE TABLE — wraps []Row
// ============================================================================

// SliceTable wraps a []Row slice as a Table.
// Missing cells read as nil.
type SliceTable struct {
	rows    []Row
	columns []string
}

// NewTable creates a Table with an explicit column order.
func NewTable(columns []string, rows []Row) *SliceTable {
	return &SliceTable{rows: rows, columns: append([]string(nil), columns...)}
}

func (t *SliceTable) Len() int { return len(t.rows) }

func (t *SliceTable) Columns() []string { return t.columns }

func (t *SliceTable) Value(i int, column string) any {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return t.rows[i][column]
}

// ============================================================================
// SUB TABLE — row subset (zero-copy)
// ============================================================================

type subTable struct {
	parent  Table
	indices []int
}

func newSubTable(parent Table, indices []int) Table {
	return &subTable{parent: parent, indices: indices}
}

func (t *subTable) Len() int { return len(t.indices) }

func (t *subTable) Columns() []string { return t.parent.Columns() }

func (t *subTable) Value(i int, column string) any {
	if i < 0 || i >= len(t.indices) {
		return nil
	}
	return t.parent.Value(t.indices[i], column)
}

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[Sale]().
//	    Column("Manager", func(s Sale) any { return s.Manager }).
//	    Column("Price", func(s Sale) any { return s.Price })
//
//	table := adapter.Bind(sales)
//	result, _ := engine.Pivot(table, spec)
//
// ============================================================================

// DomainAdapter builds a Table from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	order []string
	cols  map[string]func(T) any
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{cols: make(map[string]func(T) any)}
}

// Column registers a column accessor. Re-registering replaces the accessor
// but keeps the original position.
func (a *DomainAdapter[T]) Column(name string, fn func(T) any) *DomainAdapter[T] {
	if _, exists := a.cols[name]; !exists {
		a.order = append(a.order, name)
	}
	a.cols[name] = fn
	return a
}

// Bind creates a Table from a data slice. Holds a reference, no copy.
func (a *DomainAdapter[T]) Bind(data []T) *DomainTable[T] {
	return &DomainTable[T]{data: data, cols: a.cols, order: a.order}
}

// DomainTable reads typed struct fields via registered accessor functions.
type DomainTable[T any] struct {
	data  []T
	cols  map[string]func(T) any
	order []string
}

func (t *DomainTable[T]) Len() int { return len(t.data) }

func (t *DomainTable[T]) Columns() []string { return t.order }

func (t *DomainTable[T]) Value(i int, column string) any {
	if i < 0 || i >= len(t.data) {
		return nil
	}
	if fn, ok := t.cols[column]; ok {
		return fn(t.data[i])
	}
	return nil
}
