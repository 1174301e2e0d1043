package schema

import (
	"fmt"
	"math"
	"sort"

	"github.com/spektr-org/pivot/engine"
)

// ============================================================================
// SCHEMA — Describes the shape of a dataset before it is pivoted
// ============================================================================
// Discovered from CSV bytes or from any engine.Table (Parquet, Arrow).
// The CLI prints it for `pivot discover`; SuggestSpec turns it into a
// starting engine.Spec; helpers.ParseCSV uses column kinds to type cells.
// ============================================================================

// Kind is the value type a column holds.
type Kind string

const (
	KindNumber Kind = "number"
	KindText   Kind = "text"
	KindBool   Kind = "bool"
	KindEmpty  Kind = "empty"
)

// Role is how a column is likely to be used in a pivot.
type Role string

const (
	RoleKey   Role = "key"   // index or columns
	RoleValue Role = "value" // aggregated
	RoleSkip  Role = "skip"  // identifiers, free text, empty columns
)

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string       `json:"name"`
	Rows        int          `json:"rows"`
	Columns     []ColumnMeta `json:"columns"`
	MemoryBytes int64        `json:"memoryBytes"`

	// Auto-discovery metadata
	DiscoveredFrom string `json:"discoveredFrom,omitempty"`
	DiscoveredAt   string `json:"discoveredAt,omitempty"`
}

// ColumnMeta describes one column.
type ColumnMeta struct {
	Key             string   `json:"key"`
	DisplayName     string   `json:"displayName"`
	Kind            Kind     `json:"kind"`
	SampleValues    []string `json:"sampleValues"`
	NullCount       int      `json:"nullCount"`
	Cardinality     int      `json:"cardinality"`
	CardinalityHint string   `json:"cardinalityHint,omitempty"` // "low", "medium", "high"
	SuggestedRole   Role     `json:"suggestedRole"`
	SkipReason      string   `json:"skipReason,omitempty"`
}

// Column returns the named column.
func (c Config) Column(key string) (ColumnMeta, bool) {
	for _, col := range c.Columns {
		if col.Key == key {
			return col, true
		}
	}
	return ColumnMeta{}, false
}

// ColumnKeys returns all column keys in file order.
func (c Config) ColumnKeys() []string {
	keys := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		keys[i] = col.Key
	}
	return keys
}

// KeyColumns returns the columns suggested as row or column keys.
func (c Config) KeyColumns() []ColumnMeta { return c.withRole(RoleKey) }

// ValueColumns returns the columns suggested for aggregation.
func (c Config) ValueColumns() []ColumnMeta { return c.withRole(RoleValue) }

func (c Config) withRole(r Role) []ColumnMeta {
	var out []ColumnMeta
	for _, col := range c.Columns {
		if col.SuggestedRole == r {
			out = append(out, col)
		}
	}
	return out
}

// Kinds maps column key to kind.
func (c Config) Kinds() map[string]Kind {
	out := make(map[string]Kind, len(c.Columns))
	for _, col := range c.Columns {
		out[col.Key] = col.Kind
	}
	return out
}

// SuggestSpec proposes a pivot: the lowest-cardinality key column as index,
// the next one as columns if it is low cardinality, every value column summed.
// Text keys are preferred over coded numeric keys.
// Returns a zero Spec when the dataset has no key or no value column.
func (c Config) SuggestSpec() engine.Spec {
	keys := c.KeyColumns()
	values := c.ValueColumns()
	if len(keys) == 0 || len(values) == 0 {
		return engine.Spec{}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		ti, tj := keys[i].Kind == KindText, keys[j].Kind == KindText
		if ti != tj {
			return ti
		}
		return keys[i].Cardinality < keys[j].Cardinality
	})

	spec := engine.Spec{
		Index:        []string{keys[0].Key},
		Aggregations: make(map[string][]engine.AggFunc, len(values)),
	}
	if len(keys) > 1 && keys[1].CardinalityHint == "low" {
		spec.Columns = []string{keys[1].Key}
	}
	for _, v := range values {
		spec.Values = append(spec.Values, v.Key)
		spec.Aggregations[v.Key] = []engine.AggFunc{engine.Sum}
	}
	return spec
}

// ByteSize renders a byte count with binary prefixes: "512.0 B", "1.5 KiB".
func ByteSize(n int64) string {
	num := float64(n)
	for _, unit := range []string{"", "Ki", "Mi", "Gi", "Ti", "Pi", "Ei", "Zi"} {
		if math.Abs(num) < 1024.0 {
			return fmt.Sprintf("%3.1f %sB", num, unit)
		}
		num /= 1024.0
	}
	return fmt.Sprintf("%.1f YiB", num)
}
