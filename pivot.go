// Package pivot groups, aggregates and cross-tabulates tabular data.
//
// Usage:
//
//	import "github.com/spektr-org/pivot/engine"
//
//	result, err := engine.Pivot(table, engine.Spec{
//	    Index:   []string{"Manager", "Rep"},
//	    Columns: []string{"Product"},
//	    Values:  []string{"Price"},
//	    Aggregations: map[string][]engine.AggFunc{
//	        "Price": {engine.Sum, engine.Mean},
//	    },
//	    Margins: true,
//	})
//
// Any engine.Table can be pivoted: in-memory rows, typed Go slices through
// engine.DomainAdapter, CSV files (helpers.LoadCSV) and Arrow or Parquet data
// (helpers.ReadParquet). Results are filtered with engine predicates or query
// expressions (query.Filter), sorted and rounded (engine.Sort, engine.Round),
// and rendered as text, CSV, JSON or Parquet (render.Write).
//
// The engine never performs I/O; all computation is local.
package pivot
