package query

import (
	"github.com/spektr-org/pivot/engine"
)

// Compile parses expr and returns its predicate plus the row key names it reads.
func Compile(expr string) (engine.Predicate, []string, error) {
	e, err := Parse(expr)
	if err != nil {
		return nil, nil, err
	}
	return e.Predicate(), e.Keys(), nil
}

// Filter applies a query expression to a pivot result. Every name in the
// expression must be one of the result's row keys.
func Filter(r *engine.Result, expr string) (*engine.Result, error) {
	pred, keys, err := Compile(expr)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool)
	for _, name := range r.Index() {
		known[name] = true
	}
	for _, k := range keys {
		if !known[k] {
			return nil, &engine.SpecError{Field: "filter", Column: k, Reason: "not a row key of the result"}
		}
	}
	return engine.Filter(r, pred), nil
}
