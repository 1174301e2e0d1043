package helpers

import (
	"bytes"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/schema"
)

// ============================================================================
// CSV HELPER — Parses CSV data into an engine.Table
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, S3, Sheets).
// This helper converts the raw bytes into typed cells using the schema.
// Header names are kept as written so specs can refer to "Sales Rep".
// ============================================================================

// ParseCSV parses CSV bytes into a Table, typing each column by its kind in sch:
//
//	number → int64 or float64 (cells that do not parse stay strings)
//	bool   → bool
//	text   → trimmed string
//	empty  → nil
//
// Null markers ("", "N/A", "NaN", ...) become nil in every column. Columns
// sch does not describe are typed cell by cell.
func ParseCSV(data []byte, sch schema.Config) (*engine.SliceTable, error) {
	headers, records, err := schema.ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	kinds := sch.Kinds()
	rows := make([]engine.Row, len(records))
	for i, rec := range records {
		row := make(engine.Row, len(headers))
		for j, h := range headers {
			row[h] = typedCell(rec[j], kinds[h])
		}
		rows[i] = row
	}
	return engine.NewTable(headers, rows), nil
}

// ParseCSVAuto parses CSV without a pre-existing schema.
// Returns both the table and the discovered schema.
func ParseCSVAuto(data []byte) (*engine.SliceTable, *schema.Config, error) {
	sch, err := schema.DiscoverFromCSV(data, schema.DiscoverOptions{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to discover CSV schema")
	}
	table, err := ParseCSV(data, *sch)
	if err != nil {
		return nil, nil, err
	}
	return table, sch, nil
}

// LoadCSV reads and parses a CSV file, discovering its schema.
func LoadCSV(path string) (*engine.SliceTable, *schema.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read %s", path)
	}
	table, sch, err := ParseCSVAuto(data)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return table, sch, nil
}

func typedCell(raw string, kind schema.Kind) any {
	v := schema.ParseCell(raw)
	if v == nil {
		return nil
	}
	switch kind {
	case schema.KindText:
		return strings.TrimSpace(raw)
	case schema.KindEmpty:
		return nil
	case schema.KindNumber:
		if _, ok := engine.ToFloat(v); !ok {
			return strings.TrimSpace(raw)
		}
	}
	return v
}
