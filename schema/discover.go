package schema

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/spektr-org/pivot/engine"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic column classification
// ============================================================================
// Inspects a dataset and describes every column without being told anything.
//
// Classification pipeline per column:
//   1. Sample values → detect kind (number, bool, text, empty)
//   2. Kind + cardinality → suggest role (key, value, skip)
//   3. Whole table → row count and approximate memory footprint
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int    // Max rows to classify (0 = all). Default: 1000
	Name       string // Dataset name override
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// DiscoverFromCSV describes CSV data. The first record is the header.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	headers, records, err := ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	rows := make([]engine.Row, len(records))
	for i, rec := range records {
		row := make(engine.Row, len(headers))
		for j, h := range headers {
			row[h] = ParseCell(rec[j])
		}
		rows[i] = row
	}

	cfg, err := DiscoverFromTable(engine.NewTable(headers, rows), opts...)
	if err != nil {
		return nil, err
	}
	cfg.DiscoveredFrom = "CSV"
	return cfg, nil
}

// DiscoverFromTable describes any engine.Table.
func DiscoverFromTable(t engine.Table, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	columns := t.Columns()
	if len(columns) == 0 {
		return nil, errors.New("dataset has no columns")
	}

	sample := t.Len()
	if opt.SampleSize > 0 && opt.SampleSize < sample {
		sample = opt.SampleSize
	}

	cfg := &Config{
		Name:           opt.Name,
		Rows:           t.Len(),
		MemoryBytes:    EstimateMemory(t),
		DiscoveredFrom: "table",
		DiscoveredAt:   time.Now().Format(time.RFC3339),
	}
	if cfg.Name == "" {
		cfg.Name = "Auto-discovered Dataset"
	}

	for _, name := range columns {
		col := analyzeColumn(t, name, sample)
		cfg.Columns = append(cfg.Columns, col.toMeta())
	}
	return cfg, nil
}

// ============================================================================
// CSV READING
// ============================================================================

// ReadCSV reads a header and all records. Records with the wrong number of
// fields are padded with empty cells or truncated. Empty header names become
// "Unnamed: N"; duplicate names are an error.
func ReadCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.New("CSV is empty")
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read CSV headers")
	}

	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if seen[h] {
			return nil, nil, errors.Errorf("duplicate CSV column %q", h)
		}
		seen[h] = true
		headers[i] = h
	}

	var records [][]string
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to read CSV record %d", line)
		}
		switch {
		case len(rec) < len(headers):
			rec = append(rec, make([]string, len(headers)-len(rec))...)
		case len(rec) > len(headers):
			rec = rec[:len(headers)]
		}
		records = append(records, rec)
	}
	return headers, records, nil
}

// ============================================================================
// CELL PARSING
// ============================================================================

var nullMarkers = map[string]bool{
	"": true, "null": true, "NULL": true, "None": true, "none": true,
	"N/A": true, "n/a": true, "NA": true, "#N/A": true, "<NA>": true,
	"NaN": true, "nan": true, "-NaN": true,
}

// groupedNumber matches "$1,234.50", "-€30000" and friends.
var groupedNumber = regexp.MustCompile(`^-?[$€£]?(\d{1,3}(,\d{3})+|\d+)(\.\d+)?$`)

// ParseCell converts one raw text cell to nil, int64, float64, bool or string.
func ParseCell(s string) any {
	s = strings.TrimSpace(s)
	if nullMarkers[s] {
		return nil
	}
	if n, ok := parseNumber(s); ok {
		return n
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func parseNumber(s string) (any, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	if !groupedNumber.MatchString(s) {
		return nil, false
	}
	clean := strings.NewReplacer(",", "", "$", "", "€", "", "£", "").Replace(s)
	if i, err := strconv.ParseInt(clean, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(clean, 64); err == nil {
		return f, true
	}
	return nil, false
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnAnalysis struct {
	key  string
	kind Kind
	role Role

	skipReason string

	// Stats
	uniqueCount int
	totalCount  int
	nullCount   int
	sampleVals  []string
	hasDecimals bool
}

// analyzeColumn inspects the first n values of a column and classifies it.
func analyzeColumn(t engine.Table, name string, n int) columnAnalysis {
	col := columnAnalysis{key: name, totalCount: n}

	uniqueSet := make(map[string]bool)
	var numCount, boolCount, valueCount int
	for i := 0; i < n; i++ {
		v := t.Value(i, name)
		if engine.IsNull(v) {
			col.nullCount++
			continue
		}
		valueCount++
		uniqueSet[engine.FormatValue(v)] = true

		switch x := v.(type) {
		case bool:
			boolCount++
		case float64, float32:
			numCount++
			if f, _ := engine.ToFloat(x); f != float64(int64(f)) {
				col.hasDecimals = true
			}
		default:
			if _, ok := engine.ToFloat(x); ok {
				numCount++
			}
		}
	}

	col.uniqueCount = len(uniqueSet)
	col.sampleVals = collectSamples(uniqueSet, 10)

	// Step 1: Detect kind. Mixed columns are text.
	switch {
	case valueCount == 0:
		col.kind = KindEmpty
	case numCount == valueCount:
		col.kind = KindNumber
	case boolCount == valueCount:
		col.kind = KindBool
	default:
		col.kind = KindText
	}

	// Step 2: Suggest role based on kind + cardinality
	col.classifyRole()
	return col
}

// classifyRole determines key vs value vs skip.
func (col *columnAnalysis) classifyRole() {
	rows := col.totalCount - col.nullCount

	switch col.kind {

	case KindEmpty:
		col.role = RoleSkip
		col.skipReason = "All values are empty/null"

	case KindNumber:
		if col.uniqueCount == rows && rows > 10 && !col.hasDecimals {
			// Every value unique → likely an ID
			col.role = RoleSkip
			col.skipReason = "Unique per row — likely an ID column"
			return
		}
		// Continuous data is always aggregated
		if col.hasDecimals {
			col.role = RoleValue
			return
		}
		// Few distinct integers relative to rows → coded key (year, priority 1-5)
		uniqueRatio := float64(col.uniqueCount) / float64(rows)
		if col.uniqueCount < 20 && uniqueRatio < 0.3 {
			col.role = RoleKey
			return
		}
		col.role = RoleValue

	case KindBool:
		col.role = RoleKey

	case KindText:
		if col.uniqueCount == rows && rows > 10 {
			col.role = RoleSkip
			col.skipReason = "Unique per row — likely an identifier"
			return
		}
		if col.uniqueCount > rows/2 && col.uniqueCount > 50 {
			col.role = RoleSkip
			col.skipReason = fmt.Sprintf("High cardinality (%d unique values) — not useful for grouping", col.uniqueCount)
			return
		}
		col.role = RoleKey
	}
}

func (col *columnAnalysis) toMeta() ColumnMeta {
	meta := ColumnMeta{
		Key:           col.key,
		DisplayName:   toDisplayName(col.key),
		Kind:          col.kind,
		SampleValues:  col.sampleVals,
		NullCount:     col.nullCount,
		Cardinality:   col.uniqueCount,
		SuggestedRole: col.role,
		SkipReason:    col.skipReason,
	}
	switch {
	case col.uniqueCount <= 10:
		meta.CardinalityHint = "low"
	case col.uniqueCount <= 100:
		meta.CardinalityHint = "medium"
	default:
		meta.CardinalityHint = "high"
	}
	return meta
}

// EstimateMemory approximates the in-memory size of a table: an interface
// header per cell plus the payload of numbers, bools and strings.
func EstimateMemory(t engine.Table) int64 {
	const header = 16
	columns := t.Columns()
	var total int64
	for i := 0; i < t.Len(); i++ {
		for _, c := range columns {
			total += header
			switch v := t.Value(i, c).(type) {
			case nil:
			case string:
				total += int64(len(v))
			case bool, int8, uint8:
				total++
			default:
				total += 8
			}
		}
	}
	for _, c := range columns {
		total += header + int64(len(c))
	}
	return total
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toDisplayName cleans a header for human display.
// "story_points" → "Story Points", "Sales Rep" → "Sales Rep"
func toDisplayName(s string) string {
	// If already has spaces/mixed case, just trim
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
