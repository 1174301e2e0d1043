package helpers

import (
	"context"
	"io"
	"os"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/pkg/errors"

	"github.com/spektr-org/pivot/engine"
)

// ============================================================================
// ARROW TABLE — zero-copy engine.Table over columnar Arrow data
// ============================================================================
// Cells are read straight out of the Arrow buffers. Nothing is materialized
// into rows, so Parquet files pivot without a second copy in memory.
// ============================================================================

// ArrowTable adapts an arrow.Table to engine.Table.
type ArrowTable struct {
	table   arrow.Table
	columns []string
	index   map[string]int
	chunks  [][]arrow.Array
	starts  [][]int // first row of each chunk, per column
}

// NewArrowTable wraps tbl. The table is retained until Release.
func NewArrowTable(tbl arrow.Table) *ArrowTable {
	tbl.Retain()
	n := int(tbl.NumCols())
	t := &ArrowTable{
		table:   tbl,
		columns: make([]string, n),
		index:   make(map[string]int, n),
		chunks:  make([][]arrow.Array, n),
		starts:  make([][]int, n),
	}
	for i := 0; i < n; i++ {
		name := tbl.Schema().Field(i).Name
		t.columns[i] = name
		t.index[name] = i

		chunks := tbl.Column(i).Data().Chunks()
		starts := make([]int, len(chunks))
		row := 0
		for c, chunk := range chunks {
			starts[c] = row
			row += chunk.Len()
		}
		t.chunks[i] = chunks
		t.starts[i] = starts
	}
	return t
}

// Release drops the reference taken by NewArrowTable.
func (t *ArrowTable) Release() { t.table.Release() }

func (t *ArrowTable) Len() int { return int(t.table.NumRows()) }

func (t *ArrowTable) Columns() []string { return t.columns }

// Value returns the cell at row i; unknown columns read as nil.
func (t *ArrowTable) Value(i int, column string) any {
	c, ok := t.index[column]
	if !ok {
		return nil
	}
	starts := t.starts[c]
	k := sort.Search(len(starts), func(j int) bool { return starts[j] > i }) - 1
	if k < 0 {
		return nil
	}
	return arrowValue(t.chunks[c][k], i-starts[k])
}

// arrowValue returns the typed value at pos. Dates and timestamps come back as
// strings so they can serve as row or column keys.
func arrowValue(col arrow.Array, pos int) any {
	if pos >= col.Len() || col.IsNull(pos) {
		return nil
	}

	switch a := col.(type) {
	case *array.String:
		return a.Value(pos)
	case *array.LargeString:
		return a.Value(pos)
	case *array.Binary:
		return string(a.Value(pos))
	case *array.Boolean:
		return a.Value(pos)
	case *array.Int8:
		return a.Value(pos)
	case *array.Int16:
		return a.Value(pos)
	case *array.Int32:
		return a.Value(pos)
	case *array.Int64:
		return a.Value(pos)
	case *array.Uint8:
		return a.Value(pos)
	case *array.Uint16:
		return a.Value(pos)
	case *array.Uint32:
		return a.Value(pos)
	case *array.Uint64:
		return a.Value(pos)
	case *array.Float16:
		return float64(a.Value(pos).Float32())
	case *array.Float32:
		return a.Value(pos)
	case *array.Float64:
		return a.Value(pos)
	case *array.Decimal128:
		scale := a.DataType().(*arrow.Decimal128Type).Scale
		return a.Value(pos).ToFloat64(scale)
	case *array.Date32:
		return a.Value(pos).ToTime().Format("2006-01-02")
	case *array.Date64:
		return a.Value(pos).ToTime().Format("2006-01-02")
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(pos).ToTime(unit).Format("2006-01-02 15:04:05.999999999")
	case *array.Dictionary:
		return arrowValue(a.Dictionary(), a.GetValueIndex(pos))
	}
	return col.ValueStr(pos)
}

// ============================================================================
// READERS
// ============================================================================

// ReadParquet loads a Parquet file into an ArrowTable. Call Release when done.
func ReadParquet(ctx context.Context, path string) (*ArrowTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open parquet file")
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f, file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create parquet reader")
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create arrow reader")
	}

	tbl, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read parquet data")
	}
	defer tbl.Release()

	return NewArrowTable(tbl), nil
}

// ReadArrowFile loads an Arrow IPC file into an ArrowTable.
func ReadArrowFile(path string) (*ArrowTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open arrow file")
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create arrow file reader")
	}
	defer r.Close()

	recs := make([]arrow.Record, 0, r.NumRecords())
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read record batch %d", i)
		}
		rec.Retain()
		recs = append(recs, rec)
	}

	tbl := array.NewTableFromRecords(r.Schema(), recs)
	defer tbl.Release()
	return NewArrowTable(tbl), nil
}

// ============================================================================
// EXPORT — Result → Arrow
// ============================================================================

// ResultToArrow converts a pivot result into one Arrow record: a column per
// row key, then a column per result column named by its label. Each column is
// typed from its values: int64 when every value is an integer that fits in
// int64, float64 when every value is a number, bool, and string otherwise (the
// margin label turns a numeric key column into strings). The caller releases
// the record.
func ResultToArrow(r *engine.Result, mem memory.Allocator) arrow.Record {
	n := r.Len()
	index := r.Index()
	cols := r.Columns()

	fields := make([]arrow.Field, 0, len(index)+len(cols))
	values := make([][]any, 0, len(index)+len(cols))

	for k, name := range index {
		vals := make([]any, n)
		for i := 0; i < n; i++ {
			vals[i] = r.RowKey(i)[k]
		}
		fields = append(fields, arrow.Field{Name: name, Type: inferArrowType(vals), Nullable: true})
		values = append(values, vals)
	}
	for j, c := range cols {
		vals := make([]any, n)
		for i := 0; i < n; i++ {
			vals[i] = r.Cell(i, j)
		}
		fields = append(fields, arrow.Field{Name: c.String(), Type: inferArrowType(vals), Nullable: true})
		values = append(values, vals)
	}

	b := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer b.Release()

	for f, vals := range values {
		appendValues(b.Field(f), vals)
	}
	return b.NewRecord()
}

func inferArrowType(vals []any) arrow.DataType {
	ints, nums, bools, seen := true, true, true, false
	for _, v := range vals {
		if engine.IsNull(v) {
			continue
		}
		seen = true
		_, isNum := engine.ToFloat(v)
		_, isBool := v.(bool)
		nums = nums && isNum
		bools = bools && isBool
		_, isInt := engine.ToInt64(v)
		ints = ints && isInt
	}
	switch {
	case !seen:
		return arrow.BinaryTypes.String
	case ints:
		return arrow.PrimitiveTypes.Int64
	case nums:
		return arrow.PrimitiveTypes.Float64
	case bools:
		return arrow.FixedWidthTypes.Boolean
	}
	return arrow.BinaryTypes.String
}

// appendValues appends one entry per value. A value the builder cannot hold
// becomes null, so every column keeps the record's length.
func appendValues(b array.Builder, vals []any) {
	for _, v := range vals {
		if engine.IsNull(v) {
			b.AppendNull()
			continue
		}
		switch fb := b.(type) {
		case *array.Int64Builder:
			if n, ok := engine.ToInt64(v); ok {
				fb.Append(n)
				continue
			}
		case *array.Float64Builder:
			if f, ok := engine.ToFloat(v); ok {
				fb.Append(f)
				continue
			}
		case *array.BooleanBuilder:
			if x, ok := v.(bool); ok {
				fb.Append(x)
				continue
			}
		case *array.StringBuilder:
			fb.Append(engine.FormatValue(v))
			continue
		}
		b.AppendNull()
	}
}

// WriteParquet writes a record as a Snappy-compressed Parquet file.
func WriteParquet(w io.Writer, rec arrow.Record) error {
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(rec.Schema(), w, props, arrowProps)
	if err != nil {
		return errors.Wrap(err, "failed to create parquet writer")
	}
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return errors.Wrap(err, "failed to write parquet record")
	}
	return errors.Wrap(writer.Close(), "failed to close parquet writer")
}
