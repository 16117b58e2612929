package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"drgetl/internal/table"
)

// WriteParquet writes t as a single Snappy-compressed row group. The arrow
// schema is stored in the file so readers get the column types back exactly.
func WriteParquet(w io.Writer, t *table.Table) error {
	tbl := ToArrow(t, memory.NewGoAllocator())
	defer tbl.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	pw, err := pqarrow.NewFileWriter(tbl.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("parquet: new writer: %w", err)
	}
	chunk := tbl.NumRows()
	if chunk == 0 {
		chunk = 1
	}
	if err := pw.WriteTable(tbl, chunk); err != nil {
		_ = pw.Close()
		return fmt.Errorf("parquet: write table: %w", err)
	}
	return pw.Close()
}

// ToArrow converts t to an arrow table with one chunk per column. Every
// field is nullable; Float NaN becomes an arrow null.
func ToArrow(t *table.Table, mem memory.Allocator) arrow.Table {
	cols := t.Columns()
	fields := make([]arrow.Field, len(cols))
	columns := make([]arrow.Column, len(cols))

	for i, c := range cols {
		arr := buildArray(c, mem)
		fields[i] = arrow.Field{Name: c.Name, Type: arr.DataType(), Nullable: true}
		chunked := arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
		arr.Release()
		columns[i] = *arrow.NewColumn(fields[i], chunked)
		chunked.Release()
	}

	schema := arrow.NewSchema(fields, nil)
	tbl := array.NewTable(schema, columns, int64(t.NumRows()))
	for i := range columns {
		columns[i].Release()
	}
	return tbl
}

func buildArray(c *table.Column, mem memory.Allocator) arrow.Array {
	n := c.Len()
	switch c.Kind {
	case table.Int:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		b.AppendValues(c.Ints, nil)
		return b.NewArray()

	case table.Float:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.Reserve(n)
		for i, v := range c.Floats {
			if c.IsNull(i) {
				b.AppendNull()
				continue
			}
			b.Append(v)
		}
		return b.NewArray()

	case table.String:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		b.Reserve(n)
		for i, v := range c.Strings {
			if c.IsNull(i) {
				b.AppendNull()
				continue
			}
			b.Append(v)
		}
		return b.NewArray()

	default:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		b.Reserve(n)
		for i, v := range c.Bools {
			if c.IsNull(i) {
				b.AppendNull()
				continue
			}
			b.Append(v)
		}
		return b.NewArray()
	}
}
