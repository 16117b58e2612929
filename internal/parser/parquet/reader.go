// Package parquet reads Parquet files into tables.
package parquet

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"drgetl/internal/table"
)

// ReadFile loads every row group of the file at path.
func ReadFile(ctx context.Context, path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parquet: open %s: %w", path, err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f, file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return nil, fmt.Errorf("parquet: %s: %w", path, err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("parquet: arrow reader: %w", err)
	}
	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("parquet: read %s: %w", path, err)
	}
	defer tbl.Release()
	return FromArrow(tbl)
}

// FromArrow converts an arrow table. Integer columns containing nulls become
// Float, matching how the CSV reader types them.
func FromArrow(tbl arrow.Table) (*table.Table, error) {
	cols := make([]*table.Column, 0, tbl.NumCols())
	for i := 0; i < int(tbl.NumCols()); i++ {
		col := tbl.Column(i)
		c, err := convert(col.Name(), col.Data().Chunks(), int(tbl.NumRows()))
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return table.New(cols...)
}

func convert(name string, chunks []arrow.Array, n int) (*table.Column, error) {
	if len(chunks) == 0 {
		return table.NewFloat(name, []float64{}), nil
	}
	switch chunks[0].(type) {
	case *array.Int64, *array.Int32:
		nulls := 0
		for _, ch := range chunks {
			nulls += ch.NullN()
		}
		ints := make([]int64, 0, n)
		floats := make([]float64, 0, n)
		for _, ch := range chunks {
			for j := 0; j < ch.Len(); j++ {
				var v int64
				switch a := ch.(type) {
				case *array.Int64:
					v = a.Value(j)
				case *array.Int32:
					v = int64(a.Value(j))
				}
				if nulls > 0 {
					if ch.IsNull(j) {
						floats = append(floats, math.NaN())
					} else {
						floats = append(floats, float64(v))
					}
					continue
				}
				ints = append(ints, v)
			}
		}
		if nulls > 0 {
			return table.NewFloat(name, floats), nil
		}
		return table.NewInt(name, ints), nil

	case *array.Float64:
		out := make([]float64, 0, n)
		for _, ch := range chunks {
			a := ch.(*array.Float64)
			for j := 0; j < a.Len(); j++ {
				if a.IsNull(j) {
					out = append(out, math.NaN())
					continue
				}
				out = append(out, a.Value(j))
			}
		}
		return table.NewFloat(name, out), nil

	case *array.String:
		out := make([]string, 0, n)
		valid := make([]bool, 0, n)
		nulls := 0
		for _, ch := range chunks {
			a := ch.(*array.String)
			for j := 0; j < a.Len(); j++ {
				if a.IsNull(j) {
					nulls++
					out = append(out, "")
					valid = append(valid, false)
					continue
				}
				out = append(out, a.Value(j))
				valid = append(valid, true)
			}
		}
		if nulls == 0 {
			valid = nil
		}
		return table.NewString(name, out, valid), nil

	case *array.Boolean:
		out := make([]bool, 0, n)
		valid := make([]bool, 0, n)
		nulls := 0
		for _, ch := range chunks {
			a := ch.(*array.Boolean)
			for j := 0; j < a.Len(); j++ {
				if a.IsNull(j) {
					nulls++
					out = append(out, false)
					valid = append(valid, false)
					continue
				}
				out = append(out, a.Value(j))
				valid = append(valid, true)
			}
		}
		if nulls == 0 {
			valid = nil
		}
		return table.NewBool(name, out, valid), nil

	default:
		return nil, fmt.Errorf("parquet: column %q has unsupported type %s", name, chunks[0].DataType())
	}
}
