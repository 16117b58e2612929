package metadata

import (
	"math/bits"
	"unicode/utf8"

	"drgetl/internal/table"
)

// Sizes of boxed cells in an object column, matching a 64-bit CPython 3.12
// runtime: a pointer per cell plus the object it points to.
const (
	pointerSize = 8
	nanSize     = 24 // float NaN standing in for a null
	boolSize    = 28
	rangeSize   = 48
)

// DescribeColumns summarizes every column of t in order, as the columns
// section of a metadata record.
func DescribeColumns(t *table.Table) Columns {
	idx := indexMemory(t)
	out := make(Columns, 0, t.NumCols())
	for _, c := range t.Columns() {
		out = append(out, NamedColumn{
			Name: c.Name,
			ColumnInfo: ColumnInfo{
				DataType:         c.DType(),
				NumMissing:       c.NullCount(),
				UniqueValues:     table.CountUnique(c),
				MemoryUsageBytes: columnMemory(c) + idx,
			},
		})
	}
	return out
}

func indexInfo(t *table.Table) IndexInfo {
	if t.Index() != nil {
		return IndexInfo{IndexType: "Index"}
	}
	start, stop, step, _ := t.IndexRange()
	return IndexInfo{IndexType: "RangeIndex", Start: &start, Stop: &stop, Step: &step}
}

// columnMemory is the deep memory footprint of c.
func columnMemory(c *table.Column) int64 {
	n := int64(c.Len())
	switch {
	case c.Kind == table.Int || c.Kind == table.Float:
		return 8 * n
	case c.DType() == "bool":
		return n
	}

	total := pointerSize * n
	for i := 0; i < c.Len(); i++ {
		switch {
		case c.IsNull(i):
			total += nanSize
		case c.Kind == table.Bool:
			total += boolSize
		default:
			total += strSize(c.Strings[i])
		}
	}
	return total
}

// indexMemory is the footprint of the row index: a range object with its
// three bounds, or one int64 per label.
func indexMemory(t *table.Table) int64 {
	if t.Index() != nil {
		return 8 * int64(len(t.Index()))
	}
	start, stop, step, _ := t.IndexRange()
	return rangeSize + intSize(start) + intSize(stop) + intSize(step)
}

// strSize is the size of a str object, which stores every code point with
// the width of the widest one.
func strSize(s string) int64 {
	n := int64(utf8.RuneCountInString(s))
	var widest rune
	for _, r := range s {
		if r > widest {
			widest = r
		}
	}
	switch {
	case widest < 0x80:
		return 49 + n
	case widest < 0x100:
		return 73 + n
	case widest < 0x10000:
		return 74 + 2*n
	default:
		return 76 + 4*n
	}
}

// intSize is the size of an int object holding v: a 24-byte header plus one
// 4-byte digit per 30 bits, at least one.
func intSize(v int64) int64 {
	u := uint64(v)
	if v < 0 {
		u = uint64(-v)
	}
	digits := (bits.Len64(u) + 29) / 30
	if digits == 0 {
		digits = 1
	}
	return 24 + 4*int64(digits)
}
