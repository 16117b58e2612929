package table

import (
	"math"
	"sort"
	"strings"
)

// compareCells orders cell i of a against cell j of b. Nulls sort after every
// value and compare equal to each other. Int and Float compare numerically.
func compareCells(a *Column, i int, b *Column, j int) int {
	an, bn := a.IsNull(i), b.IsNull(j)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}

	if a.Kind == Int && b.Kind == Int {
		return cmpOrdered(a.Ints[i], b.Ints[j])
	}
	if a.Numeric() && b.Numeric() {
		return cmpOrdered(a.Float(i), b.Float(j))
	}
	if a.Kind == String && b.Kind == String {
		return strings.Compare(a.Strings[i], b.Strings[j])
	}
	if a.Kind == Bool && b.Kind == Bool {
		return cmpOrdered(b2i(a.Bools[i]), b2i(b.Bools[j]))
	}
	// Mixed kinds order by kind so sorting stays total.
	return cmpOrdered(a.Kind, b.Kind)
}

// cellsEqual is compareCells == 0 restricted to comparable kinds; nulls
// match nulls, as dataframe merges do.
func cellsEqual(a *Column, i int, b *Column, j int) bool {
	an, bn := a.IsNull(i), b.IsNull(j)
	if an || bn {
		return an && bn
	}
	if a.Numeric() != b.Numeric() || (!a.Numeric() && a.Kind != b.Kind) {
		return false
	}
	return compareCells(a, i, b, j) == 0
}

type ordered interface {
	~int | ~int64 | ~uint8 | ~float64
}

func cmpOrdered[T ordered](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SortOrder returns the stable ascending row order by the given columns,
// nulls last.
func (t *Table) SortOrder(by ...string) ([]int, error) {
	cols, err := t.Require(by...)
	if err != nil {
		return nil, err
	}
	order := make([]int, t.nrows)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		for _, c := range cols {
			if d := compareCells(c, order[x], c, order[y]); d != 0 {
				return d < 0
			}
		}
		return false
	})
	return order, nil
}

// SortBy returns t sorted stably by the given columns, nulls last. Row labels
// follow their rows.
func (t *Table) SortBy(by ...string) (*Table, error) {
	order, err := t.SortOrder(by...)
	if err != nil {
		return nil, err
	}
	return t.Take(order), nil
}

// Filter keeps the rows where keep[i] is true, preserving order and labels.
func (t *Table) Filter(keep []bool) *Table {
	rows := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			rows = append(rows, i)
		}
	}
	return t.Take(rows)
}

// DropNull removes rows with a null in any of the named columns.
func (t *Table) DropNull(subset ...string) (*Table, error) {
	cols, err := t.Require(subset...)
	if err != nil {
		return nil, err
	}
	keep := make([]bool, t.nrows)
	for i := range keep {
		keep[i] = true
		for _, c := range cols {
			if c.IsNull(i) {
				keep[i] = false
				break
			}
		}
	}
	return t.Filter(keep), nil
}

// normalizedFloat folds -0 into 0 so numerically equal keys hash alike.
func normalizedFloat(f float64) float64 {
	if f == 0 {
		return 0
	}
	return f
}

// integral reports whether f holds an int64 value exactly.
func integral(f float64) (int64, bool) {
	if math.IsInf(f, 0) || f != math.Trunc(f) || f < -9.223372036854775808e18 || f >= 9.223372036854775808e18 {
		return 0, false
	}
	return int64(f), true
}
