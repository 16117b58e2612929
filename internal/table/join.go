package table

import (
	"fmt"
	"sort"

	"github.com/zeebo/xxh3"
)

// How selects the merge type.
type How string

const (
	Left  How = "left"
	Right How = "right"
	Inner How = "inner"
	Outer How = "outer"
)

// ParseHow validates a merge type name.
func ParseHow(s string) (How, error) {
	switch h := How(s); h {
	case Left, Right, Inner, Outer:
		return h, nil
	default:
		return "", fmt.Errorf("table: unsupported merge type %q", s)
	}
}

// Merge joins left and right on the key columns.
//
// The result holds the left columns in order followed by the non-key right
// columns; non-key names present on both sides get "_x" and "_y" suffixes.
// Left and inner merges keep left row order, right merges keep right row
// order, outer merges are sorted by key. Null keys match null keys. The
// result has a range index.
func Merge(left, right *Table, on []string, how How) (*Table, error) {
	if len(on) == 0 {
		return nil, fmt.Errorf("table: merge requires at least one key column")
	}
	lk, err := left.Require(on...)
	if err != nil {
		return nil, fmt.Errorf("merge left: %w", err)
	}
	rk, err := right.Require(on...)
	if err != nil {
		return nil, fmt.Errorf("merge right: %w", err)
	}

	var lrows, rrows []int
	switch how {
	case Left, Inner:
		idx := buildKeyIndex(rk, right.nrows)
		for l := 0; l < left.nrows; l++ {
			matches := idx.lookup(rk, lk, l)
			if len(matches) == 0 {
				if how == Left {
					lrows, rrows = append(lrows, l), append(rrows, -1)
				}
				continue
			}
			for _, r := range matches {
				lrows, rrows = append(lrows, l), append(rrows, r)
			}
		}

	case Right:
		idx := buildKeyIndex(lk, left.nrows)
		for r := 0; r < right.nrows; r++ {
			matches := idx.lookup(lk, rk, r)
			if len(matches) == 0 {
				lrows, rrows = append(lrows, -1), append(rrows, r)
				continue
			}
			for _, l := range matches {
				lrows, rrows = append(lrows, l), append(rrows, r)
			}
		}

	case Outer:
		idx := buildKeyIndex(rk, right.nrows)
		matched := make([]bool, right.nrows)
		for l := 0; l < left.nrows; l++ {
			matches := idx.lookup(rk, lk, l)
			if len(matches) == 0 {
				lrows, rrows = append(lrows, l), append(rrows, -1)
				continue
			}
			for _, r := range matches {
				matched[r] = true
				lrows, rrows = append(lrows, l), append(rrows, r)
			}
		}
		for r := 0; r < right.nrows; r++ {
			if !matched[r] {
				lrows, rrows = append(lrows, -1), append(rrows, r)
			}
		}
		lrows, rrows = sortPairsByKey(lk, rk, lrows, rrows)

	default:
		return nil, fmt.Errorf("table: unsupported merge type %q", how)
	}

	return assembleMerge(left, right, on, lrows, rrows)
}

// keyIndex maps key hashes to the rows carrying them, in row order.
type keyIndex map[uint64][]int

func buildKeyIndex(cols []*Column, n int) keyIndex {
	idx := make(keyIndex, n)
	var buf []byte
	for r := 0; r < n; r++ {
		buf = appendKey(buf[:0], cols, r)
		h := xxh3.Hash(buf)
		idx[h] = append(idx[h], r)
	}
	return idx
}

// lookup returns the indexed rows whose keys equal row r of probe.
func (idx keyIndex) lookup(indexed, probe []*Column, r int) []int {
	h := xxh3.Hash(appendKey(nil, probe, r))
	cands := idx[h]
	if len(cands) == 0 {
		return nil
	}
	out := cands[:0:0]
	for _, c := range cands {
		if rowsEqual(indexed, c, probe, r) {
			out = append(out, c)
		}
	}
	return out
}

func sortPairsByKey(lk, rk []*Column, lrows, rrows []int) ([]int, []int) {
	perm := make([]int, len(lrows))
	for i := range perm {
		perm[i] = i
	}
	keyOf := func(p int) ([]*Column, int) {
		if lrows[p] >= 0 {
			return lk, lrows[p]
		}
		return rk, rrows[p]
	}
	sort.SliceStable(perm, func(x, y int) bool {
		ac, ar := keyOf(perm[x])
		bc, br := keyOf(perm[y])
		for k := range ac {
			if d := compareCells(ac[k], ar, bc[k], br); d != 0 {
				return d < 0
			}
		}
		return false
	})
	outL, outR := make([]int, len(perm)), make([]int, len(perm))
	for i, p := range perm {
		outL[i], outR[i] = lrows[p], rrows[p]
	}
	return outL, outR
}

func assembleMerge(left, right *Table, on []string, lrows, rrows []int) (*Table, error) {
	isKey := make(map[string]bool, len(on))
	for _, k := range on {
		isKey[k] = true
	}

	cols := make([]*Column, 0, left.NumCols()+right.NumCols())
	for _, c := range left.cols {
		if isKey[c.Name] {
			rc, _ := right.Column(c.Name)
			cols = append(cols, coalesceKey(c, rc, lrows, rrows))
			continue
		}
		col := c.Take(lrows)
		if right.Has(c.Name) {
			col.Name = c.Name + "_x"
		}
		cols = append(cols, col)
	}
	for _, c := range right.cols {
		if isKey[c.Name] {
			continue
		}
		col := c.Take(rrows)
		if left.Has(c.Name) {
			col.Name = c.Name + "_y"
		}
		cols = append(cols, col)
	}

	out, err := New(cols...)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	out.nrows = len(lrows)
	return out, nil
}

// coalesceKey takes key values from the left row when present, else the right.
func coalesceKey(lc, rc *Column, lrows, rrows []int) *Column {
	allLeft := true
	for _, l := range lrows {
		if l < 0 {
			allLeft = false
			break
		}
	}
	if allLeft {
		return lc.Take(lrows)
	}

	kind := lc.Kind
	if lc.Kind != rc.Kind {
		if lc.Numeric() && rc.Numeric() {
			kind = Float
		} else {
			kind = String
		}
	}

	n := len(lrows)
	src := func(i int) (*Column, int) {
		if lrows[i] >= 0 {
			return lc, lrows[i]
		}
		return rc, rrows[i]
	}

	switch kind {
	case Int:
		out := make([]int64, n)
		for i := range out {
			c, r := src(i)
			out[i] = c.Ints[r]
		}
		return NewInt(lc.Name, out)
	case Float:
		out := make([]float64, n)
		for i := range out {
			c, r := src(i)
			out[i] = c.Float(r)
		}
		return NewFloat(lc.Name, out)
	case Bool:
		out, valid := make([]bool, n), make([]bool, n)
		for i := range out {
			c, r := src(i)
			if !c.IsNull(r) {
				out[i], valid[i] = c.Bools[r], true
			}
		}
		return NewBool(lc.Name, out, valid)
	default:
		out, valid := make([]string, n), make([]bool, n)
		for i := range out {
			c, r := src(i)
			if !c.IsNull(r) {
				out[i], valid[i] = c.Format(r), true
			}
		}
		return NewString(lc.Name, out, valid)
	}
}
