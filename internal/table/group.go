package table

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/zeebo/xxh3"
)

// Grouping partitions the rows of a table by the values of key columns.
// Groups are numbered in ascending key order; rows with a null in any key
// belong to no group.
type Grouping struct {
	keys []*Column
	// IDs holds the group of every row, or -1 for rows with a null key.
	IDs []int
	// Rows lists the member rows of each group in table order.
	Rows [][]int
}

// GroupBy groups t by the named columns.
func GroupBy(t *Table, keys ...string) (*Grouping, error) {
	cols, err := t.Require(keys...)
	if err != nil {
		return nil, err
	}

	g := &Grouping{keys: cols, IDs: make([]int, t.nrows)}
	buckets := make(map[uint64][]int) // hash -> group ids
	var buf []byte

	for r := 0; r < t.nrows; r++ {
		if anyNull(cols, r) {
			g.IDs[r] = -1
			continue
		}
		buf = appendKey(buf[:0], cols, r)
		h := xxh3.Hash(buf)

		id := -1
		for _, cand := range buckets[h] {
			if rowsEqual(cols, g.Rows[cand][0], cols, r) {
				id = cand
				break
			}
		}
		if id < 0 {
			id = len(g.Rows)
			buckets[h] = append(buckets[h], id)
			g.Rows = append(g.Rows, nil)
		}
		g.Rows[id] = append(g.Rows[id], r)
		g.IDs[r] = id
	}

	g.sortGroups()
	return g, nil
}

// sortGroups renumbers groups in ascending key order.
func (g *Grouping) sortGroups() {
	perm := make([]int, len(g.Rows))
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(x, y int) bool {
		a, b := g.Rows[perm[x]][0], g.Rows[perm[y]][0]
		for _, c := range g.keys {
			if d := compareCells(c, a, c, b); d != 0 {
				return d < 0
			}
		}
		return false
	})

	remap := make([]int, len(perm))
	rows := make([][]int, len(perm))
	for newID, oldID := range perm {
		remap[oldID] = newID
		rows[newID] = g.Rows[oldID]
	}
	for r, id := range g.IDs {
		if id >= 0 {
			g.IDs[r] = remap[id]
		}
	}
	g.Rows = rows
}

// NumGroups returns the number of non-null groups.
func (g *Grouping) NumGroups() int { return len(g.Rows) }

// KeyTable returns one row per group holding the key values, in group order.
func (g *Grouping) KeyTable() *Table {
	first := make([]int, len(g.Rows))
	for i, rows := range g.Rows {
		first[i] = rows[0]
	}
	cols := make([]*Column, len(g.keys))
	for i, c := range g.keys {
		cols[i] = c.Take(first)
	}
	return MustNew(cols...)
}

func anyNull(cols []*Column, r int) bool {
	for _, c := range cols {
		if c.IsNull(r) {
			return true
		}
	}
	return false
}

func rowsEqual(a []*Column, i int, b []*Column, j int) bool {
	for k := range a {
		if !cellsEqual(a[k], i, b[k], j) {
			return false
		}
	}
	return true
}

// appendKey encodes the key cells of row r. Numeric cells holding an integral
// value encode identically whether stored as Int or Float, so 2019 and 2019.0
// land in the same bucket.
func appendKey(buf []byte, cols []*Column, r int) []byte {
	for _, c := range cols {
		if c.IsNull(r) {
			buf = append(buf, 0)
			continue
		}
		switch c.Kind {
		case Int:
			buf = append(buf, 'i')
			buf = binary.LittleEndian.AppendUint64(buf, uint64(c.Ints[r]))
		case Float:
			f := normalizedFloat(c.Floats[r])
			if v, ok := integral(f); ok {
				buf = append(buf, 'i')
				buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
			} else {
				buf = append(buf, 'f')
				buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
			}
		case String:
			buf = append(buf, 's')
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.Strings[r])))
			buf = append(buf, c.Strings[r]...)
		case Bool:
			buf = append(buf, 'b', byte(b2i(c.Bools[r])))
		}
	}
	return buf
}

// NUnique counts the distinct non-null values of c in each group.
func NUnique(g *Grouping, c *Column, name string) *Column {
	out := make([]int64, g.NumGroups())
	cols := []*Column{c}
	var buf []byte
	for id, rows := range g.Rows {
		seen := make(map[string]struct{}, len(rows))
		for _, r := range rows {
			if c.IsNull(r) {
				continue
			}
			buf = appendKey(buf[:0], cols, r)
			seen[string(buf)] = struct{}{}
		}
		out[id] = int64(len(seen))
	}
	return NewInt(name, out)
}

// CountUnique counts the distinct non-null values of c.
func CountUnique(c *Column) int {
	cols := []*Column{c}
	seen := make(map[string]struct{})
	var buf []byte
	for r := 0; r < c.Len(); r++ {
		if c.IsNull(r) {
			continue
		}
		buf = appendKey(buf[:0], cols, r)
		seen[string(buf)] = struct{}{}
	}
	return len(seen)
}
