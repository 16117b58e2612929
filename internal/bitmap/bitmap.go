// Package bitmap is a fixed-size bitset over dense non-negative IDs, such as
// the group IDs produced by table.GroupBy.
package bitmap

import "math/bits"

// Bitmap holds bits for IDs in [0, Cap()).
type Bitmap struct {
	words []uint64
	n     int
}

// New allocates a bitmap for IDs in [0, n). n <= 0 yields an empty set.
func New(n int) *Bitmap {
	if n <= 0 {
		return &Bitmap{}
	}
	return &Bitmap{words: make([]uint64, (n+63)/64), n: n}
}

// Cap returns the number of addressable IDs.
func (b *Bitmap) Cap() int { return b.n }

// Add sets id. IDs outside [0, Cap()) are ignored.
func (b *Bitmap) Add(id int) {
	if id < 0 || id >= b.n {
		return
	}
	b.words[id/64] |= 1 << uint(id%64)
}

// Has reports whether id is set.
func (b *Bitmap) Has(id int) bool {
	if id < 0 || id >= b.n {
		return false
	}
	return b.words[id/64]&(1<<uint(id%64)) != 0
}

// Count returns the number of set IDs.
func (b *Bitmap) Count() int {
	c := 0
	for _, w := range b.words {
		c += bits.OnesCount64(w)
	}
	return c
}
