package table

import "math"

// pairwiseBlock matches the unrolled block size of numpy's float reduction.
const pairwiseBlock = 128

// Sum adds values the way a NaN-skipping numpy reduction does: NaN counts as
// zero and the addition order follows numpy's pairwise scheme, so results are
// bit-identical to the dataframe reference.
func Sum(values []float64) float64 {
	a := make([]float64, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			a[i] = v
		}
	}
	return 0 + pairwise(a)
}

func pairwise(a []float64) float64 {
	n := len(a)
	switch {
	case n < 8:
		res := 0.0
		for _, v := range a {
			res += v
		}
		return res

	case n <= pairwiseBlock:
		var r [8]float64
		copy(r[:], a[:8])
		i := 8
		for ; i < n-(n%8); i += 8 {
			r[0] += a[i+0]
			r[1] += a[i+1]
			r[2] += a[i+2]
			r[3] += a[i+3]
			r[4] += a[i+4]
			r[5] += a[i+5]
			r[6] += a[i+6]
			r[7] += a[i+7]
		}
		res := ((r[0] + r[1]) + (r[2] + r[3])) + ((r[4] + r[5]) + (r[6] + r[7]))
		for ; i < n; i++ {
			res += a[i]
		}
		return res

	default:
		n2 := n / 2
		n2 -= n2 % 8
		return pairwise(a[:n2]) + pairwise(a[n2:])
	}
}

// KahanSum adds values in order with compensated summation, skipping NaN.
// This is the accumulation used for grouped sums.
func KahanSum(values []float64) float64 {
	var sum, comp float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		y := v - comp
		t := sum + y
		comp = t - sum - y
		if math.IsNaN(comp) {
			comp = 0
		}
		sum = t
	}
	return sum
}

// GroupSums sums column c per group. Int columns sum exactly and stay Int;
// Float columns use KahanSum in row order.
func GroupSums(g *Grouping, c *Column, name string) (*Column, error) {
	switch c.Kind {
	case Int:
		out := make([]int64, g.NumGroups())
		for id, rows := range g.Rows {
			var s int64
			for _, r := range rows {
				s += c.Ints[r]
			}
			out[id] = s
		}
		return NewInt(name, out), nil
	case Float:
		out := make([]float64, g.NumGroups())
		buf := make([]float64, 0, 64)
		for id, rows := range g.Rows {
			buf = buf[:0]
			for _, r := range rows {
				buf = append(buf, c.Floats[r])
			}
			out[id] = KahanSum(buf)
		}
		return NewFloat(name, out), nil
	default:
		_, err := c.AsFloat()
		return nil, err
	}
}
