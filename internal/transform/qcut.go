package transform

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"drgetl/internal/table"
)

var errBinEdges = errors.New("bin edges must be unique; set duplicates to drop to merge them")

// qcutResult holds either bin codes (NaN where a value falls in no bin) or,
// when labels were requested, interval labels with a validity mask.
type qcutResult struct {
	codes  []float64
	labels []string
	valid  []bool
}

// qcut assigns each value of x to one of q equal-frequency bins. Edges are
// the linear-interpolated quantiles of the non-NaN values; the lowest edge is
// included in the first bin. duplicates is "raise" or "drop" and decides what
// happens when edges coincide.
func qcut(x []float64, q int, withLabels bool, duplicates string) (qcutResult, error) {
	if q < 1 {
		return qcutResult{}, fmt.Errorf("num_bins must be at least 1, got %d", q)
	}
	sorted := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)

	edges := make([]float64, q+1)
	step := 1.0 / float64(q)
	for i := range edges {
		p := float64(i) * step
		if i == q {
			p = 1
		}
		edges[i] = quantile(sorted, p*100/100)
	}

	if u := uniqueFloats(edges); len(u) < len(edges) && len(edges) != 2 {
		switch duplicates {
		case "raise":
			return qcutResult{}, fmt.Errorf("%w: %v", errBinEdges, edges)
		case "drop":
			edges = u
		default:
			return qcutResult{}, fmt.Errorf("duplicates must be raise or drop, got %q", duplicates)
		}
	}

	ids := make([]int, len(x))
	for i, v := range x {
		if math.IsNaN(v) {
			ids[i] = len(edges)
			continue
		}
		ids[i] = sort.SearchFloat64s(edges, v)
		if v == edges[0] {
			ids[i] = 1
		}
	}
	missing := func(id int) bool { return id == 0 || id == len(edges) }

	var res qcutResult
	if !withLabels {
		res.codes = make([]float64, len(x))
		for i, id := range ids {
			if missing(id) {
				res.codes[i] = math.NaN()
			} else {
				res.codes[i] = float64(id - 1)
			}
		}
		return res, nil
	}

	names := intervalLabels(edges)
	res.labels = make([]string, len(x))
	res.valid = make([]bool, len(x))
	for i, id := range ids {
		if !missing(id) {
			res.labels[i] = names[id-1]
			res.valid[i] = true
		}
	}
	return res, nil
}

// quantile is the linear-interpolated p-quantile of sorted, NaN for an empty
// input.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	virtual := float64(n-1) * p
	prev := math.Floor(virtual)
	lo, hi := int(prev), int(prev)+1
	switch {
	case virtual >= float64(n-1):
		lo, hi = n-1, n-1
	case virtual < 0:
		lo, hi = 0, 0
	}
	return lerp(sorted[lo], sorted[hi], virtual-prev)
}

// lerp interpolates from the nearer end so that g in {0, 1} returns an end
// point exactly.
func lerp(a, b, g float64) float64 {
	diff := b - a
	if g >= 0.5 {
		return b - diff*(1-g)
	}
	return a + diff*g
}

// uniqueFloats keeps the first occurrence of each value, treating NaNs as
// equal to each other.
func uniqueFloats(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	seenNaN := false
	for _, f := range v {
		if math.IsNaN(f) {
			if !seenNaN {
				out = append(out, f)
				seenNaN = true
			}
			continue
		}
		dup := false
		for _, g := range out {
			if g == f {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}

// intervalLabels renders the bins between edges as right-closed intervals,
// "(a, b]". Edges are rounded to the smallest precision (from 3 decimals)
// that keeps them distinct, and the first edge is lowered by one unit of that
// precision so the lowest value reads as inside the first bin.
func intervalLabels(edges []float64) []string {
	precision := 3
	for p := 3; p < 20; p++ {
		rounded := make([]float64, len(edges))
		for i, e := range edges {
			rounded[i] = roundFrac(e, p)
		}
		if len(uniqueFloats(rounded)) == len(edges) {
			precision = p
			break
		}
	}

	breaks := make([]float64, len(edges))
	for i, e := range edges {
		breaks[i] = roundFrac(e, precision)
	}
	if len(breaks) > 0 {
		breaks[0] -= math.Pow10(-precision)
	}

	labels := make([]string, 0, len(breaks))
	for i := 1; i < len(breaks); i++ {
		labels = append(labels, "("+table.FormatFloat(breaks[i-1])+", "+table.FormatFloat(breaks[i])+"]")
	}
	return labels
}

// roundFrac rounds x to precision significant decimals of its fractional
// part when |x| < 1, and to precision decimals otherwise.
func roundFrac(x float64, precision int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x == 0 {
		return x
	}
	whole, frac := math.Modf(x)
	digits := precision
	if whole == 0 {
		digits = -int(math.Floor(math.Log10(math.Abs(frac)))) - 1 + precision
	}
	return roundDecimals(x, digits)
}

// roundDecimals rounds half to even at the given number of decimals.
func roundDecimals(x float64, digits int) float64 {
	f := powerOfTen(digits)
	return math.RoundToEven(x*f) / f
}

// powerOfTen builds 10^n by repeated multiplication past 1e8, which is how
// decimal rounding scales its operand.
func powerOfTen(n int) float64 {
	p10 := [...]float64{1e0, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8}
	if n < len(p10) {
		return p10[n]
	}
	r := 1e9
	for ; n > 9; n-- {
		r *= 10
	}
	return r
}
