package table

import (
	"math"
	"reflect"
	"testing"
)

func TestGroupBy_SortedKeysAndNullExclusion(t *testing.T) {
	t.Parallel()

	tb := MustNew(
		NewFloat("year", []float64{2019, 2018, math.NaN(), 2019, 2018}),
		NewString("code", []string{"x", "y", "x", "x", "y"}, nil),
	)

	g, err := GroupBy(tb, "year", "code")
	if err != nil {
		t.Fatalf("GroupBy() error = %v", err)
	}
	if g.NumGroups() != 2 {
		t.Fatalf("NumGroups() = %d, want 2", g.NumGroups())
	}
	if want := []int{1, 0, -1, 1, 0}; !reflect.DeepEqual(g.IDs, want) {
		t.Fatalf("IDs = %v, want %v", g.IDs, want)
	}
	if want := [][]int{{1, 4}, {0, 3}}; !reflect.DeepEqual(g.Rows, want) {
		t.Fatalf("Rows = %v, want %v", g.Rows, want)
	}

	keys := g.KeyTable()
	year, _ := keys.Column("year")
	if want := []float64{2018, 2019}; !reflect.DeepEqual(year.Floats, want) {
		t.Fatalf("key years = %v, want %v", year.Floats, want)
	}
}

func TestGroupBy_IntAndFloatKeysCoincide(t *testing.T) {
	t.Parallel()

	left := MustNew(NewInt("k", []int64{1, 2}), NewString("a", []string{"p", "q"}, nil))
	right := MustNew(NewFloat("k", []float64{2.0, 1.0}), NewString("b", []string{"two", "one"}, nil))

	got, err := Merge(left, right, []string{"k"}, Left)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	b, _ := got.Column("b")
	if want := []string{"one", "two"}; !reflect.DeepEqual(b.Strings, want) {
		t.Fatalf("b = %v, want %v", b.Strings, want)
	}
}

func TestGroupSums(t *testing.T) {
	t.Parallel()

	tb := MustNew(
		NewString("code", []string{"a", "b", "a"}, nil),
		NewInt("n", []int64{3, 4, 5}),
		NewFloat("f", []float64{1e16, 1, 1}),
	)
	g, err := GroupBy(tb, "code")
	if err != nil {
		t.Fatalf("GroupBy() error = %v", err)
	}
	n, _ := tb.Column("n")
	sums, err := GroupSums(g, n, "total")
	if err != nil {
		t.Fatalf("GroupSums() error = %v", err)
	}
	if sums.Kind != Int || !reflect.DeepEqual(sums.Ints, []int64{8, 4}) {
		t.Fatalf("sums = %v (%v), want [8 4] int", sums.Ints, sums.Kind)
	}
}

func TestNUnique(t *testing.T) {
	t.Parallel()

	tb := MustNew(
		NewInt("year", []int64{2019, 2019, 2019, 2020, 2020}),
		NewFloat("code", []float64{1, 1.0, 2, math.NaN(), 3}),
	)
	g, err := GroupBy(tb, "year")
	if err != nil {
		t.Fatalf("GroupBy() error = %v", err)
	}
	got := NUnique(g, mustCol(t, tb, "code"), "n")
	if !reflect.DeepEqual(got.Ints, []int64{2, 1}) {
		t.Fatalf("NUnique() = %v, want [2 1]", got.Ints)
	}
}

func TestCountUnique(t *testing.T) {
	t.Parallel()

	tests := []struct {
		c    *Column
		want int
	}{
		{NewFloat("f", []float64{1, 1, -0.0, 0, math.NaN()}), 2},
		{NewString("s", []string{"a", "", "a", "b"}, []bool{true, false, true, true}), 2},
		{NewInt("i", nil), 0},
	}
	for _, tc := range tests {
		if got := CountUnique(tc.c); got != tc.want {
			t.Errorf("CountUnique(%s) = %d, want %d", tc.c.Name, got, tc.want)
		}
	}
}

func mustCol(t *testing.T, tb *Table, name string) *Column {
	t.Helper()
	c, err := tb.Column(name)
	if err != nil {
		t.Fatalf("Column(%q) error = %v", name, err)
	}
	return c
}
