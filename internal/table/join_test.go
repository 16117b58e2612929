package table

import (
	"math"
	"reflect"
	"testing"
)

func mergeInputs() (*Table, *Table) {
	left := MustNew(
		NewInt("year", []int64{2019, 2018, 2020, 2019}),
		NewString("fac", []string{"a", "b", "c", "d"}, nil),
		NewInt("n", []int64{1, 2, 3, 4}),
	)
	right := MustNew(
		NewInt("year", []int64{2018, 2019, 2021}),
		NewInt("n", []int64{10, 20, 30}),
	)
	return left, right
}

func TestMerge_Types(t *testing.T) {
	t.Parallel()

	tests := []struct {
		how      How
		wantYear []int64
		wantFac  []string
		wantNY   []float64
	}{
		{Left, []int64{2019, 2018, 2020, 2019}, []string{"a", "b", "c", "d"}, []float64{20, 10, math.NaN(), 20}},
		{Inner, []int64{2019, 2018, 2019}, []string{"a", "b", "d"}, []float64{20, 10, 20}},
		{Right, []int64{2018, 2019, 2019, 2021}, []string{"b", "a", "d", ""}, []float64{10, 20, 20, 30}},
		{Outer, []int64{2018, 2019, 2019, 2020, 2021}, []string{"b", "a", "d", "c", ""}, []float64{10, 20, 20, math.NaN(), 30}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(string(tc.how), func(t *testing.T) {
			t.Parallel()

			left, right := mergeInputs()
			got, err := Merge(left, right, []string{"year"}, tc.how)
			if err != nil {
				t.Fatalf("Merge() error = %v", err)
			}
			if want := []string{"year", "fac", "n_x", "n_y"}; !reflect.DeepEqual(got.Names(), want) {
				t.Fatalf("Names() = %v, want %v", got.Names(), want)
			}

			year, _ := got.Column("year")
			if year.Kind != Int || !reflect.DeepEqual(year.Ints, tc.wantYear) {
				t.Fatalf("year = %v (%v), want %v", year.Ints, year.Kind, tc.wantYear)
			}
			fac, _ := got.Column("fac")
			for i, want := range tc.wantFac {
				if got := fac.Format(i); got != want {
					t.Fatalf("fac[%d] = %q, want %q", i, got, want)
				}
			}
			ny, _ := got.Column("n_y")
			for i, want := range tc.wantNY {
				g := ny.Float(i)
				if g != want && !(math.IsNaN(g) && math.IsNaN(want)) {
					t.Fatalf("n_y[%d] = %v, want %v", i, g, want)
				}
			}
			if got.Index() != nil {
				t.Fatalf("Index() = %v, want range", got.Index())
			}
		})
	}
}

func TestMerge_MissingKey(t *testing.T) {
	t.Parallel()

	left, right := mergeInputs()
	if _, err := Merge(left, right, []string{"fac"}, Left); err == nil {
		t.Fatalf("Merge() error = nil, want missing key on right")
	}
	if _, err := ParseHow("cross"); err == nil {
		t.Fatalf("ParseHow(cross) error = nil")
	}
}
