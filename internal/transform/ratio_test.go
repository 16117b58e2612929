package transform

import (
	"testing"

	"drgetl/internal/table"
)

func TestRatioDrgFacilityVsYear(t *testing.T) {
	t.Parallel()

	in := table.MustNew(
		table.NewInt("year", []int64{2019, 2019, 2019, 2019, 2020}),
		table.NewInt("facility", []int64{1, 1, 2, 1, 1}),
		table.NewInt("code", []int64{100, 200, 300, 100, 100}),
	)
	got, err := RatioDrgFacilityVsYear(in, RatioDrgFacilityVsYearConfig{
		YearColName:                   "year",
		FacilityIDColName:             "facility",
		AprDrgCodeColName:             "code",
		FacilityDrgCountColName:       "fac_count",
		YearDrgCountColName:           "year_count",
		RatioDrgFacilityVsYearColName: "ratio",
		YearMergeOn:                   []string{"year"},
		YearMergeHow:                  "left",
		FinalMergeOn:                  []string{"year", "facility"},
		FinalMergeHow:                 "left",
	})
	if err != nil {
		t.Fatalf("RatioDrgFacilityVsYear() error = %v", err)
	}

	if got.NumRows() != in.NumRows() {
		t.Fatalf("NumRows() = %d, want %d", got.NumRows(), in.NumRows())
	}
	wantNames := []string{"year", "facility", "code", "fac_count", "year_count", "ratio"}
	if !sameStrings(got.Names(), wantNames) {
		t.Fatalf("Names() = %v, want %v", got.Names(), wantNames)
	}
	checks := map[string][]float64{
		"fac_count":  {2, 2, 1, 2, 1},
		"year_count": {3, 3, 3, 3, 1},
		"ratio":      {2.0 / 3, 2.0 / 3, 1.0 / 3, 2.0 / 3, 1},
	}
	for name, want := range checks {
		if v := floats(col(t, got, name)); !sameFloats(v, want) {
			t.Errorf("%s = %v, want %v", name, v, want)
		}
	}
	if k := col(t, got, "fac_count").Kind; k != table.Int {
		t.Errorf("fac_count kind = %v, want int", k)
	}
}
