package transform

import (
	"errors"
	"testing"

	"drgetl/internal/table"
)

func TestQcut_Codes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		x          []float64
		q          int
		duplicates string
		want       []float64
		wantErr    error
	}{
		{name: "halves", x: []float64{1, 2, 3, 4}, q: 2, duplicates: "raise", want: []float64{0, 0, 1, 1}},
		{name: "nan_stays_nan", x: []float64{4, nan, 1, 2, 3}, q: 2, duplicates: "raise", want: []float64{1, nan, 0, 0, 1}},
		{name: "duplicate_edges_raise", x: []float64{1, 1, 1, 2}, q: 4, duplicates: "raise", wantErr: errBinEdges},
		{name: "duplicate_edges_drop", x: []float64{1, 1, 1, 2}, q: 4, duplicates: "drop", want: []float64{0, 0, 0, 1}},
		{name: "single_value_drop", x: []float64{5}, q: 2, duplicates: "drop", want: []float64{nan}},
		{name: "single_bin", x: []float64{5, 5}, q: 1, duplicates: "raise", want: []float64{0, 0}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := qcut(tc.x, tc.q, false, tc.duplicates)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("qcut() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("qcut() error = %v", err)
			}
			if !sameFloats(got.codes, tc.want) {
				t.Fatalf("qcut() = %v, want %v", got.codes, tc.want)
			}
		})
	}
}

func TestQcut_Labels(t *testing.T) {
	t.Parallel()

	got, err := qcut([]float64{1, 2, 3, 4, nan}, 2, true, "raise")
	if err != nil {
		t.Fatalf("qcut() error = %v", err)
	}
	want := []string{"(0.999, 2.5]", "(0.999, 2.5]", "(2.5, 4.0]", "(2.5, 4.0]", ""}
	if !sameStrings(got.labels, want) {
		t.Fatalf("labels = %q, want %q", got.labels, want)
	}
	if got.valid[4] {
		t.Fatalf("valid[4] = true, want false for NaN input")
	}
}

func TestQuantile(t *testing.T) {
	t.Parallel()

	sorted := []float64{1, 7, 15, 30}
	tests := []struct {
		p, want float64
	}{
		{0, 1},
		{0.5, 11},
		{0.25, 5.5},
		{1, 30},
	}
	for _, tc := range tests {
		if got := quantile(sorted, tc.p); got != tc.want {
			t.Errorf("quantile(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestRoundFrac(t *testing.T) {
	t.Parallel()

	tests := []struct {
		x         float64
		precision int
		want      float64
	}{
		{2.5, 3, 2.5},
		{1234.56789, 3, 1234.568},
		{0.000123456, 3, 0.000123},
		{-0.0456789, 3, -0.0457},
		{0, 3, 0},
	}
	for _, tc := range tests {
		if got := roundFrac(tc.x, tc.precision); got != tc.want {
			t.Errorf("roundFrac(%v, %d) = %v, want %v", tc.x, tc.precision, got, tc.want)
		}
	}
}

func TestYearlyDischargeBin(t *testing.T) {
	t.Parallel()

	in := table.MustNew(
		table.NewInt("year", []int64{2019, 2019, 2019, 2019, 2019, 2020, 2020}),
		table.NewInt("facility", []int64{1, 1, 2, 3, 4, 1, 2}),
		table.NewInt("discharges", []int64{10, 5, 1, 30, 7, 3, 4}),
	)
	cfg := YearlyDischargeBinConfig{
		GroupbyCols:                []string{"year", "facility"},
		SumDischargesColName:       "discharges",
		RenameColumns:              map[string]string{"discharges": "yearly_sum"},
		YearlyDischargeBinColName:  "bin",
		Duplicates:                 "drop",
		NumBins:                    2,
		YearColName:                "year",
		YearlySumDischargesColName: "yearly_sum",
		DfAggColumns:               []string{"year", "facility", "bin"},
		OnColumns:                  []string{"year", "facility"},
		How:                        "left",
	}

	got, err := YearlyDischargeBin(in, cfg)
	if err != nil {
		t.Fatalf("YearlyDischargeBin() error = %v", err)
	}
	if want := []string{"year", "facility", "discharges", "bin"}; !sameStrings(got.Names(), want) {
		t.Fatalf("Names() = %v, want %v", got.Names(), want)
	}
	bin := col(t, got, "bin")
	if bin.Kind != table.Int {
		t.Fatalf("bin kind = %v, want int", bin.Kind)
	}
	if want := []float64{1, 1, 0, 1, 0, 0, 1}; !sameFloats(floats(bin), want) {
		t.Fatalf("bin = %v, want %v", floats(bin), want)
	}

	cfg.Labels = true
	got, err = YearlyDischargeBin(in, cfg)
	if err != nil {
		t.Fatalf("YearlyDischargeBin(labels) error = %v", err)
	}
	labels := col(t, got, "bin")
	if labels.Kind != table.String || labels.Strings[5] != "(2.999, 3.5]" || labels.Strings[6] != "(3.5, 4.0]" {
		t.Fatalf("bin labels = %q, want 2020 intervals (2.999, 3.5] and (3.5, 4.0]", labels.Strings)
	}
}
