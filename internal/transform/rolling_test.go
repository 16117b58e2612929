package transform

import (
	"testing"
)

func TestRollingColumns(t *testing.T) {
	t.Parallel()

	in := seriesInput()
	got, err := RollingColumns(in, RollingColumnsConfig{
		ColumnsToTransform:   []string{"value"},
		GroupbyTimeBasedCols: []string{"year"},
		Drop:                 true,
		GroupbyRollingCols:   []string{"facility"},
		RollingStr:           "_roll",
		Window:               2,
		ShiftPeriods:         1,
		MinPeriods:           1,
	})
	if err != nil {
		t.Fatalf("RollingColumns() error = %v", err)
	}
	if want := []float64{10, 100, 15}; !sameFloats(floats(col(t, got, "value_roll2")), want) {
		t.Fatalf("value_roll2 = %v, want %v", floats(col(t, got, "value_roll2")), want)
	}
	idx := got.Index()
	if want := []int64{2, 3, 4}; len(idx) != len(want) || idx[0] != 2 || idx[1] != 3 || idx[2] != 4 {
		t.Fatalf("Index() = %v, want %v", idx, want)
	}
}

func TestRollMean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		values     []float64
		window     int
		minPeriods int
		want       []float64
	}{
		{name: "min_periods", values: []float64{1, nan, 3, 4}, window: 2, minPeriods: 2,
			want: []float64{nan, nan, nan, 3.5}},
		{name: "partial_windows", values: []float64{2, 4, 6, 8}, window: 3, minPeriods: 1,
			want: []float64{2, 3, 4, 6}},
		{name: "identical_values_exact", values: []float64{0.1, 0.1, 0.1, 0.1}, window: 3, minPeriods: 1,
			want: []float64{0.1, 0.1, 0.1, 0.1}},
		{name: "window_one_restarts", values: []float64{1.5, -2, 7}, window: 1, minPeriods: 0,
			want: []float64{1.5, -2, 7}},
		{name: "window_zero", values: []float64{1, 2}, window: 0, minPeriods: 0,
			want: []float64{nan, nan}},
		{name: "empty", values: nil, window: 3, minPeriods: 1, want: []float64{}},
	}
	for _, tc := range tests {
		if got := rollMean(tc.values, tc.window, tc.minPeriods); !sameFloats(got, tc.want) {
			t.Errorf("%s: rollMean() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRollingColumnsConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		window, minPeriods int
		wantErr            bool
	}{
		{2, 1, false},
		{2, 2, false},
		{0, 0, false},
		{2, 3, true},
		{-1, 0, true},
		{3, -1, true},
	}
	for _, tc := range tests {
		cfg := RollingColumnsConfig{Window: tc.window, MinPeriods: tc.minPeriods}
		if err := cfg.validate(); (err != nil) != tc.wantErr {
			t.Errorf("validate(window=%d, min_periods=%d) = %v, wantErr %v", tc.window, tc.minPeriods, err, tc.wantErr)
		}
	}
}
