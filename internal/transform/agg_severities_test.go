package transform

import (
	"errors"
	"math"
	"testing"

	"drgetl/internal/table"
)

func severityInput() *table.Table {
	return table.MustNew(
		table.NewInt("year", []int64{2019, 2019, 2019, 2019, 2020, 2020}),
		table.NewInt("facility", []int64{2, 2, 2, 1, 1, 1}),
		table.NewInt("severity", []int64{1, 2, 3, 1, 1, 4}),
		table.NewInt("discharges", []int64{10, 20, 10, 5, 0, 0}),
		table.NewFloat("mean_cost", []float64{100, 200, 400, 50, 10, 30}),
		table.NewFloat("total_median_profit", []float64{3, 1, 2, 7, 5, math.NaN()}),
	)
}

func severityConfig() AggSeveritiesConfig {
	return AggSeveritiesConfig{
		WeightedMeanWeightColName:       "discharges",
		WeightedMedianWeightColName:     "discharges",
		DischargesColName:               "discharges",
		SumDischargesKey:                "sum_discharges",
		SeverityLevels:                  []int{1, 2, 3},
		AprSeverityOfIllnessCodeColName: "severity",
		MeanCols:                        []string{"mean_cost", "not_there"},
		MedianCols:                      []string{"total_median_profit"},
		GroupbyCols:                     []string{"year", "facility"},
	}
}

func TestAggSeverities(t *testing.T) {
	t.Parallel()

	got, err := AggSeverities(severityInput(), severityConfig())
	if err != nil {
		t.Fatalf("AggSeverities() error = %v", err)
	}
	wantNames := []string{
		"index", "year", "facility", "sum_discharges",
		"severity_1_portion", "severity_2_portion", "severity_3_portion",
		"w_mean_cost", "w_total_median_profit",
	}
	if !sameStrings(got.Names(), wantNames) {
		t.Fatalf("Names() = %v, want %v", got.Names(), wantNames)
	}

	// Groups in key order: (2019,1), (2019,2), (2020,1).
	checks := map[string][]float64{
		"index":                 {0, 1, 2},
		"facility":              {1, 2, 1},
		"sum_discharges":        {5, 40, 0},
		"severity_1_portion":    {1, 0.25, 0},
		"severity_2_portion":    {0, 0.5, 0},
		"severity_3_portion":    {0, 0.25, 0},
		"w_mean_cost":           {50, 225, math.NaN()},
		"w_total_median_profit": {7, 1, 5},
	}
	for name, want := range checks {
		c := col(t, got, name)
		if v := floats(c); !sameFloats(v, want) {
			t.Errorf("%s = %v, want %v", name, v, want)
		}
		if name != "index" && name != "facility" && c.Kind != table.Float {
			t.Errorf("%s kind = %v, want float", name, c.Kind)
		}
	}
}

func TestAggSeverities_AsIndexLeadsWithKeys(t *testing.T) {
	t.Parallel()

	cfg := severityConfig()
	cfg.AsIndex = true
	got, err := AggSeverities(severityInput(), cfg)
	if err != nil {
		t.Fatalf("AggSeverities() error = %v", err)
	}
	if names := got.Names(); names[0] != "year" || names[1] != "facility" {
		t.Fatalf("Names() = %v, want year, facility first", names)
	}
}

func TestAggSeverities_PortionsAndBounds(t *testing.T) {
	t.Parallel()

	got, err := AggSeverities(severityInput(), severityConfig())
	if err != nil {
		t.Fatalf("AggSeverities() error = %v", err)
	}
	p1, p2, p3 := col(t, got, "severity_1_portion"), col(t, got, "severity_2_portion"), col(t, got, "severity_3_portion")
	for i := 0; i < got.NumRows(); i++ {
		if s := p1.Float(i) + p2.Float(i) + p3.Float(i); s > 1 {
			t.Errorf("row %d: portions sum to %v, want <= 1", i, s)
		}
	}
	// (2019,2) holds mean_cost 100..400 with positive weights.
	if m := col(t, got, "w_mean_cost").Float(1); m < 100 || m > 400 {
		t.Errorf("w_mean_cost = %v, want within [100, 400]", m)
	}
}

func TestAggSeverities_MissingRequiredAggregate(t *testing.T) {
	t.Parallel()

	cfg := severityConfig()
	cfg.MedianCols = nil
	_, err := AggSeverities(severityInput(), cfg)
	var ie *InvariantError
	if !errors.As(err, &ie) {
		t.Fatalf("AggSeverities() error = %v, want *InvariantError", err)
	}
}

func TestWeightedMedian(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		values  []float64
		weights *table.Column
		want    float64
		wantErr bool
	}{
		{name: "int_weights", values: []float64{5, 1, 3}, weights: table.NewInt("w", []int64{1, 1, 1}), want: 3},
		{name: "heavy_tail", values: []float64{1, 2, 3}, weights: table.NewInt("w", []int64{1, 1, 10}), want: 3},
		{name: "nan_value_last", values: []float64{math.NaN(), 2}, weights: table.NewFloat("w", []float64{5, 1}), want: math.NaN()},
		{name: "nan_weight_skipped", values: []float64{1, 2, 3}, weights: table.NewFloat("w", []float64{math.NaN(), 1, 1}), want: 2},
		{name: "all_nan_weights", values: []float64{1, 2}, weights: table.NewFloat("w", []float64{math.NaN(), math.NaN()}), wantErr: true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rows := make([]int, len(tc.values))
			for i := range rows {
				rows[i] = i
			}
			got, err := weightedMedian(table.NewFloat("v", tc.values), tc.weights, rows)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("weightedMedian() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("weightedMedian() error = %v", err)
			}
			if !sameFloats([]float64{got}, []float64{tc.want}) {
				t.Fatalf("weightedMedian() = %v, want %v", got, tc.want)
			}
		})
	}
}
