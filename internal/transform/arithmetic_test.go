package transform

import (
	"math"
	"testing"

	"drgetl/internal/table"
)

func profitInput() *table.Table {
	return table.MustNew(
		table.NewInt("discharges", []int64{3, 5, 2}),
		table.NewInt("charge", []int64{100, 250, 80}),
		table.NewFloat("cost", []float64{60.5, math.NaN(), 20}),
		table.NewString("name", []string{"a", "b", "c"}, nil),
	)
}

func TestArithmetic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		run      func(*table.Table) (*table.Table, error)
		out      string
		wantKind table.Kind
		want     []float64
	}{
		{
			name: "mean_profit_float",
			run: func(tb *table.Table) (*table.Table, error) {
				return MeanProfit(tb, MeanProfitConfig{"mean_profit", "charge", "cost"})
			},
			out: "mean_profit", wantKind: table.Float, want: []float64{39.5, math.NaN(), 60},
		},
		{
			name: "total_mean_cost_float",
			run: func(tb *table.Table) (*table.Table, error) {
				return TotalMeanCost(tb, TotalMeanCostConfig{"total_mean_cost", "cost", "discharges"})
			},
			out: "total_mean_cost", wantKind: table.Float, want: []float64{181.5, math.NaN(), 40},
		},
		{
			name: "int_times_int_stays_int",
			run: func(tb *table.Table) (*table.Table, error) {
				return TotalMedianProfit(tb, TotalMedianProfitConfig{"tmp", "charge", "discharges"})
			},
			out: "tmp", wantKind: table.Int, want: []float64{300, 1250, 160},
		},
		{
			name: "replaces_existing_column",
			run: func(tb *table.Table) (*table.Table, error) {
				return MedianProfit(tb, MedianProfitConfig{"charge", "charge", "discharges"})
			},
			out: "charge", wantKind: table.Int, want: []float64{97, 245, 78},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			in := profitInput()
			got, err := tc.run(in)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if got.NumRows() != in.NumRows() {
				t.Fatalf("NumRows() = %d, want %d", got.NumRows(), in.NumRows())
			}
			c := col(t, got, tc.out)
			if c.Kind != tc.wantKind {
				t.Fatalf("Kind = %v, want %v", c.Kind, tc.wantKind)
			}
			if v := floats(c); !sameFloats(v, tc.want) {
				t.Fatalf("%s = %v, want %v", tc.out, v, tc.want)
			}
			if in.NumCols() != 4 {
				t.Fatalf("input modified: %d columns", in.NumCols())
			}
		})
	}
}

func TestArithmetic_NonNumericOperand(t *testing.T) {
	t.Parallel()

	_, err := TotalMeanProfit(profitInput(), TotalMeanProfitConfig{"x", "name", "discharges"})
	if err == nil {
		t.Fatalf("TotalMeanProfit() error = nil, want non-numeric error")
	}
}

func TestDropDescriptionColumns(t *testing.T) {
	t.Parallel()

	in := table.MustNew(
		table.NewInt("apr_drg_code", []int64{1}),
		table.NewString("apr_drg_description", []string{"x"}, nil),
		table.NewString("description_of_stay", []string{"y"}, nil),
	)
	got, err := DropDescriptionColumns(in, DropDescriptionColumnsConfig{Pattern: "_description"})
	if err != nil {
		t.Fatalf("DropDescriptionColumns() error = %v", err)
	}
	if want := []string{"apr_drg_code", "description_of_stay"}; !sameStrings(got.Names(), want) {
		t.Fatalf("Names() = %v, want %v", got.Names(), want)
	}
}

func TestDropNonLagColumns_MissingIsError(t *testing.T) {
	t.Parallel()

	in := table.MustNew(table.NewInt("a", []int64{1}), table.NewInt("b", []int64{2}))
	got, err := DropNonLagColumns(in, DropNonLagColumnsConfig{ColumnsToDrop: []string{"a"}})
	if err != nil {
		t.Fatalf("DropNonLagColumns() error = %v", err)
	}
	if want := []string{"b"}; !sameStrings(got.Names(), want) {
		t.Fatalf("Names() = %v, want %v", got.Names(), want)
	}
	if _, err := DropNonLagColumns(in, DropNonLagColumnsConfig{ColumnsToDrop: []string{"zz"}}); err == nil {
		t.Fatalf("DropNonLagColumns(zz) error = nil, want lookup error")
	}
}
