package partition

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"drgetl/internal/export"
	"drgetl/internal/table"
)

func yearly() *table.Table {
	return table.MustNew(
		table.NewInt("year", []int64{2012, 2013, 2014, 2015, 2016, 2017, 2018, 2019}),
		table.NewFloat("w_total_median_profit", []float64{1, 2, 3, 4, 5, 6, 7, 8}),
		table.NewFloat("severity_1_portion", []float64{.1, .2, .3, .4, .5, .6, .7, .8}),
		table.NewString("apr_drg_code", []string{"720", "720", "194", "194", "140", "140", "775", "775"}, nil),
	)
}

func TestByYear(t *testing.T) {
	t.Parallel()

	cfg := Config{
		FeatureCols: []string{"severity_1_portion", "apr_drg_code"},
		TargetCol:   "w_total_median_profit",
		YearCol:     "year",
		Train:       YearRange{2012, 2016},
		Val:         YearRange{2017, 2017},
		Test:        YearRange{2018, 2019},
	}
	p, err := ByYear(yearly(), cfg)
	if err != nil {
		t.Fatalf("ByYear() error = %v", err)
	}

	tests := []struct {
		name   string
		set    Set
		labels []int64
	}{
		{"train", p.Train, []int64{0, 1, 2, 3, 4}},
		{"val", p.Val, []int64{5}},
		{"test", p.Test, []int64{6, 7}},
	}
	for _, tt := range tests {
		if got := tt.set.X.Index(); !reflect.DeepEqual(got, tt.labels) {
			t.Fatalf("%s labels = %v, want %v", tt.name, got, tt.labels)
		}
		if !reflect.DeepEqual(tt.set.X.Names(), cfg.FeatureCols) {
			t.Fatalf("%s X columns = %v, want %v", tt.name, tt.set.X.Names(), cfg.FeatureCols)
		}
		if !reflect.DeepEqual(tt.set.Y.Names(), []string{"w_total_median_profit"}) || tt.set.Y.NumRows() != len(tt.labels) {
			t.Fatalf("%s y = %v x %d", tt.name, tt.set.Y.Names(), tt.set.Y.NumRows())
		}
	}
}

func TestByYear_Errors(t *testing.T) {
	t.Parallel()

	base := Config{
		FeatureCols: []string{"severity_1_portion"},
		TargetCol:   "w_total_median_profit",
		YearCol:     "year",
		Train:       YearRange{2012, 2016},
		Val:         YearRange{2017, 2017},
		Test:        YearRange{2018, 2019},
	}
	noFeatures := base
	noFeatures.FeatureCols = nil
	badYear := base
	badYear.YearCol = "apr_drg_code"
	missingTarget := base
	missingTarget.TargetCol = "w_total_mean_profit"
	emptyRange := base
	emptyRange.Val = YearRange{2018, 2017}

	for name, cfg := range map[string]Config{
		"no features":    noFeatures,
		"string year":    badYear,
		"missing target": missingTarget,
		"empty range":    emptyRange,
	} {
		if _, err := ByYear(yearly(), cfg); err == nil {
			t.Fatalf("%s: ByYear() error = nil, want error", name)
		}
	}
}

func TestTimeSeriesSplit(t *testing.T) {
	t.Parallel()

	folds, err := TimeSeriesSplit(10, 3)
	if err != nil {
		t.Fatalf("TimeSeriesSplit() error = %v", err)
	}
	want := []Fold{
		{Train: []int{0, 1, 2, 3}, Test: []int{4, 5}},
		{Train: []int{0, 1, 2, 3, 4, 5}, Test: []int{6, 7}},
		{Train: []int{0, 1, 2, 3, 4, 5, 6, 7}, Test: []int{8, 9}},
	}
	if !reflect.DeepEqual(folds, want) {
		t.Fatalf("TimeSeriesSplit(10, 3) = %v, want %v", folds, want)
	}

	if _, err := TimeSeriesSplit(3, 3); err == nil {
		t.Fatalf("TimeSeriesSplit(3, 3) error = nil, want too few rows")
	}
	if _, err := TimeSeriesSplit(10, 1); err == nil {
		t.Fatalf("TimeSeriesSplit(10, 1) error = nil, want n_splits error")
	}
}

func TestRatio(t *testing.T) {
	t.Parallel()

	train, test, err := Ratio(yearly(), 0.8)
	if err != nil {
		t.Fatalf("Ratio() error = %v", err)
	}
	if train.NumRows() != 6 || test.NumRows() != 2 {
		t.Fatalf("Ratio(0.8) = %d/%d rows, want 6/2", train.NumRows(), test.NumRows())
	}
	if test.Label(0) != 6 {
		t.Fatalf("test first label = %d, want 6", test.Label(0))
	}
	if _, _, err := Ratio(yearly(), 1.5); err == nil {
		t.Fatalf("Ratio(1.5) error = nil, want error")
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	p, err := ByYear(yearly(), Config{
		FeatureCols: []string{"severity_1_portion"},
		TargetCol:   "w_total_median_profit",
		YearCol:     "year",
		Train:       YearRange{2012, 2015},
		Val:         YearRange{2016, 2017},
		Test:        YearRange{2018, 2019},
	})
	if err != nil {
		t.Fatalf("ByYear() error = %v", err)
	}
	dir := t.TempDir()
	if err := Write(dir, export.CSV, p); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	for _, name := range []string{"X_train.csv", "y_train.csv", "X_val.csv", "y_val.csv", "X_test.csv", "y_test.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}
