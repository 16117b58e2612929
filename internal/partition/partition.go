// Package partition splits a prepared table for the model trainer:
// chronological train/validation/test slices by year, expanding-window
// cross-validation folds, and a plain ratio split.
package partition

import (
	"fmt"
	"path/filepath"

	"drgetl/internal/export"
	"drgetl/internal/table"
)

// YearRange is an inclusive range of years.
type YearRange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

func (r YearRange) contains(y float64) bool {
	return y >= float64(r.From) && y <= float64(r.To)
}

// Config selects the features, the target and the year ranges of a split.
type Config struct {
	FeatureCols []string  `json:"feature_cols"`
	TargetCol   string    `json:"target_col"`
	YearCol     string    `json:"year_col"`
	Train       YearRange `json:"train_range"`
	Val         YearRange `json:"val_range"`
	Test        YearRange `json:"test_range"`
}

// Set is the feature table and the single-column target of one slice.
type Set struct {
	X *table.Table
	Y *table.Table
}

// Partition holds the three slices. Rows keep their labels from the input.
type Partition struct {
	Train Set
	Val   Set
	Test  Set
}

// ByYear slices t into the configured year ranges. Rows with a null year
// fall in no slice; ranges may overlap.
func ByYear(t *table.Table, cfg Config) (*Partition, error) {
	if len(cfg.FeatureCols) == 0 {
		return nil, fmt.Errorf("partition: feature_cols must not be empty")
	}
	year, err := t.Column(cfg.YearCol)
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}
	if !year.Numeric() {
		return nil, fmt.Errorf("partition: year column %q is %s, not numeric", cfg.YearCol, year.Kind)
	}
	if _, err := t.Require(append(append([]string{}, cfg.FeatureCols...), cfg.TargetCol)...); err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}

	slice := func(r YearRange) (Set, error) {
		if r.From > r.To {
			return Set{}, fmt.Errorf("partition: range %d..%d is empty", r.From, r.To)
		}
		var rows []int
		for i := 0; i < t.NumRows(); i++ {
			if !year.IsNull(i) && r.contains(year.Float(i)) {
				rows = append(rows, i)
			}
		}
		part := t.Take(rows)
		x, err := part.Select(cfg.FeatureCols...)
		if err != nil {
			return Set{}, err
		}
		y, err := part.Select(cfg.TargetCol)
		if err != nil {
			return Set{}, err
		}
		return Set{X: x, Y: y}, nil
	}

	var p Partition
	for _, s := range []struct {
		dst *Set
		r   YearRange
	}{{&p.Train, cfg.Train}, {&p.Val, cfg.Val}, {&p.Test, cfg.Test}} {
		set, err := slice(s.r)
		if err != nil {
			return nil, err
		}
		*s.dst = set
	}
	return &p, nil
}

// Fold is one cross-validation split as row positions.
type Fold struct {
	Train []int
	Test  []int
}

// TimeSeriesSplit returns nSplits expanding-window folds over n ordered rows.
// Each test block has n/(nSplits+1) rows; the training rows are everything
// before it. The first rows absorb the remainder.
func TimeSeriesSplit(n, nSplits int) ([]Fold, error) {
	if nSplits < 2 {
		return nil, fmt.Errorf("partition: n_splits must be at least 2, got %d", nSplits)
	}
	if nSplits+1 > n {
		return nil, fmt.Errorf("partition: cannot make %d folds from %d rows", nSplits+1, n)
	}
	testSize := n / (nSplits + 1)
	folds := make([]Fold, 0, nSplits)
	for start := n - nSplits*testSize; start < n; start += testSize {
		folds = append(folds, Fold{Train: positions(0, start), Test: positions(start, start+testSize)})
	}
	return folds, nil
}

// Ratio splits t into its first int(n*trainRatio) rows and the rest.
func Ratio(t *table.Table, trainRatio float64) (train, test *table.Table, err error) {
	if trainRatio < 0 || trainRatio > 1 {
		return nil, nil, fmt.Errorf("partition: train ratio must be in [0, 1], got %v", trainRatio)
	}
	n := int(float64(t.NumRows()) * trainRatio)
	return t.Take(positions(0, n)), t.Take(positions(n, t.NumRows())), nil
}

func positions(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

// Write saves each slice as <dir>/<X|y>_<train|val|test>.<format>. Row labels
// are written for CSV so slices can be joined back to the source table.
func Write(dir string, f export.Format, p *Partition) error {
	for _, s := range []struct {
		name string
		set  Set
	}{{"train", p.Train}, {"val", p.Val}, {"test", p.Test}} {
		if err := export.WriteFile(filepath.Join(dir, "X_"+s.name+"."+string(f)), f, s.set.X, true); err != nil {
			return err
		}
		if err := export.WriteFile(filepath.Join(dir, "y_"+s.name+"."+string(f)), f, s.set.Y, true); err != nil {
			return err
		}
	}
	return nil
}
