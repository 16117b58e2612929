package transform

import (
	"fmt"
	"log"
	"math"
	"strconv"

	"drgetl/internal/table"
)

type RollingColumnsConfig struct {
	ColumnsToTransform   []string `json:"columns_to_transform"`
	GroupbyTimeBasedCols []string `json:"groupby_time_based_cols"`
	Drop                 bool     `json:"drop"`
	GroupbyRollingCols   []string `json:"groupby_rolling_cols"`
	RollingStr           string   `json:"rolling_str"`
	Window               int      `json:"window"`
	ShiftPeriods         int      `json:"shift_periods"`
	MinPeriods           int      `json:"min_periods"`

	// Inplace has no effect; the result is always a new table.
	Inplace bool `json:"inplace"`
}

func (c *RollingColumnsConfig) validate() error {
	switch {
	case c.Window < 0:
		return fmt.Errorf("window must be non-negative, got %d", c.Window)
	case c.MinPeriods < 0:
		return fmt.Errorf("min_periods must be non-negative, got %d", c.MinPeriods)
	case c.MinPeriods > c.Window:
		return fmt.Errorf("min_periods %d must be <= window %d", c.MinPeriods, c.Window)
	}
	return nil
}

// RollingColumns sorts the table chronologically and adds, for each column to
// transform, the mean of the previous Window values within its rolling group
// (the values shifted by ShiftPeriods). A mean needs MinPeriods non-null
// values. Rows left without a mean in any new column are dropped; the
// surviving rows keep their labels.
func RollingColumns(t *table.Table, cfg RollingColumnsConfig) (*table.Table, error) {
	out, err := sortChronologically(t, cfg.GroupbyTimeBasedCols, cfg.Drop)
	if err != nil {
		return nil, err
	}
	g, err := table.GroupBy(out, cfg.GroupbyRollingCols...)
	if err != nil {
		return nil, err
	}
	src := shiftRows(g, out.NumRows(), cfg.ShiftPeriods)

	newCols := make([]string, 0, len(cfg.ColumnsToTransform))
	for _, name := range cfg.ColumnsToTransform {
		c, err := out.Column(name)
		if err != nil {
			return nil, err
		}
		if !c.Numeric() {
			return nil, fmt.Errorf("rolling mean of %q: column is %s, not numeric", name, c.Kind)
		}
		shifted := c.Take(src)

		means := make([]float64, out.NumRows())
		for i := range means {
			means[i] = math.NaN()
		}
		vals := make([]float64, 0, 64)
		for _, rows := range g.Rows {
			vals = vals[:0]
			for _, r := range rows {
				vals = append(vals, shifted.Float(r))
			}
			for p, m := range rollMean(vals, cfg.Window, cfg.MinPeriods) {
				means[rows[p]] = m
			}
		}

		col := name + cfg.RollingStr + strconv.Itoa(cfg.Window)
		if out, err = out.WithColumn(table.NewFloat(col, means)); err != nil {
			return nil, err
		}
		newCols = append(newCols, col)
	}

	before := out.NumRows()
	if out, err = out.DropNull(newCols...); err != nil {
		return nil, err
	}
	log.Printf("transform: rolling_columns: columns=%d window=%d rows=%d->%d",
		len(newCols), cfg.Window, before, out.NumRows())
	return out, nil
}

// rollMean is a trailing fixed-window mean over values. Window i covers
// values[max(0, i+1-window) : i+1]. The running sum is Kahan-compensated,
// with separate compensation for additions and removals, and restarts when a
// window does not overlap the previous one. A window of identical values
// yields that value exactly.
func rollMean(values []float64, window, minPeriods int) []float64 {
	n := len(values)
	out := make([]float64, n)

	var (
		w         rollState
		prevStart int
		prevEnd   int
	)
	for i := 0; i < n; i++ {
		end := i + 1
		start := end - window
		if start < 0 {
			start = 0
		}

		if i == 0 || start >= prevEnd {
			w = rollState{}
			if start < n {
				w.prev = values[start]
			}
			for j := start; j < end; j++ {
				w.add(values[j])
			}
		} else {
			for j := prevStart; j < start; j++ {
				w.remove(values[j])
			}
			for j := prevEnd; j < end; j++ {
				w.add(values[j])
			}
		}
		out[i] = w.mean(minPeriods)
		prevStart, prevEnd = start, end
	}
	return out
}

type rollState struct {
	nobs, negatives, same int
	sum, compAdd, compRem float64
	prev                  float64
}

func (s *rollState) add(v float64) {
	if math.IsNaN(v) {
		return
	}
	s.nobs++
	y := v - s.compAdd
	t := s.sum + y
	s.compAdd = t - s.sum - y
	s.sum = t
	if math.Signbit(v) {
		s.negatives++
	}
	if v == s.prev {
		s.same++
	} else {
		s.same = 1
	}
	s.prev = v
}

func (s *rollState) remove(v float64) {
	if math.IsNaN(v) {
		return
	}
	s.nobs--
	y := -v - s.compRem
	t := s.sum + y
	s.compRem = t - s.sum - y
	s.sum = t
	if math.Signbit(v) {
		s.negatives--
	}
}

func (s *rollState) mean(minPeriods int) float64 {
	if s.nobs < minPeriods || s.nobs == 0 {
		return math.NaN()
	}
	res := s.sum / float64(s.nobs)
	switch {
	case s.same >= s.nobs:
		res = s.prev
	case s.negatives == 0 && res < 0:
		res = 0
	case s.negatives == s.nobs && res > 0:
		res = 0
	}
	return res
}
