package transform

import (
	"log"

	"drgetl/internal/table"
)

type LagColumnsConfig struct {
	ColumnsToTransform   []string `json:"columns_to_transform"`
	GroupbyTimeBasedCols []string `json:"groupby_time_based_cols"`
	Drop                 bool     `json:"drop"`
	GroupbyLagCols       []string `json:"groupby_lag_cols"`
	Lag1Suffix           string   `json:"lag1_suffix"`
	ShiftPeriods         int      `json:"shift_periods"`
}

// LagColumns sorts the table chronologically and adds, for each column to
// transform, its value ShiftPeriods rows earlier within the same lag group.
// The first rows of each group, and rows with a null group key, get null.
func LagColumns(t *table.Table, cfg LagColumnsConfig) (*table.Table, error) {
	out, err := sortChronologically(t, cfg.GroupbyTimeBasedCols, cfg.Drop)
	if err != nil {
		return nil, err
	}
	g, err := table.GroupBy(out, cfg.GroupbyLagCols...)
	if err != nil {
		return nil, err
	}
	src := shiftRows(g, out.NumRows(), cfg.ShiftPeriods)

	for _, name := range cfg.ColumnsToTransform {
		c, err := out.Column(name)
		if err != nil {
			return nil, err
		}
		lagged, err := shiftColumn(c, src, cfg.ShiftPeriods)
		if err != nil {
			return nil, err
		}
		if out, err = out.WithColumn(lagged.WithName(name + cfg.Lag1Suffix)); err != nil {
			return nil, err
		}
	}
	log.Printf("transform: lag_columns: columns=%d groups=%d periods=%d",
		len(cfg.ColumnsToTransform), g.NumGroups(), cfg.ShiftPeriods)
	return out, nil
}

// sortChronologically is a stable ascending sort on the time columns, nulls
// last, followed by an index reset.
func sortChronologically(t *table.Table, by []string, drop bool) (*table.Table, error) {
	sorted, err := t.SortBy(by...)
	if err != nil {
		return nil, err
	}
	return sorted.ResetIndex(drop)
}

// shiftRows maps every row to the row periods positions before it within its
// group, or -1 when that falls outside the group or the row has no group.
// Negative periods look ahead.
func shiftRows(g *table.Grouping, nrows, periods int) []int {
	src := make([]int, nrows)
	for i := range src {
		src[i] = -1
	}
	for _, rows := range g.Rows {
		for p, r := range rows {
			if q := p - periods; q >= 0 && q < len(rows) {
				src[r] = rows[q]
			}
		}
	}
	return src
}

// shiftColumn gathers c by src. Numeric input becomes Float whenever periods
// is non-zero, including on an empty table.
func shiftColumn(c *table.Column, src []int, periods int) (*table.Column, error) {
	out := c.Take(src)
	if periods != 0 && out.Kind == table.Int {
		return out.AsFloat()
	}
	return out, nil
}
