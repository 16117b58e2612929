package transform

import (
	"errors"
	"fmt"
	"log"
	"math"

	"drgetl/internal/config"
	"drgetl/internal/table"
)

type YearlyDischargeBinConfig struct {
	GroupbyCols                config.StringList `json:"groupby_cols"`
	AsIndex                    bool              `json:"as_index"`
	SumDischargesColName       string            `json:"sum_discharges_col_name"`
	RenameColumns              map[string]string `json:"rename_columns"`
	YearlyDischargeBinColName  string            `json:"yearly_discharge_bin_col_name"`
	Labels                     bool              `json:"labels"`
	Duplicates                 string            `json:"duplicates"`
	NumBins                    int               `json:"num_bins"`
	YearColName                string            `json:"year_col_name"`
	YearlySumDischargesColName string            `json:"yearly_sum_discharges_col_name"`
	DfAggColumns               []string          `json:"df_agg_columns"`
	OnColumns                  []string          `json:"on_columns"`
	How                        string            `json:"how"`
}

func (c *YearlyDischargeBinConfig) validate() error {
	if c.AsIndex {
		return errors.New("as_index must be false")
	}
	if c.Duplicates != "raise" && c.Duplicates != "drop" {
		return fmt.Errorf("duplicates must be raise or drop, got %q", c.Duplicates)
	}
	if c.NumBins < 1 {
		return fmt.Errorf("num_bins must be at least 1, got %d", c.NumBins)
	}
	_, err := table.ParseHow(c.How)
	return err
}

// YearlyDischargeBin sums discharges per group, ranks each group within its
// year into NumBins equal-frequency bins of that sum, and merges the selected
// aggregate columns back onto the input.
func YearlyDischargeBin(t *table.Table, cfg YearlyDischargeBinConfig) (*table.Table, error) {
	g, err := table.GroupBy(t, cfg.GroupbyCols...)
	if err != nil {
		return nil, err
	}
	dis, err := t.Column(cfg.SumDischargesColName)
	if err != nil {
		return nil, err
	}
	sums, err := table.GroupSums(g, dis, cfg.SumDischargesColName)
	if err != nil {
		return nil, err
	}
	agg, err := g.KeyTable().WithColumn(sums)
	if err != nil {
		return nil, err
	}
	if agg, err = agg.Rename(cfg.RenameColumns); err != nil {
		return nil, err
	}

	bins, err := binPerYear(agg, cfg)
	if err != nil {
		return nil, err
	}
	if agg, err = agg.WithColumn(bins); err != nil {
		return nil, err
	}
	right, err := agg.Select(cfg.DfAggColumns...)
	if err != nil {
		return nil, err
	}

	out, err := table.Merge(t, right, cfg.OnColumns, table.How(cfg.How))
	if err != nil {
		return nil, err
	}
	log.Printf("transform: yearly_discharge_bin: groups=%d bins=%d rows=%d", agg.NumRows(), cfg.NumBins, out.NumRows())
	return out, nil
}

// binPerYear bins the yearly sums of agg within each year. Codes stay Int
// unless some row lands in no bin.
func binPerYear(agg *table.Table, cfg YearlyDischargeBinConfig) (*table.Column, error) {
	years, err := table.GroupBy(agg, cfg.YearColName)
	if err != nil {
		return nil, err
	}
	yearCol, err := agg.Column(cfg.YearColName)
	if err != nil {
		return nil, err
	}
	sums, err := agg.Column(cfg.YearlySumDischargesColName)
	if err != nil {
		return nil, err
	}
	if !sums.Numeric() {
		return nil, fmt.Errorf("column %q is %s, not numeric", sums.Name, sums.Kind)
	}

	n := agg.NumRows()
	name := cfg.YearlyDischargeBinColName
	codes := make([]float64, n)
	labels := make([]string, n)
	valid := make([]bool, n)
	for i := range codes {
		codes[i] = math.NaN()
	}

	for _, rows := range years.Rows {
		x := make([]float64, len(rows))
		for i, r := range rows {
			x[i] = sums.Float(r)
		}
		res, err := qcut(x, cfg.NumBins, cfg.Labels, cfg.Duplicates)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", cfg.YearColName, yearCol.Format(rows[0]), err)
		}
		for i, r := range rows {
			if cfg.Labels {
				labels[r], valid[r] = res.labels[i], res.valid[i]
			} else {
				codes[r] = res.codes[i]
			}
		}
	}

	if cfg.Labels {
		return table.NewString(name, labels, valid), nil
	}
	ints := make([]int64, n)
	for i, c := range codes {
		if math.IsNaN(c) {
			return table.NewFloat(name, codes), nil
		}
		ints[i] = int64(c)
	}
	return table.NewInt(name, ints), nil
}
