package transform

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"

	"drgetl/internal/table"
)

// requiredAggregate must come out of agg_severities; the downstream steps
// are keyed on it.
const requiredAggregate = "w_total_median_profit"

type AggSeveritiesConfig struct {
	WeightedMeanWeightColName       string   `json:"weighted_mean_weight_col_name"`
	WeightedMedianWeightColName     string   `json:"weighted_median_weight_col_name"`
	DischargesColName               string   `json:"discharges_col_name"`
	SumDischargesKey                string   `json:"sum_discharges_key"`
	SeverityLevels                  []int    `json:"severity_levels"`
	AprSeverityOfIllnessCodeColName string   `json:"apr_severity_of_illness_code_col_name"`
	MeanCols                        []string `json:"mean_cols"`
	MedianCols                      []string `json:"median_cols"`
	GroupbyCols                     []string `json:"groupby_cols"`
	AsIndex                         bool     `json:"as_index"`
}

// AggSeverities collapses the rows of each group into one row of
// discharge-weighted statistics: the total discharges, the share of
// discharges at each severity level, weighted means of MeanCols and weighted
// medians of MedianCols. Every aggregate is float64.
//
// The key columns lead the output. Without AsIndex a leading "index" column
// numbers the groups.
func AggSeverities(t *table.Table, cfg AggSeveritiesConfig) (*table.Table, error) {
	g, err := table.GroupBy(t, cfg.GroupbyCols...)
	if err != nil {
		return nil, err
	}
	cols, err := t.Require(cfg.DischargesColName, cfg.AprSeverityOfIllnessCodeColName)
	if err != nil {
		return nil, err
	}
	dis, sev := cols[0], cols[1]
	if !dis.Numeric() {
		return nil, fmt.Errorf("column %q is %s, not numeric", dis.Name, dis.Kind)
	}

	type weighted struct {
		value, weight *table.Column
		median        bool
	}
	var stats []weighted
	for _, spec := range []struct {
		cols   []string
		weight string
		median bool
	}{
		{cfg.MeanCols, cfg.WeightedMeanWeightColName, false},
		{cfg.MedianCols, cfg.WeightedMedianWeightColName, true},
	} {
		for _, name := range spec.cols {
			v, err := t.Column(name)
			if err != nil {
				log.Printf("transform: agg_severities: column=%s missing, skipping", name)
				continue
			}
			w, err := t.Column(spec.weight)
			if err != nil {
				return nil, err
			}
			if !v.Numeric() || !w.Numeric() {
				return nil, fmt.Errorf("weighted %s needs numeric %q and %q", v.Name, v.Name, w.Name)
			}
			stats = append(stats, weighted{value: v, weight: w, median: spec.median})
		}
	}

	ng := g.NumGroups()
	total := make([]float64, ng)
	portions := make([][]float64, len(cfg.SeverityLevels))
	for i := range portions {
		portions[i] = make([]float64, ng)
	}
	aggs := make([][]float64, len(stats))
	for i := range aggs {
		aggs[i] = make([]float64, ng)
	}

	for id, rows := range g.Rows {
		tot := sumRows(dis, rows)
		total[id] = tot
		for li, lvl := range cfg.SeverityLevels {
			var sub []int
			for _, r := range rows {
				if !sev.IsNull(r) && sev.Numeric() && sev.Float(r) == float64(lvl) {
					sub = append(sub, r)
				}
			}
			if tot == 0 {
				portions[li][id] = 0
				continue
			}
			portions[li][id] = sumRows(dis, sub) / tot
		}
		for si, s := range stats {
			if s.median {
				m, err := weightedMedian(s.value, s.weight, rows)
				if err != nil {
					return nil, fmt.Errorf("w_%s: group %d: %w", s.value.Name, id, err)
				}
				aggs[si][id] = m
			} else {
				aggs[si][id] = weightedMean(s.value, s.weight, rows)
			}
		}
	}

	out := g.KeyTable()
	add := func(c *table.Column) error {
		var err error
		out, err = out.WithColumn(c)
		return err
	}
	if err := add(table.NewFloat(cfg.SumDischargesKey, total)); err != nil {
		return nil, err
	}
	for li, lvl := range cfg.SeverityLevels {
		if err := add(table.NewFloat("severity_"+strconv.Itoa(lvl)+"_portion", portions[li])); err != nil {
			return nil, err
		}
	}
	for si, s := range stats {
		if err := add(table.NewFloat("w_"+s.value.Name, aggs[si])); err != nil {
			return nil, err
		}
	}
	if !cfg.AsIndex {
		if out, err = out.ResetIndex(false); err != nil {
			return nil, err
		}
	}

	if !out.Has(requiredAggregate) {
		return nil, &InvariantError{Transform: "agg_severities", Msg: fmt.Sprintf("%q not in output columns", requiredAggregate)}
	}
	log.Printf("transform: agg_severities: groups=%d", ng)
	return out, nil
}

// sumRows sums c over rows, skipping nulls. Int columns add exactly.
func sumRows(c *table.Column, rows []int) float64 {
	if c.Kind == table.Int {
		var s int64
		for _, r := range rows {
			s += c.Ints[r]
		}
		return float64(s)
	}
	vals := make([]float64, len(rows))
	for i, r := range rows {
		vals[i] = c.Float(r)
	}
	return table.Sum(vals)
}

// weightedMean is sum(v*w)/sum(w), NaN when the weights sum to zero.
func weightedMean(v, w *table.Column, rows []int) float64 {
	totalW := sumRows(w, rows)
	if totalW == 0 {
		return math.NaN()
	}
	if v.Kind == table.Int && w.Kind == table.Int {
		var s int64
		for _, r := range rows {
			s += v.Ints[r] * w.Ints[r]
		}
		return float64(s) / totalW
	}
	prod := make([]float64, len(rows))
	for i, r := range rows {
		prod[i] = v.Float(r) * w.Float(r)
	}
	return table.Sum(prod) / totalW
}

// weightedMedian sorts rows by value (NaN last) and returns the first value
// whose running weight reaches half of the total weight. Null weights add
// nothing and never qualify.
func weightedMedian(v, w *table.Column, rows []int) (float64, error) {
	sorted := append([]int(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := v.Float(sorted[i]), v.Float(sorted[j])
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a < b
	})

	half := sumRows(w, rows) / 2.0
	var cumInt int64
	var cumFloat float64
	for _, r := range sorted {
		if w.IsNull(r) {
			continue
		}
		var cum float64
		if w.Kind == table.Int {
			cumInt += w.Ints[r]
			cum = float64(cumInt)
		} else {
			cumFloat += w.Floats[r]
			cum = cumFloat
		}
		if cum >= half {
			return v.Float(r), nil
		}
	}
	return 0, fmt.Errorf("no value reaches half of the total weight %s", table.FormatFloat(half*2))
}
