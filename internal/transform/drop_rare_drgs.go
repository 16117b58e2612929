package transform

import (
	"log"

	"drgetl/internal/bitmap"
	"drgetl/internal/table"
)

type DropRareDrgsConfig struct {
	AprDrgCodeColName string  `json:"apr_drg_code_col_name"`
	AsIndex           bool    `json:"as_index"`
	DischargesColName string  `json:"discharges_col_name"`
	Threshold         float64 `json:"threshold"`
	Drop              bool    `json:"drop"`

	// Inplace is accepted for compatibility with existing step files. Tables
	// are never modified in place.
	Inplace bool `json:"inplace,omitempty"`
}

// DropRareDrgs keeps the rows whose DRG code totals more than Threshold
// discharges across the whole table. Row order is preserved; rows with a
// null code are dropped. The surviving row labels are then reset, or kept as
// an "index" column when Drop is false.
//
// AsIndex only shaped the intermediate grouping and has no effect on the
// result.
func DropRareDrgs(t *table.Table, cfg DropRareDrgsConfig) (*table.Table, error) {
	g, err := table.GroupBy(t, cfg.AprDrgCodeColName)
	if err != nil {
		return nil, err
	}
	dis, err := t.Column(cfg.DischargesColName)
	if err != nil {
		return nil, err
	}
	sums, err := table.GroupSums(g, dis, cfg.DischargesColName)
	if err != nil {
		return nil, err
	}

	common := bitmap.New(g.NumGroups())
	for id := 0; id < g.NumGroups(); id++ {
		if sums.Float(id) > cfg.Threshold {
			common.Add(id)
		}
	}
	keep := make([]bool, t.NumRows())
	for r, id := range g.IDs {
		keep[r] = common.Has(id)
	}

	out, err := t.Filter(keep).ResetIndex(cfg.Drop)
	if err != nil {
		return nil, err
	}
	log.Printf("transform: drop_rare_drgs: codes_kept=%d codes_total=%d rows=%d->%d",
		common.Count(), g.NumGroups(), t.NumRows(), out.NumRows())
	return out, nil
}
