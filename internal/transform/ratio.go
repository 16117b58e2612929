package transform

import (
	"log"

	"drgetl/internal/config"
	"drgetl/internal/table"
)

type RatioDrgFacilityVsYearConfig struct {
	YearColName                   string            `json:"year_col_name"`
	FacilityIDColName             string            `json:"facility_id_col_name"`
	AprDrgCodeColName             string            `json:"apr_drg_code_col_name"`
	FacilityDrgCountColName       string            `json:"facility_drg_count_col_name"`
	YearDrgCountColName           string            `json:"year_drg_count_col_name"`
	RatioDrgFacilityVsYearColName string            `json:"ratio_drg_facility_vs_year_col_name"`
	YearMergeOn                   config.StringList `json:"year_merge_on"`
	YearMergeHow                  string            `json:"year_merge_how"`
	FinalMergeOn                  config.StringList `json:"final_merge_on"`
	FinalMergeHow                 string            `json:"final_merge_how"`
}

func (c *RatioDrgFacilityVsYearConfig) validate() error {
	if _, err := table.ParseHow(c.YearMergeHow); err != nil {
		return err
	}
	_, err := table.ParseHow(c.FinalMergeHow)
	return err
}

// RatioDrgFacilityVsYear adds, for every row, the number of distinct DRG
// codes its facility billed that year divided by the number of distinct codes
// billed statewide that year. Both counts are carried along as columns.
func RatioDrgFacilityVsYear(t *table.Table, cfg RatioDrgFacilityVsYearConfig) (*table.Table, error) {
	codes, err := t.Column(cfg.AprDrgCodeColName)
	if err != nil {
		return nil, err
	}

	facYear, err := distinctCodes(t, codes, cfg.FacilityDrgCountColName, cfg.YearColName, cfg.FacilityIDColName)
	if err != nil {
		return nil, err
	}
	year, err := distinctCodes(t, codes, cfg.YearDrgCountColName, cfg.YearColName)
	if err != nil {
		return nil, err
	}

	merged, err := table.Merge(facYear, year, cfg.YearMergeOn, table.How(cfg.YearMergeHow))
	if err != nil {
		return nil, err
	}
	cols, err := merged.Require(cfg.FacilityDrgCountColName, cfg.YearDrgCountColName)
	if err != nil {
		return nil, err
	}
	ratio := make([]float64, merged.NumRows())
	for i := range ratio {
		ratio[i] = cols[0].Float(i) / cols[1].Float(i)
	}
	if merged, err = merged.WithColumn(table.NewFloat(cfg.RatioDrgFacilityVsYearColName, ratio)); err != nil {
		return nil, err
	}

	out, err := table.Merge(t, merged, cfg.FinalMergeOn, table.How(cfg.FinalMergeHow))
	if err != nil {
		return nil, err
	}
	log.Printf("transform: ratio_drg_facility_vs_year: facility_years=%d years=%d rows=%d",
		facYear.NumRows(), year.NumRows(), out.NumRows())
	return out, nil
}

// distinctCodes counts the distinct non-null codes per group of keys. The
// result holds the keys followed by the count column.
func distinctCodes(t *table.Table, codes *table.Column, name string, keys ...string) (*table.Table, error) {
	g, err := table.GroupBy(t, keys...)
	if err != nil {
		return nil, err
	}
	return g.KeyTable().WithColumn(table.NUnique(g, codes, name))
}
