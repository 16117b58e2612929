package transform

import (
	"fmt"

	"drgetl/internal/table"
)

type MeanProfitConfig struct {
	MeanProfitColName string `json:"mean_profit_col_name"`
	MeanChargeColName string `json:"mean_charge_col_name"`
	MeanCostColName   string `json:"mean_cost_col_name"`
}

type MedianProfitConfig struct {
	MedianProfitColName string `json:"median_profit_col_name"`
	MedianChargeColName string `json:"median_charge_col_name"`
	MedianCostColName   string `json:"median_cost_col_name"`
}

type TotalMeanCostConfig struct {
	TotalMeanCostColName string `json:"total_mean_cost_col_name"`
	MeanCostColName      string `json:"mean_cost_col_name"`
	DischargesColName    string `json:"discharges_col_name"`
}

type TotalMeanProfitConfig struct {
	TotalMeanProfitColName string `json:"total_mean_profit_col_name"`
	MeanProfitColName      string `json:"mean_profit_col_name"`
	DischargesColName      string `json:"discharges_col_name"`
}

type TotalMedianCostConfig struct {
	TotalMedianCostColName string `json:"total_median_cost_col_name"`
	MedianCostColName      string `json:"median_cost_col_name"`
	DischargesColName      string `json:"discharges_col_name"`
}

type TotalMedianProfitConfig struct {
	TotalMedianProfitColName string `json:"total_median_profit_col_name"`
	MedianProfitColName      string `json:"median_profit_col_name"`
	DischargesColName        string `json:"discharges_col_name"`
}

// MeanProfit adds mean charge minus mean cost.
func MeanProfit(t *table.Table, cfg MeanProfitConfig) (*table.Table, error) {
	return binaryOp(t, cfg.MeanProfitColName, cfg.MeanChargeColName, cfg.MeanCostColName, sub)
}

// MedianProfit adds median charge minus median cost.
func MedianProfit(t *table.Table, cfg MedianProfitConfig) (*table.Table, error) {
	return binaryOp(t, cfg.MedianProfitColName, cfg.MedianChargeColName, cfg.MedianCostColName, sub)
}

// TotalMeanCost adds mean cost times discharges.
func TotalMeanCost(t *table.Table, cfg TotalMeanCostConfig) (*table.Table, error) {
	return binaryOp(t, cfg.TotalMeanCostColName, cfg.MeanCostColName, cfg.DischargesColName, mul)
}

// TotalMeanProfit adds mean profit times discharges.
func TotalMeanProfit(t *table.Table, cfg TotalMeanProfitConfig) (*table.Table, error) {
	return binaryOp(t, cfg.TotalMeanProfitColName, cfg.MeanProfitColName, cfg.DischargesColName, mul)
}

// TotalMedianCost adds median cost times discharges.
func TotalMedianCost(t *table.Table, cfg TotalMedianCostConfig) (*table.Table, error) {
	return binaryOp(t, cfg.TotalMedianCostColName, cfg.MedianCostColName, cfg.DischargesColName, mul)
}

// TotalMedianProfit adds median profit times discharges.
func TotalMedianProfit(t *table.Table, cfg TotalMedianProfitConfig) (*table.Table, error) {
	return binaryOp(t, cfg.TotalMedianProfitColName, cfg.MedianProfitColName, cfg.DischargesColName, mul)
}

type op uint8

const (
	sub op = iota
	mul
)

// binaryOp writes a <op> b into column out, replacing it if present. Int with
// Int stays Int (wrapping on overflow like fixed-width arithmetic); any Float
// operand makes the result Float, with nulls propagating as NaN.
func binaryOp(t *table.Table, out, a, b string, o op) (*table.Table, error) {
	cols, err := t.Require(a, b)
	if err != nil {
		return nil, err
	}
	x, y := cols[0], cols[1]
	for _, c := range cols {
		if !c.Numeric() {
			return nil, fmt.Errorf("column %q is %s, not numeric", c.Name, c.Kind)
		}
	}

	n := t.NumRows()
	if x.Kind == table.Int && y.Kind == table.Int {
		res := make([]int64, n)
		for i := range res {
			if o == sub {
				res[i] = x.Ints[i] - y.Ints[i]
			} else {
				res[i] = x.Ints[i] * y.Ints[i]
			}
		}
		return t.WithColumn(table.NewInt(out, res))
	}

	res := make([]float64, n)
	for i := range res {
		if o == sub {
			res[i] = x.Float(i) - y.Float(i)
		} else {
			res[i] = x.Float(i) * y.Float(i)
		}
	}
	return t.WithColumn(table.NewFloat(out, res))
}
