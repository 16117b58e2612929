package csv

import (
	"math"
	"strconv"
	"strings"

	"drgetl/internal/table"
)

// naValues are the cell texts read as missing.
var naValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

func isNA(s string) bool {
	_, ok := naValues[s]
	return ok
}

// inferColumn turns raw cells into the narrowest column type every non-missing
// cell satisfies: integer, then float, then boolean, then string. Integer
// cells with any missing value become float, since Int cannot hold nulls.
func inferColumn(name string, cells []string) *table.Column {
	nonNA := 0
	for _, v := range cells {
		if !isNA(v) {
			nonNA++
		}
	}
	if nonNA == 0 {
		out := make([]float64, len(cells))
		for i := range out {
			out[i] = math.NaN()
		}
		return table.NewFloat(name, out)
	}

	if allMatch(cells, isInt) {
		if nonNA == len(cells) {
			out := make([]int64, len(cells))
			for i, v := range cells {
				out[i], _ = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			}
			return table.NewInt(name, out)
		}
		return floatColumn(name, cells)
	}
	if allMatch(cells, isFloat) {
		return floatColumn(name, cells)
	}
	if allMatch(cells, isBool) {
		out := make([]bool, len(cells))
		var valid []bool
		if nonNA < len(cells) {
			valid = make([]bool, len(cells))
		}
		for i, v := range cells {
			if isNA(v) {
				continue
			}
			out[i] = strings.EqualFold(v, "true")
			if valid != nil {
				valid[i] = true
			}
		}
		return table.NewBool(name, out, valid)
	}

	out := make([]string, len(cells))
	var valid []bool
	if nonNA < len(cells) {
		valid = make([]bool, len(cells))
	}
	for i, v := range cells {
		if isNA(v) {
			continue
		}
		out[i] = v
		if valid != nil {
			valid[i] = true
		}
	}
	return table.NewString(name, out, valid)
}

func floatColumn(name string, cells []string) *table.Column {
	out := make([]float64, len(cells))
	for i, v := range cells {
		if isNA(v) {
			out[i] = math.NaN()
			continue
		}
		out[i], _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return table.NewFloat(name, out)
}

// allMatch reports whether every non-missing cell satisfies fn.
func allMatch(cells []string, fn func(string) bool) bool {
	for _, v := range cells {
		if isNA(v) {
			continue
		}
		if !fn(v) {
			return false
		}
	}
	return true
}

// isInt requires a signed base-10 integer that fits in int64.
func isInt(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil
}

// isFloat accepts decimal, scientific and inf/infinity spellings.
func isFloat(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

func isBool(s string) bool {
	switch s {
	case "True", "TRUE", "true", "False", "FALSE", "false":
		return true
	default:
		return false
	}
}
