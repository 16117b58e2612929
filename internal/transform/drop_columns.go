package transform

import (
	"fmt"
	"regexp"

	"drgetl/internal/table"
)

type DropDescriptionColumnsConfig struct {
	Pattern string `json:"pattern"`
	// Inplace is accepted for config compatibility and ignored.
	Inplace bool `json:"inplace"`
}

func (c *DropDescriptionColumnsConfig) validate() error {
	if _, err := regexp.Compile(c.Pattern + "$"); err != nil {
		return fmt.Errorf("pattern: %w", err)
	}
	return nil
}

// DropDescriptionColumns drops every column whose name matches pattern at its
// end, e.g. "_description".
func DropDescriptionColumns(t *table.Table, cfg DropDescriptionColumnsConfig) (*table.Table, error) {
	re, err := regexp.Compile(cfg.Pattern + "$")
	if err != nil {
		return nil, err
	}
	var drop []string
	for _, name := range t.Names() {
		if re.MatchString(name) {
			drop = append(drop, name)
		}
	}
	return t.Drop(drop...)
}

type DropNonLagColumnsConfig struct {
	ColumnsToDrop []string `json:"columns_to_drop"`
}

// DropNonLagColumns drops the named columns. Every name must exist.
func DropNonLagColumns(t *table.Table, cfg DropNonLagColumnsConfig) (*table.Table, error) {
	return t.Drop(cfg.ColumnsToDrop...)
}
