// Package check holds the post-transform tests a step can run against its
// output table. A check returns the table unchanged or a *SchemaError; it
// never alters data.
package check

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"drgetl/internal/config"
	"drgetl/internal/table"
)

// SchemaError reports a table that failed a check or a type contract.
type SchemaError struct {
	Check string
	Msg   string

	// Missing lists absent columns for column checks.
	Missing []string
	// Rows is the row count of the offending table.
	Rows int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("check: %s: %s", e.Check, e.Msg)
}

type RequiredColumnsConfig struct {
	RequiredColumns []string `json:"required_columns"`
}

// RequiredColumns fails when any configured column is absent, naming exactly
// the missing ones in configured order.
func RequiredColumns(t *table.Table, cfg RequiredColumnsConfig) (*table.Table, error) {
	var missing []string
	for _, c := range cfg.RequiredColumns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		q := make([]string, len(missing))
		for i, m := range missing {
			q[i] = fmt.Sprintf("%q", m)
		}
		return nil, &SchemaError{
			Check:   "check_required_columns",
			Msg:     "missing columns: " + strings.Join(q, ", "),
			Missing: missing,
			Rows:    t.NumRows(),
		}
	}
	return t, nil
}

// RowCountConfig takes the expected count either directly or from a table of
// counts keyed by data version.
type RowCountConfig struct {
	RowCount    *int           `json:"row_count,omitempty"`
	RowCounts   map[string]int `json:"row_counts,omitempty"`
	DataVersion string         `json:"data_version,omitempty"`
}

func (c *RowCountConfig) validate() error {
	switch {
	case c.RowCount != nil && (c.RowCounts != nil || c.DataVersion != ""):
		return errors.New("set either row_count or row_counts with data_version, not both")
	case c.RowCount != nil:
		if *c.RowCount < 0 {
			return fmt.Errorf("row_count must be non-negative, got %d", *c.RowCount)
		}
		return nil
	case c.DataVersion == "":
		return errors.New("row_count or row_counts with data_version is required")
	}
	if _, ok := c.RowCounts[c.DataVersion]; !ok {
		return fmt.Errorf("row_counts has no entry for data_version %q", c.DataVersion)
	}
	return nil
}

func (c RowCountConfig) expected() int {
	if c.RowCount != nil {
		return *c.RowCount
	}
	return c.RowCounts[c.DataVersion]
}

// RowCount fails when the table does not have exactly the expected number of
// rows.
func RowCount(t *table.Table, cfg RowCountConfig) (*table.Table, error) {
	want, got := cfg.expected(), t.NumRows()
	if got != want {
		return nil, &SchemaError{
			Check: "check_row_count",
			Msg:   fmt.Sprintf("row count mismatch: expected %d, got %d", want, got),
			Rows:  got,
		}
	}
	return t, nil
}

// Spec is one registered check.
type Spec struct {
	Name string
	bind func(config.Options) (func(*table.Table) (*table.Table, error), error)
}

// Bound is a check with its decoded parameters.
type Bound struct {
	Name  string
	apply func(*table.Table) (*table.Table, error)
}

// Apply runs the check on t.
func (b Bound) Apply(t *table.Table) (*table.Table, error) { return b.apply(t) }

// Bind decodes params strictly into the check's config type.
func (s Spec) Bind(params config.Options) (Bound, error) {
	apply, err := s.bind(params)
	if err != nil {
		return Bound{}, fmt.Errorf("%s: %w", s.Name, err)
	}
	return Bound{Name: s.Name, apply: apply}, nil
}

func spec[C any](name string, fn func(*table.Table, C) (*table.Table, error)) Spec {
	return Spec{
		Name: name,
		bind: func(params config.Options) (func(*table.Table) (*table.Table, error), error) {
			cfg, err := config.Decode[C](params)
			if err != nil {
				return nil, err
			}
			if v, ok := any(&cfg).(interface{ validate() error }); ok {
				if err := v.validate(); err != nil {
					return nil, fmt.Errorf("config: %w", err)
				}
			}
			return func(t *table.Table) (*table.Table, error) { return fn(t, cfg) }, nil
		},
	}
}

var registry = map[string]Spec{
	"check_required_columns": spec("check_required_columns", RequiredColumns),
	"check_row_count":        spec("check_row_count", RowCount),
}

// Lookup returns the check registered under name.
func Lookup(name string) (Spec, bool) {
	s, ok := registry[name]
	return s, ok
}

// Names lists the registered checks in lexical order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
