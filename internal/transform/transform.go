// Package transform holds the table transforms a pipeline step can run.
//
// Every transform is a pure function from a table and a typed config to a new
// table: no I/O, no shared state, and the input table is never modified.
// Configs are decoded strictly from a step's parameter block (see
// config.DecodeStrict), so a typo in a key fails before any data is read.
//
// The set of transforms is fixed at compile time; Lookup resolves a name from
// a step file against it.
package transform

import (
	"fmt"
	"sort"

	"drgetl/internal/config"
	"drgetl/internal/table"
)

// InvariantError reports a transform post-condition that did not hold. It
// points at a configuration or upstream data mismatch rather than bad input
// cells.
type InvariantError struct {
	Transform string
	Msg       string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("transform: %s: invariant violated: %s", e.Transform, e.Msg)
}

// Spec is one registered transform.
type Spec struct {
	Name string

	bind func(config.Options) (func(*table.Table) (*table.Table, error), error)
}

// Bound is a transform with its decoded config, ready to apply.
type Bound struct {
	Name  string
	apply func(*table.Table) (*table.Table, error)
}

// Apply runs the transform on t.
func (b Bound) Apply(t *table.Table) (*table.Table, error) {
	out, err := b.apply(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name, err)
	}
	return out, nil
}

// Bind decodes params into the transform's config type.
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

var registry = func() map[string]Spec {
	specs := []Spec{
		spec("agg_severities", AggSeverities),
		spec("drop_rare_drgs", DropRareDrgs),
		spec("ratio_drg_facility_vs_year", RatioDrgFacilityVsYear),
		spec("lag_columns", LagColumns),
		spec("rolling_columns", RollingColumns),
		spec("yearly_discharge_bin", YearlyDischargeBin),
		spec("mean_profit", MeanProfit),
		spec("median_profit", MedianProfit),
		spec("total_mean_cost", TotalMeanCost),
		spec("total_mean_profit", TotalMeanProfit),
		spec("total_median_cost", TotalMedianCost),
		spec("total_median_profit", TotalMedianProfit),
		spec("drop_description_columns", DropDescriptionColumns),
		spec("drop_non_lag_columns", DropNonLagColumns),
		spec("sanitize_column_names", func(t *table.Table, _ NoConfig) (*table.Table, error) {
			return SanitizeColumnNames(t)
		}),
	}
	m := make(map[string]Spec, len(specs))
	for _, s := range specs {
		m[s.Name] = s
	}
	return m
}()

// NoConfig is the config of transforms that take no parameters. Any key in
// the parameter block is rejected.
type NoConfig struct{}

// Lookup returns the transform registered under name.
func Lookup(name string) (Spec, bool) {
	s, ok := registry[name]
	return s, ok
}

// Names lists the registered transforms in lexical order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
