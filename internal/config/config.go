// Package config defines the step configuration model: one file per pipeline
// step, naming the transform to run, its parameter block, the tests to apply
// and where the table is read from and written to.
//
// Step files are JSON or YAML (chosen by extension). Both decode through the
// same JSON field names, so the two spellings are interchangeable:
//
//	job: drop_rare_drgs
//	setup:
//	  transform: drop_rare_drgs
//	  return_type: table
//	io_policy: { read_input: true, write_output: true }
//	input:  { path: data/v1/v1.csv }
//	output: { path: data/v2/v2.csv, include_index: false }
//	metadata: { path: data/v2/v2_metadata.json }
//	params:
//	  apr_drg_code_col_name: apr_drg_code
//	  threshold: 50
//	  ...
//	tests:
//	  active: [check_required_columns]
//	  params:
//	    check_required_columns: { required_columns: [apr_drg_code] }
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Step is the top-level object of a step file.
type Step struct {
	// Job labels metrics and log lines; defaults to the transform name.
	Job string `json:"job"`

	Setup    Setup          `json:"setup"`
	IOPolicy IOPolicy       `json:"io_policy"`
	Input    Input          `json:"input"`
	Output   Output         `json:"output"`
	Metadata MetadataOutput `json:"metadata"`

	// Params is the transform's parameter block. It is decoded strictly into
	// the transform's config struct; see DecodeStrict.
	Params Options `json:"params"`

	Tests Tests `json:"tests"`

	// Sink optionally bulk-loads the output table into a database.
	Sink *Sink `json:"sink,omitempty"`

	// Parallelism is checked before any work when present.
	Parallelism *Parallelism `json:"parallelism,omitempty"`
}

// Setup names what the step runs.
type Setup struct {
	Transform string `json:"transform"`

	// ReturnType "table" makes a nil transform result fatal.
	ReturnType string `json:"return_type"`
}

// IOPolicy toggles reading the input and persisting the output.
type IOPolicy struct {
	ReadInput   bool `json:"read_input"`
	WriteOutput bool `json:"write_output"`
}

// Input locates the table a step starts from.
type Input struct {
	Path string `json:"path"`

	// Format is csv (default), parquet, json or sqlite.
	Format string `json:"format"`

	// Table names the sqlite table when Format is sqlite.
	Table string `json:"table"`

	// Delimiter overrides the CSV field separator.
	Delimiter string `json:"delimiter"`
}

// Output locates where the resulting table is written.
type Output struct {
	Path string `json:"path"`

	// Format is csv (default), parquet or json.
	Format string `json:"format"`

	IncludeIndex bool `json:"include_index"`
}

// MetadataOutput locates the metadata side file.
type MetadataOutput struct {
	Path string `json:"path"`
}

// Tests lists the post-transform checks. Active runs in declared order; each
// check reads its parameters from Params under its own name.
type Tests struct {
	Active []string           `json:"active"`
	Params map[string]Options `json:"params"`
}

// Sink selects a registered storage backend.
type Sink struct {
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures a database sink.
type DBConfig struct {
	DSN   string `json:"dsn"`
	Table string `json:"table"`

	// Columns restricts and orders the loaded columns; empty loads all.
	Columns []string `json:"columns"`

	// AutoCreateTable creates the destination table from the column types
	// before loading.
	AutoCreateTable bool `json:"auto_create_table"`

	BatchSize int `json:"batch_size"`
}

// Parallelism carries the worker counts handed to the model trainer.
// -1 means all cores.
type Parallelism struct {
	NJobsCV    int `json:"n_jobs_cv"`
	NJobsStudy int `json:"n_jobs_study"`
}

// Load reads a step file. ".yaml" and ".yml" are parsed as YAML, anything
// else as JSON. Unknown top-level keys are rejected.
func Load(path string) (*Step, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(b)
	default:
		return ParseJSON(b)
	}
}

// ParseJSON decodes a JSON step file.
func ParseJSON(b []byte) (*Step, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var s Step
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("config: decode step: %w", err)
	}
	s.normalize()
	return &s, nil
}

// ParseYAML decodes a YAML step file by converting it to JSON first, so both
// formats share field names and strictness.
func ParseYAML(b []byte) (*Step, error) {
	var raw any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	js, err := json.Marshal(stringKeys(raw))
	if err != nil {
		return nil, fmt.Errorf("config: yaml to json: %w", err)
	}
	return ParseJSON(js)
}

// stringKeys rewrites YAML mappings with non-string keys, such as
// row_counts: {7: 100}, into string-keyed maps JSON can encode.
func stringKeys(v any) any {
	switch x := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = stringKeys(e)
		}
		return out
	case map[string]any:
		for k, e := range x {
			x[k] = stringKeys(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = stringKeys(e)
		}
		return x
	default:
		return v
	}
}

func (s *Step) normalize() {
	if s.Job == "" {
		s.Job = s.Setup.Transform
	}
	if s.Params == nil {
		s.Params = Options{}
	}
	if s.Tests.Params == nil {
		s.Tests.Params = map[string]Options{}
	}
}

// Options holds a free-form parameter map with typed accessors. Accessors
// return def when the key is absent or holds another type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if s, ok := o[key].(string); ok {
		return s
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if b, ok := o[key].(bool); ok {
		return b
	}
	return def
}

// Int returns the integer value for key or def. JSON numbers arrive as
// float64 and YAML integers as int; both are accepted.
func (o Options) Int(key string, def int) int {
	switch n := o[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return def
}

// StringSlice returns the string elements of an array value, or nil.
func (o Options) StringSlice(key string) []string {
	switch vv := o[key].(type) {
	case []any:
		out := make([]string, 0, len(vv))
		for _, x := range vv {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return vv
	}
	return nil
}

// Has reports whether key is present, even with a null value.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// UnmarshalJSON decodes a missing or null object to an empty, non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
