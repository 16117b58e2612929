package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single lint finding. Path is a dotted path into the step file
// (e.g. "tests.active[1]", "sink.db.dsn").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Catalog lists the names a step file may refer to.
type Catalog struct {
	Transforms []string
	Tests      []string
	Sinks      []string
}

// ValidateStep lints a decoded step without running it. Parameter blocks are
// not decoded here; the step runner does that strictly before any I/O.
func ValidateStep(s Step, cat Catalog) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	name := strings.TrimSpace(s.Setup.Transform)
	switch {
	case name == "":
		add(SeverityError, "setup.transform", "setup.transform must not be empty")
	case !contains(cat.Transforms, name):
		add(SeverityError, "setup.transform", "unknown transform %q", name)
	}
	if rt := s.Setup.ReturnType; rt != "" && rt != "table" && rt != "none" {
		add(SeverityError, "setup.return_type", "return_type must be table or none, got %q", rt)
	}

	if s.IOPolicy.ReadInput {
		if strings.TrimSpace(s.Input.Path) == "" {
			add(SeverityError, "input.path", "read_input is set but input.path is empty")
		}
		switch s.Input.Format {
		case "", "csv", "parquet", "json":
		case "sqlite":
			if s.Input.Table == "" {
				add(SeverityError, "input.table", "sqlite input requires a table name")
			}
		default:
			add(SeverityError, "input.format", "unsupported input format %q", s.Input.Format)
		}
		if d := s.Input.Delimiter; d != "" && len([]rune(d)) != 1 {
			add(SeverityError, "input.delimiter", "delimiter must be a single character, got %q", d)
		}
	} else if name != "ingest_data" && name != "" {
		add(SeverityWarning, "io_policy.read_input", "read_input is false; %s will run on an empty table", name)
	}

	if s.IOPolicy.WriteOutput {
		if strings.TrimSpace(s.Output.Path) == "" {
			add(SeverityError, "output.path", "write_output is set but output.path is empty")
		}
		switch s.Output.Format {
		case "", "csv", "parquet", "json":
		default:
			add(SeverityError, "output.format", "unsupported output format %q", s.Output.Format)
		}
		if strings.TrimSpace(s.Metadata.Path) == "" {
			add(SeverityWarning, "metadata.path", "no metadata path; the metadata record will not be written")
		}
	}

	seen := map[string]bool{}
	for i, t := range s.Tests.Active {
		path := fmt.Sprintf("tests.active[%d]", i)
		if !contains(cat.Tests, t) {
			add(SeverityError, path, "unknown test %q", t)
			continue
		}
		if seen[t] {
			add(SeverityWarning, path, "test %q is listed more than once", t)
		}
		seen[t] = true
		if _, ok := s.Tests.Params[t]; !ok {
			add(SeverityError, "tests.params."+t, "active test %q has no parameters", t)
		}
	}

	if s.Sink != nil {
		issues = append(issues, validateSink(*s.Sink, cat.Sinks)...)
	}
	if p := s.Parallelism; p != nil {
		if p.NJobsCV == 0 || p.NJobsCV < -1 {
			add(SeverityError, "parallelism.n_jobs_cv", "n_jobs_cv must be positive or -1, got %d", p.NJobsCV)
		}
		if p.NJobsStudy == 0 || p.NJobsStudy < -1 {
			add(SeverityError, "parallelism.n_jobs_study", "n_jobs_study must be positive or -1, got %d", p.NJobsStudy)
		}
	}
	return issues
}

func validateSink(s Sink, known []string) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.Kind) == "" {
		return append(issues, Issue{SeverityError, "sink.kind", "sink.kind must not be empty"})
	}
	if !contains(known, s.Kind) {
		issues = append(issues, Issue{SeverityError, "sink.kind",
			fmt.Sprintf("unknown sink kind %q; ensure a matching backend is registered", s.Kind)})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "sink.db.dsn", "sink.db.dsn must not be empty"})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{SeverityError, "sink.db.table", "sink.db.table must not be empty"})
	}
	if s.DB.BatchSize < 0 {
		issues = append(issues, Issue{SeverityWarning, "sink.db.batch_size",
			fmt.Sprintf("batch_size=%d; the default will be used", s.DB.BatchSize)})
	}
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
