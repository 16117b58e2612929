// Package metrics records operational metrics for step runs behind a small,
// pluggable Backend. The default backend is a no-op, so instrumentation is
// always safe to call; concrete systems (Prometheus Pushgateway, DogStatsD)
// live in subpackages and are installed with SetBackend.
//
// A step run reports one stage metric per stage it reaches (lookup, read,
// transform, test, persist, sink), row counts by kind, and the shape of the
// table it produced.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by every backend.
const (
	StageTotal    = "etl_stage_total"
	StageDuration = "etl_stage_duration_seconds"
	RowsTotal     = "etl_rows_total"
	TableRows     = "etl_table_rows"
	TableColumns  = "etl_table_columns"
)

// Stage outcomes.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

const (
	labelJob    = "job"
	labelStage  = "stage"
	labelStatus = "status"
	labelKind   = "kind"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// SetGauge records the latest value of a level.
	SetGauge(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) SetGauge(string, float64, Labels)         {}
func (nopBackend) Flush() error                             { return nil }

// Nop returns the backend that discards everything.
func Nop() Backend { return nopBackend{} }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStage counts one stage execution and its duration, labelled with the
// outcome.
func RecordStage(job, stage string, err error, d time.Duration) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	lbls := Labels{labelJob: job, labelStage: stage, labelStatus: status}
	b := current()
	b.IncCounter(StageTotal, 1, lbls)
	b.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// RecordRows adds delta to the row counter of kind ("read", "written",
// "loaded"). Non-positive deltas are ignored.
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{labelJob: job, labelKind: kind})
}

// RecordTableShape reports the dimensions of the table a step produced.
func RecordTableShape(job string, rows, cols int) {
	b := current()
	b.SetGauge(TableRows, float64(rows), Labels{labelJob: job})
	b.SetGauge(TableColumns, float64(cols), Labels{labelJob: job})
}
