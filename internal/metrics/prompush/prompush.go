// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. Collectors live in a private registry that Flush pushes
// under the step's job name; the job label itself is the Pushgateway
// grouping key, so collectors only carry the remaining labels.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"drgetl/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stageCounter  *prometheus.CounterVec // etl_stage_total{stage,status}
	stageDuration *prometheus.SummaryVec // etl_stage_duration_seconds{stage,status}
	rowCounter    *prometheus.CounterVec // etl_rows_total{kind}
	tableRows     prometheus.Gauge       // etl_table_rows
	tableColumns  prometheus.Gauge       // etl_table_columns
}

// NewBackend builds a backend pushing to gatewayURL under jobName ("etl" when
// empty).
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "etl"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stageCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StageTotal,
			Help: "Step stage executions by stage and outcome.",
		}, []string{"stage", "status"}),
		stageDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StageDuration,
			Help:       "Step stage duration in seconds by stage and outcome.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"stage", "status"}),
		rowCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows read, written and loaded into a database.",
		}, []string{"kind"}),
		tableRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metrics.TableRows,
			Help: "Rows in the table the step produced.",
		}),
		tableColumns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metrics.TableColumns,
			Help: "Columns in the table the step produced.",
		}),
	}

	for _, c := range []prometheus.Collector{b.stageCounter, b.stageDuration, b.rowCounter, b.tableRows, b.tableColumns} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}
	return b, nil
}

// IncCounter routes known counters; unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StageTotal:
		if b.stageCounter != nil {
			b.stageCounter.WithLabelValues(labels["stage"], labels["status"]).Add(delta)
		}
	case metrics.RowsTotal:
		if b.rowCounter != nil {
			b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
		}
	}
}

// ObserveHistogram records stage durations; other names are ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StageDuration || b.stageDuration == nil {
		return
	}
	b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(value)
}

// SetGauge records the table shape; other names are ignored.
func (b *Backend) SetGauge(name string, value float64, _ metrics.Labels) {
	switch name {
	case metrics.TableRows:
		if b.tableRows != nil {
			b.tableRows.Set(value)
		}
	case metrics.TableColumns:
		if b.tableColumns != nil {
			b.tableColumns.Set(value)
		}
	}
}

// Flush pushes the registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
