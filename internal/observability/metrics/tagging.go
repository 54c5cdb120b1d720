package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TaggingMetrics contains Prometheus metrics for tagging engine operations.
type TaggingMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
	resultSize        *prometheus.HistogramVec
	associationsDelta *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewTaggingMetrics creates and registers tagging metrics on registry.
func NewTaggingMetrics(registry prometheus.Registerer) (*TaggingMetrics, error) {
	m := &TaggingMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *TaggingMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctags_operations_total",
			Help: "Total number of tagging engine operations",
		},
		[]string{"operation", "status"},
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ctags_operation_duration_seconds",
			Help:    "Time taken by tagging engine operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
		},
		[]string{"operation"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctags_operation_errors_total",
			Help: "Total number of tagging engine errors by category",
		},
		[]string{"operation", "error_type"},
	)

	m.resultSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ctags_query_result_size",
			Help:    "Number of rows returned by tagging queries",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"operation"},
	)

	m.associationsDelta = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctags_associations_changed_total",
			Help: "Associations created or removed by tag replacement and cleanup",
		},
		[]string{"change"},
	)

	m.collectors = []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.errorsTotal,
		m.resultSize,
		m.associationsDelta,
	}
}

// Describe implements the Collector interface
func (m *TaggingMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *TaggingMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordOperation implements Recorder.
func (m *TaggingMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (m *TaggingMetrics) RecordDuration(operation string, seconds float64) {
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *TaggingMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordResultSize observes how many rows a query returned.
func (m *TaggingMetrics) RecordResultSize(operation string, n int) {
	m.resultSize.WithLabelValues(operation).Observe(float64(n))
}

// RecordAssociationChanges counts links added and removed.
func (m *TaggingMetrics) RecordAssociationChanges(added, removed int) {
	if added > 0 {
		m.associationsDelta.WithLabelValues("added").Add(float64(added))
	}
	if removed > 0 {
		m.associationsDelta.WithLabelValues("removed").Add(float64(removed))
	}
}
