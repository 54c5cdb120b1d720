package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaggingMetricsRecord(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewTaggingMetrics(registry)
	require.NoError(t, err)

	m.RecordOperation(OpReplaceTags, StatusSuccess)
	m.RecordOperation(OpReplaceTags, StatusSuccess)
	m.RecordOperation(OpCloud, StatusError)
	m.RecordError(OpCloud, "validation")
	m.RecordDuration(OpUsage, 0.002)
	m.RecordResultSize(OpUsage, 3)
	m.RecordAssociationChanges(2, 0)

	assert.InDelta(t, 2, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpReplaceTags, StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.errorsTotal.WithLabelValues(OpCloud, "validation")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.associationsDelta.WithLabelValues("added")), 0)

	families, err := registry.Gather()
	require.NoError(t, err)

	var histogram *dto.Histogram
	for _, family := range families {
		if family.GetName() == "ctags_operation_duration_seconds" {
			histogram = family.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, histogram)
	assert.Equal(t, uint64(1), histogram.GetSampleCount())
}

func TestTaggingMetricsDoubleRegistrationFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewTaggingMetrics(registry)
	require.NoError(t, err)

	_, err = NewTaggingMetrics(registry)
	require.Error(t, err)
}

func TestRecorderImplementations(t *testing.T) {
	var _ Recorder = (*TaggingMetrics)(nil)
	var r Recorder = NopRecorder{}
	r.RecordOperation(OpUsage, StatusSuccess)
	r.RecordDuration(OpUsage, 1)
	r.RecordError(OpUsage, "database")
}
