package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewMetrics(reg)
	require.NoError(t, err)
	first.EventsEnqueued.Add(2)

	second, err := NewMetrics(reg)
	require.NoError(t, err)
	second.EventsEnqueued.Inc()

	assert.InDelta(t, 3, testutil.ToFloat64(first.EventsEnqueued), 0)
	assert.Equal(t, 5, testutil.CollectAndCount(reg,
		"agentops_events_enqueued_total",
		"agentops_events_rejected_total",
		"agentops_events_flushed_total",
		"agentops_events_dropped_total",
		"agentops_flushes_total",
		"agentops_flush_duration_seconds",
		"agentops_queue_length",
	), "vectors without children are not collected")
}

func TestNewMetricsConflictingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "events_enqueued_total",
		Help:      "Something else entirely.",
	}))

	m, err := NewMetrics(reg)
	require.Error(t, err)
	require.NotNil(t, m)

	m.EventsEnqueued.Inc()
	assert.InDelta(t, 1, testutil.ToFloat64(m.EventsEnqueued), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.QueueLength), 0)
}
