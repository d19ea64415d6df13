package prometheusmetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
)

func newTestMetrics() *Metrics {
	return NewMetrics(config.Prometheus{
		Port:      9100,
		Namespace: "adhub",
		Subsystem: "hub",
	})
}

func counterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, counter.Write(&metric))
	return metric.GetCounter().GetValue()
}

func histogramCount(t *testing.T, observer prometheus.Observer) uint64 {
	t.Helper()
	histogram, ok := observer.(prometheus.Histogram)
	require.True(t, ok)
	var metric dto.Metric
	require.NoError(t, histogram.Write(&metric))
	return metric.GetHistogram().GetSampleCount()
}

func TestAdapterCallMetrics(t *testing.T) {
	m := newTestMetrics()

	m.RecordAdapterCall("pangle", "create_app", "ok", 250*time.Millisecond)
	m.RecordAdapterCall("pangle", "create_app", "ok", 150*time.Millisecond)
	m.RecordAdapterCall("pangle", "create_app", "bad_input", 50*time.Millisecond)

	okCalls := m.adapterCalls.With(prometheus.Labels{
		networkLabel: "pangle", opLabel: "create_app", statusLabel: "ok",
	})
	assert.Equal(t, float64(2), counterValue(t, okCalls))

	badCalls := m.adapterCalls.With(prometheus.Labels{
		networkLabel: "pangle", opLabel: "create_app", statusLabel: "bad_input",
	})
	assert.Equal(t, float64(1), counterValue(t, badCalls))

	timer := m.adapterCallTimer.With(prometheus.Labels{networkLabel: "pangle", opLabel: "create_app"})
	assert.Equal(t, uint64(3), histogramCount(t, timer))
}

func TestReconcileBatchMetrics(t *testing.T) {
	m := newTestMetrics()

	m.RecordReconcileBatch(12, 9, 3*time.Second)
	m.RecordReconcileBatch(6, 6, time.Second)

	assert.Equal(t, float64(2), counterValue(t, m.reconcileBatches))
	assert.Equal(t, float64(18), counterValue(t, m.reconcileTasks))
	assert.Equal(t, float64(15), counterValue(t, m.reconcileMatched))
}

func TestRequestMetrics(t *testing.T) {
	m := newTestMetrics()

	m.RecordRequest("/networks", 200, 5*time.Millisecond)
	m.RecordRequest("/networks", 200, 7*time.Millisecond)
	m.RecordRequest("/networks", 400, time.Millisecond)

	okRequests := m.requests.With(prometheus.Labels{endpointLabel: "/networks", statusLabel: "200"})
	assert.Equal(t, float64(2), counterValue(t, okRequests))

	timer := m.requestsTimer.With(prometheus.Labels{endpointLabel: "/networks"})
	assert.Equal(t, uint64(3), histogramCount(t, timer))
}
