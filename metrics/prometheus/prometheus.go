package prometheusmetrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
)

// Metrics is the Prometheus-backed metrics engine. It owns its registry so
// the hub's series never mix with a host process default registry.
type Metrics struct {
	Registry *prometheus.Registry

	adapterCalls     *prometheus.CounterVec
	adapterCallTimer *prometheus.HistogramVec

	reconcileBatches prometheus.Counter
	reconcileTasks   prometheus.Counter
	reconcileMatched prometheus.Counter
	reconcileTimer   prometheus.Histogram

	requests      *prometheus.CounterVec
	requestsTimer *prometheus.HistogramVec
}

const (
	networkLabel  = "network"
	opLabel       = "op"
	statusLabel   = "status"
	endpointLabel = "endpoint"
)

// NewMetrics registers every vector on a fresh registry.
func NewMetrics(cfg config.Prometheus) *Metrics {
	standardBuckets := []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

	metrics := Metrics{
		Registry: prometheus.NewRegistry(),
	}

	metrics.adapterCalls = newCounterVec(cfg, metrics.Registry,
		"adapter_calls",
		"Count of upstream network calls by network, operation and status.",
		[]string{networkLabel, opLabel, statusLabel})
	metrics.adapterCallTimer = newHistogramVec(cfg, metrics.Registry,
		"adapter_call_seconds",
		"Seconds to complete an upstream network call.",
		[]string{networkLabel, opLabel},
		standardBuckets)

	metrics.reconcileBatches = newCounter(cfg, metrics.Registry,
		"reconcile_batches",
		"Count of reconciliation batches run.")
	metrics.reconcileTasks = newCounter(cfg, metrics.Registry,
		"reconcile_tasks",
		"Count of reconciliation tasks across all batches.")
	metrics.reconcileMatched = newCounter(cfg, metrics.Registry,
		"reconcile_matched",
		"Count of reconciliation tasks that resolved a unit.")
	metrics.reconcileTimer = newHistogram(cfg, metrics.Registry,
		"reconcile_batch_seconds",
		"Seconds to finish a reconciliation batch.",
		standardBuckets)

	metrics.requests = newCounterVec(cfg, metrics.Registry,
		"requests",
		"Count of served HTTP requests by endpoint and status code.",
		[]string{endpointLabel, statusLabel})
	metrics.requestsTimer = newHistogramVec(cfg, metrics.Registry,
		"request_seconds",
		"Seconds to serve an HTTP request.",
		[]string{endpointLabel},
		standardBuckets)

	return &metrics
}

func newCounter(cfg config.Prometheus, registry *prometheus.Registry, name, help string) prometheus.Counter {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	})
	registry.MustRegister(counter)
	return counter
}

func newCounterVec(cfg config.Prometheus, registry *prometheus.Registry, name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	registry.MustRegister(counter)
	return counter
}

func newHistogram(cfg config.Prometheus, registry *prometheus.Registry, name, help string, buckets []float64) prometheus.Histogram {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
	registry.MustRegister(histogram)
	return histogram
}

func newHistogramVec(cfg config.Prometheus, registry *prometheus.Registry, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	registry.MustRegister(histogram)
	return histogram
}

func (m *Metrics) RecordAdapterCall(network, op, status string, length time.Duration) {
	m.adapterCalls.With(prometheus.Labels{
		networkLabel: network,
		opLabel:      op,
		statusLabel:  status,
	}).Inc()
	m.adapterCallTimer.With(prometheus.Labels{
		networkLabel: network,
		opLabel:      op,
	}).Observe(length.Seconds())
}

func (m *Metrics) RecordReconcileBatch(tasks, matched int, length time.Duration) {
	m.reconcileBatches.Inc()
	m.reconcileTasks.Add(float64(tasks))
	m.reconcileMatched.Add(float64(matched))
	m.reconcileTimer.Observe(length.Seconds())
}

func (m *Metrics) RecordRequest(endpoint string, status int, length time.Duration) {
	m.requests.With(prometheus.Labels{
		endpointLabel: endpoint,
		statusLabel:   strconv.Itoa(status),
	}).Inc()
	m.requestsTimer.With(prometheus.Labels{
		endpointLabel: endpoint,
	}).Observe(length.Seconds())
}
