package metrics

import (
	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	prometheusmetrics "github.com/SC-Dawoony/ad-network-hub-sub000/metrics/prometheus"
)

// New assembles the configured backends behind one Engine. The go-metrics
// registry always runs; the influx reporter and the Prometheus registry
// join when configured. The second return is non-nil when a /metrics
// listener should serve the Prometheus registry.
func New(cfg config.Metrics) (Engine, *prometheusmetrics.Metrics) {
	engines := MultiEngine{NewMeterEngine(cfg.Influx)}

	var prom *prometheusmetrics.Metrics
	if cfg.Prometheus.Enabled() {
		prom = prometheusmetrics.NewMetrics(cfg.Prometheus)
		engines = append(engines, prom)
	}

	return engines, prom
}
