package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	prometheusmetrics "github.com/SC-Dawoony/ad-network-hub-sub000/metrics/prometheus"
)

func newPrometheusServer(cfg *config.Configuration, prom *prometheusmetrics.Metrics) *http.Server {
	if prom == nil {
		glog.Fatal("Prometheus metrics configured, but the Prometheus metrics engine was not built. Cannot set up a Prometheus listener.")
	}
	return &http.Server{
		Addr: cfg.Host + ":" + strconv.Itoa(cfg.Metrics.Prometheus.Port),
		Handler: promhttp.HandlerFor(prom.Registry, promhttp.HandlerOpts{
			ErrorLog:            loggerForPrometheus{},
			MaxRequestsInFlight: 5,
			Timeout:             5 * time.Second,
		}),
	}
}

type loggerForPrometheus struct{}

func (loggerForPrometheus) Println(v ...interface{}) {
	glog.Warningln(v...)
}
