package metrics

import (
	"fmt"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/vrischmann/go-metrics-influxdb"

	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
)

// MeterEngine feeds a go-metrics registry. Meters and timers register
// lazily, so only networks and endpoints that actually see traffic show up.
type MeterEngine struct {
	registry gometrics.Registry

	reconcileBatches gometrics.Meter
	reconcileTasks   gometrics.Meter
	reconcileMatched gometrics.Meter
	reconcileTimer   gometrics.Timer
}

// NewMeterEngine builds the go-metrics backend and, when an influx host is
// configured, starts the reporter that flushes the registry to it.
func NewMeterEngine(cfg config.Influx) *MeterEngine {
	registry := gometrics.NewPrefixedRegistry("adhub.")
	if cfg.Host != "" {
		go influxdb.InfluxDB(
			registry,
			time.Duration(cfg.IntervalSeconds)*time.Second,
			cfg.Host,
			cfg.Database,
			cfg.Username,
			cfg.Password,
		)
	}

	return &MeterEngine{
		registry:         registry,
		reconcileBatches: gometrics.GetOrRegisterMeter("reconcile.batches", registry),
		reconcileTasks:   gometrics.GetOrRegisterMeter("reconcile.tasks", registry),
		reconcileMatched: gometrics.GetOrRegisterMeter("reconcile.matched", registry),
		reconcileTimer:   gometrics.GetOrRegisterTimer("reconcile.batch_time", registry),
	}
}

// Registry exposes the underlying registry for admin dumps.
func (e *MeterEngine) Registry() gometrics.Registry {
	return e.registry
}

func (e *MeterEngine) RecordAdapterCall(network, op, status string, length time.Duration) {
	gometrics.GetOrRegisterMeter(fmt.Sprintf("adapter.%s.%s.%s", network, op, status), e.registry).Mark(1)
	gometrics.GetOrRegisterTimer(fmt.Sprintf("adapter.%s.%s.request_time", network, op), e.registry).Update(length)
}

func (e *MeterEngine) RecordReconcileBatch(tasks, matched int, length time.Duration) {
	e.reconcileBatches.Mark(1)
	e.reconcileTasks.Mark(int64(tasks))
	e.reconcileMatched.Mark(int64(matched))
	e.reconcileTimer.Update(length)
}

func (e *MeterEngine) RecordRequest(endpoint string, status int, length time.Duration) {
	gometrics.GetOrRegisterMeter(fmt.Sprintf("requests.%s.%d", endpoint, status), e.registry).Mark(1)
	gometrics.GetOrRegisterTimer(fmt.Sprintf("requests.%s.request_time", endpoint), e.registry).Update(length)
}
