// Package metrics records what the hub does: adapter round-trips,
// reconciliation batches, and the HTTP requests serving them.
package metrics

import "time"

// Engine is implemented by every metrics backend. Implementations must be
// safe for use from multiple goroutines.
type Engine interface {
	// RecordAdapterCall notes one upstream call. op is the adapter
	// operation (list_apps, create_app, list_units, create_unit); status
	// is "ok" or the normalized error code.
	RecordAdapterCall(network, op, status string, length time.Duration)

	// RecordReconcileBatch notes one finished ResolveAll run.
	RecordReconcileBatch(tasks, matched int, length time.Duration)

	// RecordRequest notes one served HTTP request.
	RecordRequest(endpoint string, status int, length time.Duration)
}

// NilEngine discards everything. Handing it out instead of a nil interface
// keeps callers free of nil checks.
type NilEngine struct{}

func (NilEngine) RecordAdapterCall(network, op, status string, length time.Duration) {}

func (NilEngine) RecordReconcileBatch(tasks, matched int, length time.Duration) {}

func (NilEngine) RecordRequest(endpoint string, status int, length time.Duration) {}

// MultiEngine fans each record out to every configured backend.
type MultiEngine []Engine

func (m MultiEngine) RecordAdapterCall(network, op, status string, length time.Duration) {
	for _, engine := range m {
		engine.RecordAdapterCall(network, op, status, length)
	}
}

func (m MultiEngine) RecordReconcileBatch(tasks, matched int, length time.Duration) {
	for _, engine := range m {
		engine.RecordReconcileBatch(tasks, matched, length)
	}
}

func (m MultiEngine) RecordRequest(endpoint string, status int, length time.Duration) {
	for _, engine := range m {
		engine.RecordRequest(endpoint, status, length)
	}
}
