package decorators

import (
	"context"
	"time"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/metrics"
)

// RecordMetrics notes every call on the engine under the adapter's network
// name: operation, outcome and length. Sits outermost so recovered panics
// count as failed calls.
func RecordMetrics(inner adapters.Adapter, me metrics.Engine) adapters.Adapter {
	return &meteredAdapter{inner: inner, me: me}
}

type meteredAdapter struct {
	inner adapters.Adapter
	me    metrics.Engine
}

func (a *meteredAdapter) Name() string {
	return a.inner.Name()
}

func (a *meteredAdapter) ListApps(ctx context.Context, filter adapters.Filter) ([]adapters.App, error) {
	start := time.Now()
	apps, err := a.inner.ListApps(ctx, filter)
	a.me.RecordAdapterCall(a.inner.Name(), "list_apps", errStatus(err), time.Since(start))
	return apps, err
}

func (a *meteredAdapter) CreateApp(ctx context.Context, payload map[string]interface{}) adapters.NormalizedResult {
	start := time.Now()
	result := a.inner.CreateApp(ctx, payload)
	a.me.RecordAdapterCall(a.inner.Name(), "create_app", resultStatus(result), time.Since(start))
	return result
}

func (a *meteredAdapter) ListUnits(ctx context.Context, appID string) ([]adapters.Unit, error) {
	start := time.Now()
	units, err := a.inner.ListUnits(ctx, appID)
	a.me.RecordAdapterCall(a.inner.Name(), "list_units", errStatus(err), time.Since(start))
	return units, err
}

func (a *meteredAdapter) CreateUnit(ctx context.Context, payload map[string]interface{}, appID string) adapters.NormalizedResult {
	start := time.Now()
	result := a.inner.CreateUnit(ctx, payload, appID)
	a.me.RecordAdapterCall(a.inner.Name(), "create_unit", resultStatus(result), time.Since(start))
	return result
}

func errStatus(err error) string {
	if err == nil {
		return "ok"
	}
	return adapters.ResultFromError(err).Code
}

// resultStatus buckets remote business codes under one label. They pass
// through results verbatim, but as a metric dimension they would grow
// without bound.
func resultStatus(result adapters.NormalizedResult) string {
	if result.OK {
		return "ok"
	}
	if adapters.KnownCode(result.Code) {
		return result.Code
	}
	return "upstream_reject"
}
