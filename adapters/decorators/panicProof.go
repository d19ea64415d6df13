// Package decorators wraps adapters with cross-cutting behavior the network
// packages should not carry themselves. The registry applies them to every
// adapter it builds.
package decorators

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/golang/glog"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
)

// PreventPanics shields callers from a panicking adapter. List calls come
// back as a plain error, create calls as a failed result; the stack is
// logged either way.
func PreventPanics(inner adapters.Adapter) adapters.Adapter {
	return &panicProofAdapter{inner: inner}
}

type panicProofAdapter struct {
	inner adapters.Adapter
}

func (a *panicProofAdapter) Name() string {
	return a.inner.Name()
}

func (a *panicProofAdapter) ListApps(ctx context.Context, filter adapters.Filter) (apps []adapters.App, err error) {
	defer func() {
		if cause := recover(); cause != nil {
			apps, err = nil, a.recovered("list_apps", cause)
		}
	}()
	return a.inner.ListApps(ctx, filter)
}

func (a *panicProofAdapter) CreateApp(ctx context.Context, payload map[string]interface{}) (result adapters.NormalizedResult) {
	defer func() {
		if cause := recover(); cause != nil {
			result = adapters.ResultFromError(a.recovered("create_app", cause))
		}
	}()
	return a.inner.CreateApp(ctx, payload)
}

func (a *panicProofAdapter) ListUnits(ctx context.Context, appID string) (units []adapters.Unit, err error) {
	defer func() {
		if cause := recover(); cause != nil {
			units, err = nil, a.recovered("list_units", cause)
		}
	}()
	return a.inner.ListUnits(ctx, appID)
}

func (a *panicProofAdapter) CreateUnit(ctx context.Context, payload map[string]interface{}, appID string) (result adapters.NormalizedResult) {
	defer func() {
		if cause := recover(); cause != nil {
			result = adapters.ResultFromError(a.recovered("create_unit", cause))
		}
	}()
	return a.inner.CreateUnit(ctx, payload, appID)
}

func (a *panicProofAdapter) recovered(op string, cause interface{}) error {
	glog.Errorf("%s %s panicked: %v\n%s", a.inner.Name(), op, cause, debug.Stack())
	return fmt.Errorf("%s %s panicked: %v", a.inner.Name(), op, cause)
}
