package endpoints

import (
	"context"
	"fmt"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

type fakeAdapter struct {
	name string

	apps     []adapters.App
	appsErr  error
	units    []adapters.Unit
	unitsErr error
	result   adapters.NormalizedResult

	lastFilter   adapters.Filter
	lastAppID    string
	appPayloads  []map[string]interface{}
	unitPayloads []map[string]interface{}
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) ListApps(ctx context.Context, filter adapters.Filter) ([]adapters.App, error) {
	f.lastFilter = filter
	if f.appsErr != nil {
		return nil, f.appsErr
	}
	return f.apps, nil
}

func (f *fakeAdapter) CreateApp(ctx context.Context, payload map[string]interface{}) adapters.NormalizedResult {
	f.appPayloads = append(f.appPayloads, payload)
	return f.result
}

func (f *fakeAdapter) ListUnits(ctx context.Context, appID string) ([]adapters.Unit, error) {
	f.lastAppID = appID
	if f.unitsErr != nil {
		return nil, f.unitsErr
	}
	return f.units, nil
}

func (f *fakeAdapter) CreateUnit(ctx context.Context, payload map[string]interface{}, appID string) adapters.NormalizedResult {
	f.unitPayloads = append(f.unitPayloads, payload)
	f.lastAppID = appID
	return f.result
}

type fakeSource map[string]*fakeAdapter

func (s fakeSource) Get(network string) (adapters.Adapter, error) {
	if adapter, ok := s[network]; ok {
		return adapter, nil
	}
	return nil, &errortypes.UnknownNetwork{Message: fmt.Sprintf("unknown network %q", network)}
}
