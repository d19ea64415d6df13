// Package vungle manages applications and placements on the Vungle
// publisher API under a fixed bearer token.
package vungle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/extract"
	"github.com/SC-Dawoony/ad-network-hub-sub000/auth"
	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

const (
	defaultBaseURL = "https://publisher-api.vungle.com"

	applicationsPath = "/api/v1/applications"
	placementsPath   = "/api/v1/placements"

	authHeader = "Vungle-Auth"
)

var (
	appIDChain       = extract.NewChain("vungleAppId", "id")
	appNameChain     = extract.NewChain("name", "appName")
	appPlatformChain = extract.NewChain("platform", "os")
	appPackageChain  = extract.NewChain("store.id", "bundleId", "packageName")
	appStoreURLChain = extract.NewChain("store.url", "storeUrl")
	defaultPlacement = extract.NewChain("defaultPlacement.id", "defaultPlacement")

	placementIDChain     = extract.NewChain("id", "placementId")
	placementNameChain   = extract.NewChain("name")
	placementTypeChain   = extract.NewChain("type", "adFormat")
	placementStatusChain = extract.NewChain("status")
	placementAppChain    = extract.NewChain("application", "appId")
)

type adapter struct {
	baseURL   string
	client    *http.Client
	provider  auth.Provider
	validator adapters.ParamsValidator
}

// Builder assembles the Vungle adapter with its fixed bearer provider.
func Builder(cfg config.Network, deps adapters.BuilderDeps) (adapters.Adapter, auth.Provider, error) {
	baseURL := defaultBaseURL
	if cfg.Endpoint != "" {
		baseURL = cfg.Endpoint
	}
	provider := auth.NewStaticBearer("vungle", authHeader, cfg.Token)
	return &adapter{
		baseURL:   baseURL,
		client:    deps.Client,
		provider:  provider,
		validator: deps.Validator,
	}, provider, nil
}

func (a *adapter) Name() string { return "vungle" }

func (a *adapter) ListApps(ctx context.Context, filter adapters.Filter) ([]adapters.App, error) {
	body, err := a.get(ctx, applicationsPath, nil)
	if err != nil {
		return nil, err
	}

	items, err := adapters.RawItems(extract.Envelope(body, "applications", "data", "results"))
	if err != nil {
		return nil, &errortypes.UpstreamError{Message: fmt.Sprintf("vungle: parse applications response: %v", err)}
	}

	apps := make([]adapters.App, 0, len(items))
	for _, item := range items {
		app := parseApp(item)
		if filter.Platform != "" && app.Platform != filter.Platform {
			continue
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func parseApp(item []byte) adapters.App {
	app := adapters.App{Name: "Unknown"}
	if id, ok := appIDChain.Extract(item); ok {
		app.ID = id
	}
	if name, ok := appNameChain.Extract(item); ok && name != "-" {
		app.Name = name
	}
	if platform, ok := appPlatformChain.Extract(item); ok {
		if normalized, ok := adapters.NormalizePlatform(platform); ok {
			app.Platform = normalized
		}
	}
	if pkg, ok := appPackageChain.Extract(item); ok {
		app.PackageName = pkg
	}
	if storeURL, ok := appStoreURLChain.Extract(item); ok {
		app.StoreURL = storeURL
	}
	// The auto-created default placement is the seed for later placement
	// flows, so it rides along with the app row.
	if placement, ok := defaultPlacement.Extract(item); ok {
		app.Extra = map[string]string{"defaultPlacement": placement}
	}
	return app
}

func (a *adapter) CreateApp(ctx context.Context, payload map[string]interface{}) adapters.NormalizedResult {
	callerBody, err := adapters.BuildPayload(nil, payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if err := a.validator.Validate(a.Name(), callerBody); err != nil {
		return adapters.ResultFromError(err)
	}

	body, err := a.postJSON(ctx, applicationsPath, payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}

	result := extract.Envelope(body, "result", "data")
	appID, ok := appIDChain.ExtractFrom(result, body)
	if !ok {
		failed := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "vungle: create application response carries no app id",
		})
		failed.Raw = body
		return failed
	}

	data := map[string]interface{}{"app_id": appID}
	if placement, ok := defaultPlacement.ExtractFrom(result, body); ok {
		data["default_placement"] = placement
	}
	return adapters.SuccessResult(data, body)
}

func (a *adapter) ListUnits(ctx context.Context, appID string) ([]adapters.Unit, error) {
	if appID == "" {
		return nil, &errortypes.BadInput{Message: "vungle: application id is required to list placements"}
	}

	body, err := a.get(ctx, placementsPath, url.Values{"application": []string{appID}})
	if err != nil {
		return nil, err
	}

	items, err := adapters.RawItems(extract.Envelope(body, "placements", "data", "results"))
	if err != nil {
		return nil, &errortypes.UpstreamError{Message: fmt.Sprintf("vungle: parse placements response: %v", err)}
	}

	units := make([]adapters.Unit, 0, len(items))
	for _, item := range items {
		unit := adapters.Unit{AppID: appID}
		if id, ok := placementIDChain.Extract(item); ok {
			unit.ID = id
		}
		if name, ok := placementNameChain.Extract(item); ok {
			unit.Name = name
		}
		if format, ok := placementTypeChain.Extract(item); ok {
			unit.Format = format
		}
		if status, ok := placementStatusChain.Extract(item); ok {
			unit.Status = status
		}
		if owner, ok := placementAppChain.Extract(item); ok {
			unit.AppID = owner
		}
		units = append(units, unit)
	}
	return units, nil
}

func (a *adapter) CreateUnit(ctx context.Context, payload map[string]interface{}, appID string) adapters.NormalizedResult {
	callerBody, err := adapters.BuildPayload(nil, payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if err := a.validator.Validate(a.Name(), callerBody); err != nil {
		return adapters.ResultFromError(err)
	}

	request := make(map[string]interface{}, len(payload)+1)
	for key, value := range payload {
		request[key] = value
	}
	if appID != "" && !hasField(request, "application") {
		request["application"] = appID
	}

	body, err := a.postJSON(ctx, placementsPath, request)
	if err != nil {
		return adapters.ResultFromError(err)
	}

	result := extract.Envelope(body, "result", "data")
	placementID, ok := placementIDChain.ExtractFrom(result, body)
	if !ok {
		failed := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "vungle: create placement response carries no placement id",
		})
		failed.Raw = body
		return failed
	}

	appRef := appID
	if owner, ok := placementAppChain.ExtractFrom(result, body); ok {
		appRef = owner
	}
	return adapters.SuccessResult(map[string]interface{}{"unit_id": placementID, "app_id": appRef}, body)
}

func (a *adapter) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := adapters.DoAuthorized(ctx, a.client, a.Name(), a.provider, func(cred auth.Credential) (*adapters.RequestData, error) {
		target := a.baseURL + path
		if len(query) > 0 {
			target += "?" + query.Encode()
		}
		return &adapters.RequestData{Method: http.MethodGet, URL: target}, nil
	})
	if err != nil {
		return nil, err
	}
	if err := adapters.StatusError(a.Name(), resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (a *adapter) postJSON(ctx context.Context, path string, payload map[string]interface{}) ([]byte, error) {
	encoded, err := adapters.BuildPayload(nil, payload)
	if err != nil {
		return nil, err
	}
	resp, err := adapters.DoAuthorized(ctx, a.client, a.Name(), a.provider, func(cred auth.Credential) (*adapters.RequestData, error) {
		headers := http.Header{}
		headers.Set("Content-Type", "application/json")
		return &adapters.RequestData{
			Method:  http.MethodPost,
			URL:     a.baseURL + path,
			Body:    encoded,
			Headers: headers,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if err := adapters.StatusError(a.Name(), resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func hasField(payload map[string]interface{}, key string) bool {
	value, ok := payload[key]
	if !ok || value == nil {
		return false
	}
	if s, isString := value.(string); isString && s == "" {
		return false
	}
	return true
}
