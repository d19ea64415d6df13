// Package inmobi manages apps and placements on the InMobi publisher
// console. Authentication is a fixed header pair from configuration; there
// is no token lifecycle.
package inmobi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/extract"
	"github.com/SC-Dawoony/ad-network-hub-sub000/auth"
	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

const (
	defaultBaseURL = "https://publisher.inmobi.com"

	appsPath       = "/rest/api/v1/apps"
	placementsPath = "/rest/api/v1/placements"
)

var (
	appIDChain       = extract.NewChain("appId", "id", "app_id")
	appNameChain     = extract.NewChain("appName", "name")
	appPackageChain  = extract.NewChain("bundleId", "packageName", "package")
	appPlatformChain = extract.NewChain("platform", "os")
	appStoreChain    = extract.NewChain("appStoreUrl", "storeUrl")

	placementIDChain     = extract.NewChain("placementId", "id")
	placementNameChain   = extract.NewChain("placementName", "name")
	placementTypeChain   = extract.NewChain("placementType", "type")
	placementStatusChain = extract.NewChain("status")
	placementAppChain    = extract.NewChain("appId", "app_id")
)

type adapter struct {
	baseURL   string
	client    *http.Client
	provider  auth.Provider
	validator adapters.ParamsValidator
}

// Builder assembles the InMobi adapter with its static header provider.
func Builder(cfg config.Network, deps adapters.BuilderDeps) (adapters.Adapter, auth.Provider, error) {
	baseURL := defaultBaseURL
	if cfg.Endpoint != "" {
		baseURL = cfg.Endpoint
	}
	provider := auth.NewStaticProvider("inmobi", map[string]string{
		"apiKey":    cfg.APIKey,
		"accountId": cfg.AccountID,
	})
	return &adapter{
		baseURL:   baseURL,
		client:    deps.Client,
		provider:  provider,
		validator: deps.Validator,
	}, provider, nil
}

func (a *adapter) Name() string { return "inmobi" }

func (a *adapter) ListApps(ctx context.Context, filter adapters.Filter) ([]adapters.App, error) {
	body, err := a.get(ctx, appsPath, nil)
	if err != nil {
		return nil, err
	}

	items, err := adapters.RawItems(extract.Envelope(body, "data", "apps", "list"))
	if err != nil {
		return nil, &errortypes.UpstreamError{Message: fmt.Sprintf("inmobi: parse apps response: %v", err)}
	}

	apps := make([]adapters.App, 0, len(items))
	for _, item := range items {
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
		if storeURL, ok := appStoreChain.Extract(item); ok {
			app.StoreURL = storeURL
		}
		if filter.Platform != "" && app.Platform != filter.Platform {
			continue
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func (a *adapter) CreateApp(ctx context.Context, payload map[string]interface{}) adapters.NormalizedResult {
	callerBody, err := adapters.BuildPayload(nil, payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if err := a.validator.Validate(a.Name(), callerBody); err != nil {
		return adapters.ResultFromError(err)
	}

	body, err := a.postJSON(ctx, appsPath, payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}

	appID, ok := appIDChain.ExtractFrom(extract.Envelope(body, "data"), body)
	if !ok {
		failed := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "inmobi: create app response carries no app id",
		})
		failed.Raw = body
		return failed
	}
	return adapters.SuccessResult(map[string]interface{}{"app_id": appID}, body)
}

func (a *adapter) ListUnits(ctx context.Context, appID string) ([]adapters.Unit, error) {
	if appID == "" {
		return nil, &errortypes.BadInput{Message: "inmobi: app id is required to list placements"}
	}

	body, err := a.get(ctx, placementsPath, url.Values{"appId": []string{appID}})
	if err != nil {
		return nil, err
	}

	items, err := adapters.RawItems(extract.Envelope(body, "data", "placements", "list"))
	if err != nil {
		return nil, &errortypes.UpstreamError{Message: fmt.Sprintf("inmobi: parse placements response: %v", err)}
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
	if appID != "" && !hasField(request, "appId") {
		request["appId"] = numericID(appID)
	}

	body, err := a.postJSON(ctx, placementsPath, request)
	if err != nil {
		return adapters.ResultFromError(err)
	}

	placementID, ok := placementIDChain.ExtractFrom(extract.Envelope(body, "data"), body)
	if !ok {
		failed := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "inmobi: create placement response carries no placement id",
		})
		failed.Raw = body
		return failed
	}

	appRef := appID
	if owner, ok := placementAppChain.ExtractFrom(extract.Envelope(body, "data"), body); ok {
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

// numericID keeps numeric identifiers numeric on the wire; anything else
// travels as the raw string.
func numericID(id string) interface{} {
	if parsed, err := strconv.ParseInt(id, 10, 64); err == nil {
		return parsed
	}
	return id
}
