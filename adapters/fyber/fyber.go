// Package fyber manages apps and placements on the Fyber (Digital Turbine)
// management console. The API is flat REST under a fixed bearer token;
// placements live under their app's path.
package fyber

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/extract"
	"github.com/SC-Dawoony/ad-network-hub-sub000/auth"
	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

const (
	defaultBaseURL = "https://console.fyber.com"

	appsPath = "/api/management/v1/apps"
)

var (
	appIDChain       = extract.NewChain("appId", "id")
	appNameChain     = extract.NewChain("name", "appName")
	appPackageChain  = extract.NewChain("bundle", "bundleId")
	appPlatformChain = extract.NewChain("platform", "os")
	appStoreChain    = extract.NewChain("storeUrl", "url")

	placementIDChain     = extract.NewChain("placementId", "id")
	placementNameChain   = extract.NewChain("name", "placementName")
	placementTypeChain   = extract.NewChain("type", "adFormat")
	placementStatusChain = extract.NewChain("status")
)

type adapter struct {
	baseURL   string
	client    *http.Client
	provider  auth.Provider
	validator adapters.ParamsValidator
}

// Builder assembles the Fyber adapter with its fixed bearer provider.
func Builder(cfg config.Network, deps adapters.BuilderDeps) (adapters.Adapter, auth.Provider, error) {
	baseURL := defaultBaseURL
	if cfg.Endpoint != "" {
		baseURL = cfg.Endpoint
	}
	provider := auth.NewStaticBearer("fyber", "Authorization", cfg.Token)
	return &adapter{
		baseURL:   baseURL,
		client:    deps.Client,
		provider:  provider,
		validator: deps.Validator,
	}, provider, nil
}

func (a *adapter) Name() string { return "fyber" }

func (a *adapter) ListApps(ctx context.Context, filter adapters.Filter) ([]adapters.App, error) {
	body, err := a.get(ctx, appsPath)
	if err != nil {
		return nil, err
	}

	items, err := adapters.RawItems(extract.Envelope(body, "apps", "data", "result"))
	if err != nil {
		return nil, &errortypes.UpstreamError{Message: fmt.Sprintf("fyber: parse apps response: %v", err)}
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

	result := extract.Envelope(body, "result", "data")
	appID, ok := appIDChain.ExtractFrom(result, body)
	if !ok {
		failed := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "fyber: create app response carries no app id",
		})
		failed.Raw = body
		return failed
	}

	data := map[string]interface{}{"app_id": appID}
	if platform, ok := appPlatformChain.ExtractFrom(result, body); ok {
		if normalized, ok := adapters.NormalizePlatform(platform); ok {
			data["platform"] = normalized
		}
	}
	if pkg, ok := appPackageChain.ExtractFrom(result, body); ok {
		data["package_name"] = pkg
	}
	return adapters.SuccessResult(data, body)
}

func (a *adapter) ListUnits(ctx context.Context, appID string) ([]adapters.Unit, error) {
	if appID == "" {
		return nil, &errortypes.BadInput{Message: "fyber: app id is required to list placements"}
	}

	body, err := a.get(ctx, placementsPath(appID))
	if err != nil {
		return nil, err
	}

	items, err := adapters.RawItems(extract.Envelope(body, "placements", "data", "result"))
	if err != nil {
		return nil, &errortypes.UpstreamError{Message: fmt.Sprintf("fyber: parse placements response: %v", err)}
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
		units = append(units, unit)
	}
	return units, nil
}

func (a *adapter) CreateUnit(ctx context.Context, payload map[string]interface{}, appID string) adapters.NormalizedResult {
	if appID == "" {
		return adapters.ResultFromError(&errortypes.BadInput{
			Message: "fyber: app id is required to create a placement",
		})
	}
	callerBody, err := adapters.BuildPayload(nil, payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if err := a.validator.Validate(a.Name(), callerBody); err != nil {
		return adapters.ResultFromError(err)
	}

	body, err := a.postJSON(ctx, placementsPath(appID), payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}

	result := extract.Envelope(body, "result", "data")
	placementID, ok := placementIDChain.ExtractFrom(result, body)
	if !ok {
		failed := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "fyber: create placement response carries no placement id",
		})
		failed.Raw = body
		return failed
	}
	return adapters.SuccessResult(map[string]interface{}{"unit_id": placementID, "app_id": appID}, body)
}

func placementsPath(appID string) string {
	return fmt.Sprintf("%s/%s/placements", appsPath, appID)
}

func (a *adapter) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := adapters.DoAuthorized(ctx, a.client, a.Name(), a.provider, func(cred auth.Credential) (*adapters.RequestData, error) {
		return &adapters.RequestData{Method: http.MethodGet, URL: a.baseURL + path}, nil
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
