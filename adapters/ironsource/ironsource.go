package ironsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/extract"
	"github.com/SC-Dawoony/ad-network-hub-sub000/auth"
	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

const defaultBaseURL = "https://platform.ironsrc.com"

const (
	authPath  = "/partners/publisher/auth"
	appsPath  = "/partners/publisher/applications/v6"
	unitsPath = "/levelPlay/adUnits/v1/"
)

var (
	appIDChain    = extract.NewChain("appKey", "key", "id")
	appNameChain  = extract.NewChain("appName", "name", "title")
	packageChain  = extract.NewChain("packageName", "package", "bundleId")
	storeURLChain = extract.NewChain("storeUrl", "store_url")
	platformChain = extract.NewChain("platform", "os")

	unitIDChain     = extract.NewChain("adUnitId", "id")
	unitNameChain   = extract.NewChain("mediationAdUnitName", "name")
	unitFormatChain = extract.NewChain("adFormat", "format")
	unitStatusChain = extract.NewChain("status")
)

type adapter struct {
	baseURL   string
	client    *http.Client
	provider  auth.Provider
	validator adapters.ParamsValidator
}

// Builder builds the ironSource adapter and its bearer-token provider. The
// token endpoint lives under the same console host, so one base URL covers
// auth, apps and ad units.
func Builder(cfg config.Network, deps adapters.BuilderDeps) (adapters.Adapter, auth.Provider, error) {
	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	provider := auth.NewBearerProvider(auth.BearerConfig{
		Network:      "ironsource",
		Endpoint:     baseURL + authPath,
		SecretKey:    cfg.SecretKey,
		RefreshToken: cfg.RefreshToken,
	}, deps.Client, deps.Store)

	return &adapter{
		baseURL:   baseURL,
		client:    deps.Client,
		provider:  provider,
		validator: deps.Validator,
	}, provider, nil
}

func (a *adapter) Name() string {
	return "ironsource"
}

func (a *adapter) ListApps(ctx context.Context, filter adapters.Filter) ([]adapters.App, error) {
	endpoint := a.baseURL + appsPath
	query := url.Values{}
	if filter.Platform != "" {
		query.Set("platform", filter.Platform)
	}
	if filter.Status != "" {
		query.Set("appStatus", filter.Status)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	resp, err := adapters.DoAuthorized(ctx, a.client, a.Name(), a.provider, func(cred auth.Credential) (*adapters.RequestData, error) {
		return &adapters.RequestData{Method: http.MethodGet, URL: endpoint}, nil
	})
	if err != nil {
		return nil, err
	}
	if err := adapters.StatusError(a.Name(), resp); err != nil {
		return nil, err
	}

	items, err := adapters.RawItems(extract.Envelope(resp.Body, "applications", "data", "result"))
	if err != nil {
		return nil, &errortypes.UpstreamError{Message: fmt.Sprintf("ironsource: parse apps response: %v", err)}
	}

	apps := make([]adapters.App, 0, len(items))
	for _, item := range items {
		apps = append(apps, parseApp(item))
	}
	return apps, nil
}

func parseApp(item json.RawMessage) adapters.App {
	app := adapters.App{Name: "Unknown"}

	if id, ok := appIDChain.Extract(item); ok {
		app.ID = id
		app.Extra = map[string]string{"appKey": id}
	}
	if name, ok := appNameChain.Extract(item); ok && name != "-" {
		app.Name = name
	}
	if pkg, ok := packageChain.Extract(item); ok {
		app.PackageName = pkg
	}
	if storeURL, ok := storeURLChain.Extract(item); ok {
		app.StoreURL = storeURL
	}
	if platform, ok := platformChain.Extract(item); ok {
		if normalized, ok := adapters.NormalizePlatform(platform); ok {
			app.Platform = normalized
		}
	}
	return app
}

func (a *adapter) CreateApp(ctx context.Context, payload map[string]interface{}) adapters.NormalizedResult {
	body, err := adapters.BuildPayload(nil, payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if err := a.validator.Validate(a.Name(), body); err != nil {
		return adapters.ResultFromError(err)
	}

	resp, err := a.postJSON(ctx, a.baseURL+appsPath, body)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if err := adapters.StatusError(a.Name(), resp); err != nil {
		result := adapters.ResultFromError(err)
		result.Raw = resp.Body
		return result
	}

	id, ok := appIDChain.ExtractFrom(resp.Body, extract.Envelope(resp.Body, "data", "result"))
	if !ok {
		result := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "ironsource: create app response carries no app key",
		})
		result.Raw = resp.Body
		return result
	}

	data := map[string]interface{}{"app_id": id, "app_key": id}
	if platform, ok := platformChain.Extract(resp.Body); ok {
		data["platform"] = platform
	}
	return adapters.SuccessResult(data, resp.Body)
}

func (a *adapter) ListUnits(ctx context.Context, appID string) ([]adapters.Unit, error) {
	if appID == "" {
		return nil, &errortypes.BadInput{Message: "ironsource: app key is required to list ad units"}
	}

	endpoint := a.baseURL + unitsPath + url.PathEscape(appID)
	resp, err := adapters.DoAuthorized(ctx, a.client, a.Name(), a.provider, func(cred auth.Credential) (*adapters.RequestData, error) {
		return &adapters.RequestData{Method: http.MethodGet, URL: endpoint}, nil
	})
	if err != nil {
		return nil, err
	}
	if err := adapters.StatusError(a.Name(), resp); err != nil {
		return nil, err
	}

	items, err := adapters.RawItems(extract.Envelope(resp.Body, "adUnits", "data", "list"))
	if err != nil {
		return nil, &errortypes.UpstreamError{Message: fmt.Sprintf("ironsource: parse ad units response: %v", err)}
	}

	units := make([]adapters.Unit, 0, len(items))
	for _, item := range items {
		unit := adapters.Unit{AppID: appID}
		if id, ok := unitIDChain.Extract(item); ok {
			unit.ID = id
		}
		if name, ok := unitNameChain.Extract(item); ok {
			unit.Name = name
		}
		if format, ok := unitFormatChain.Extract(item); ok {
			unit.Format = format
		}
		if status, ok := unitStatusChain.Extract(item); ok {
			unit.Status = status
		}
		units = append(units, unit)
	}
	return units, nil
}

// CreateUnit posts a one-element array: the console's ad unit endpoint only
// accepts batches.
func (a *adapter) CreateUnit(ctx context.Context, payload map[string]interface{}, appID string) adapters.NormalizedResult {
	if appID == "" {
		return adapters.ResultFromError(&errortypes.BadInput{Message: "ironsource: app key is required to create an ad unit"})
	}
	for _, required := range []string{"mediationAdUnitName", "adFormat"} {
		if value, ok := payload[required].(string); !ok || value == "" {
			return adapters.ResultFromError(&errortypes.BadInput{
				Message: fmt.Sprintf("ironsource: %s is required", required),
			})
		}
	}

	body, err := json.Marshal([]map[string]interface{}{payload})
	if err != nil {
		return adapters.ResultFromError(&errortypes.BadInput{Message: fmt.Sprintf("ironsource: encode ad unit payload: %v", err)})
	}

	resp, err := a.postJSON(ctx, a.baseURL+unitsPath+url.PathEscape(appID), body)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if err := adapters.StatusError(a.Name(), resp); err != nil {
		result := adapters.ResultFromError(err)
		result.Raw = resp.Body
		return result
	}

	created := extract.Envelope(resp.Body, "adUnits", "data", "list")
	if items, err := adapters.RawItems(created); err == nil && len(items) > 0 {
		created = items[0]
	}

	id, ok := unitIDChain.Extract(created)
	if !ok {
		result := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "ironsource: create ad unit response carries no unit id",
		})
		result.Raw = resp.Body
		return result
	}
	return adapters.SuccessResult(map[string]interface{}{"unit_id": id, "app_id": appID}, resp.Body)
}

func (a *adapter) postJSON(ctx context.Context, endpoint string, body []byte) (*adapters.ResponseData, error) {
	return adapters.DoAuthorized(ctx, a.client, a.Name(), a.provider, func(cred auth.Credential) (*adapters.RequestData, error) {
		headers := http.Header{}
		headers.Set("Content-Type", "application/json")
		return &adapters.RequestData{
			Method:  http.MethodPost,
			URL:     endpoint,
			Body:    body,
			Headers: headers,
		}, nil
	})
}
