// Package unity manages projects and placements through the Unity Services
// monetize API. A Unity project is one logical game spanning both stores;
// listings surface one row per store game id, and placement calls address
// the project itself.
package unity

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/extract"
	"github.com/SC-Dawoony/ad-network-hub-sub000/auth"
	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

const defaultBaseURL = "https://services.api.unity.com"

var (
	projectIDChain   = extract.NewChain("id", "projectId")
	projectNameChain = extract.NewChain("name")

	googleGameChain  = extract.NewChain("stores.google.gameId")
	googleStoreChain = extract.NewChain("stores.google.storeId", "stores.google.bundleId")
	appleGameChain   = extract.NewChain("stores.apple.gameId")
	appleStoreChain  = extract.NewChain("stores.apple.storeId", "stores.apple.bundleId")

	placementIDChain     = extract.NewChain("id", "placementId")
	placementNameChain   = extract.NewChain("name")
	placementTypeChain   = extract.NewChain("adFormat", "type")
	placementStatusChain = extract.NewChain("status")
)

type adapter struct {
	baseURL      string
	organization string
	client       *http.Client
	provider     auth.Provider
	validator    adapters.ParamsValidator
}

// Builder assembles the Unity adapter. The service key pair goes out as
// basic auth on every call.
func Builder(cfg config.Network, deps adapters.BuilderDeps) (adapters.Adapter, auth.Provider, error) {
	baseURL := defaultBaseURL
	if cfg.Endpoint != "" {
		baseURL = cfg.Endpoint
	}
	basic := ""
	if cfg.APIKey != "" && cfg.SecretKey != "" {
		basic = "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.APIKey+":"+cfg.SecretKey))
	}
	provider := auth.NewStaticProvider("unity", map[string]string{"Authorization": basic})
	return &adapter{
		baseURL:      baseURL,
		organization: cfg.AccountID,
		client:       deps.Client,
		provider:     provider,
		validator:    deps.Validator,
	}, provider, nil
}

func (a *adapter) Name() string { return "unity" }

func (a *adapter) projectsPath() (string, error) {
	if a.organization == "" {
		return "", &errortypes.ConfigError{Message: "unity: organization id is required"}
	}
	return fmt.Sprintf("/monetize/v1/organizations/%s/projects", a.organization), nil
}

func (a *adapter) ListApps(ctx context.Context, filter adapters.Filter) ([]adapters.App, error) {
	path, err := a.projectsPath()
	if err != nil {
		return nil, err
	}
	body, err := a.get(ctx, path)
	if err != nil {
		return nil, err
	}

	items, err := adapters.RawItems(extract.Envelope(body, "results", "projects", "data"))
	if err != nil {
		return nil, &errortypes.UpstreamError{Message: fmt.Sprintf("unity: parse projects response: %v", err)}
	}

	var apps []adapters.App
	for _, item := range items {
		for _, app := range projectApps(item) {
			if filter.Platform != "" && app.Platform != filter.Platform {
				continue
			}
			apps = append(apps, app)
		}
	}
	return apps, nil
}

// projectApps expands one project into its per-store rows. A project
// without store entries still surfaces once under its project id.
func projectApps(item []byte) []adapters.App {
	projectID, _ := projectIDChain.Extract(item)
	name := "Unknown"
	if extracted, ok := projectNameChain.Extract(item); ok && extracted != "-" {
		name = extracted
	}

	var apps []adapters.App
	if gameID, ok := googleGameChain.Extract(item); ok {
		app := adapters.App{ID: gameID, Name: name, Platform: adapters.PlatformAndroid}
		if storeID, ok := googleStoreChain.Extract(item); ok {
			app.PackageName = storeID
		}
		if projectID != "" {
			app.Extra = map[string]string{"projectId": projectID}
		}
		apps = append(apps, app)
	}
	if gameID, ok := appleGameChain.Extract(item); ok {
		app := adapters.App{ID: gameID, Name: name, Platform: adapters.PlatformIOS}
		if storeID, ok := appleStoreChain.Extract(item); ok {
			app.PackageName = storeID
		}
		if projectID != "" {
			app.Extra = map[string]string{"projectId": projectID}
		}
		apps = append(apps, app)
	}
	if len(apps) == 0 && projectID != "" {
		apps = append(apps, adapters.App{ID: projectID, Name: name})
	}
	return apps
}

func (a *adapter) CreateApp(ctx context.Context, payload map[string]interface{}) adapters.NormalizedResult {
	callerBody, err := adapters.BuildPayload(nil, payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if err := a.validator.Validate(a.Name(), callerBody); err != nil {
		return adapters.ResultFromError(err)
	}
	path, err := a.projectsPath()
	if err != nil {
		return adapters.ResultFromError(err)
	}

	body, err := a.postJSON(ctx, path, payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}

	projectID, ok := projectIDChain.Extract(body)
	if !ok {
		failed := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "unity: create project response carries no project id",
		})
		failed.Raw = body
		return failed
	}

	// One create answers for both stores; each game id is reported so the
	// caller can record its per-platform rows.
	data := map[string]interface{}{"project_id": projectID, "app_id": projectID}
	if gameID, ok := googleGameChain.Extract(body); ok {
		data["android_game_id"] = gameID
		data["app_id"] = gameID
	}
	if gameID, ok := appleGameChain.Extract(body); ok {
		data["ios_game_id"] = gameID
	}
	return adapters.SuccessResult(data, body)
}

func (a *adapter) ListUnits(ctx context.Context, appID string) ([]adapters.Unit, error) {
	if appID == "" {
		return nil, &errortypes.BadInput{Message: "unity: project id is required to list placements"}
	}
	path, err := a.placementsPath(appID)
	if err != nil {
		return nil, err
	}

	body, err := a.get(ctx, path)
	if err != nil {
		return nil, err
	}

	items, err := adapters.RawItems(extract.Envelope(body, "results", "placements", "data"))
	if err != nil {
		return nil, &errortypes.UpstreamError{Message: fmt.Sprintf("unity: parse placements response: %v", err)}
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
			Message: "unity: project id is required to create a placement",
		})
	}
	callerBody, err := adapters.BuildPayload(nil, payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if err := a.validator.Validate(a.Name(), callerBody); err != nil {
		return adapters.ResultFromError(err)
	}
	path, err := a.placementsPath(appID)
	if err != nil {
		return adapters.ResultFromError(err)
	}

	body, err := a.postJSON(ctx, path, payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}

	placementID, ok := placementIDChain.ExtractFrom(extract.Envelope(body, "result", "data"), body)
	if !ok {
		failed := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "unity: create placement response carries no placement id",
		})
		failed.Raw = body
		return failed
	}
	return adapters.SuccessResult(map[string]interface{}{"unit_id": placementID, "app_id": appID}, body)
}

func (a *adapter) placementsPath(projectID string) (string, error) {
	base, err := a.projectsPath()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/placements", base, projectID), nil
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
