package mintegral

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/extract"
	"github.com/SC-Dawoony/ad-network-hub-sub000/auth"
	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

const defaultBaseURL = "https://dev.mintegral.com"

const (
	appsListPath   = "/app/open_api_list"
	appCreatePath  = "/app/open_api_create"
	unitsListPath  = "/v2/placement/open_api_list"
	unitCreatePath = "/v2/placement/open_api_create"
)

var (
	codeChain    = extract.NewChain("code")
	retCodeChain = extract.NewChain("ret_code")
	statusChain  = extract.NewChain("status")
	messageChain = extract.NewChain("msg", "message", "error")

	appIDChain       = extract.NewChain("app_id", "id", "appId")
	appNameChain     = extract.NewChain("app_name", "name")
	appPackageChain  = extract.NewChain("package_name", "package", "bundle_id")
	appPlatformChain = extract.NewChain("platform", "os")

	unitIDChain     = extract.NewChain("placement_id", "id")
	unitNameChain   = extract.NewChain("placement_name", "name")
	unitFormatChain = extract.NewChain("ad_type", "format")
	unitAppChain    = extract.NewChain("app_id")
)

type adapter struct {
	baseURL   string
	client    *http.Client
	validator adapters.ParamsValidator
	skey      string
	secret    string

	// The console rejects bursts, so all traffic is paced through one
	// shared limiter at a fixed request per second.
	limiter *rate.Limiter
}

// Builder builds the Mintegral adapter. Doubly hashed signatures ride in
// the request itself, so there is no credential provider.
func Builder(cfg config.Network, deps adapters.BuilderDeps) (adapters.Adapter, auth.Provider, error) {
	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &adapter{
		baseURL:   baseURL,
		client:    deps.Client,
		validator: deps.Validator,
		skey:      cfg.APIKey,
		secret:    cfg.SecretKey,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
	}, nil, nil
}

func (a *adapter) Name() string {
	return "mintegral"
}

// authTriple returns the skey, timestamp and sign every request carries.
func (a *adapter) authTriple(sc *auth.SigningContext) (skey, timestamp, sign string, err error) {
	if a.skey == "" || a.secret == "" {
		return "", "", "", &errortypes.ConfigError{Message: "mintegral: skey and secret are required"}
	}
	if now := time.Now(); sc.Stale(now) {
		*sc = auth.NewDoubleMD5Context(a.secret, now)
	}
	return a.skey, sc.Timestamp, sc.Sign, nil
}

func (a *adapter) wait(ctx context.Context) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return &errortypes.TransportError{Message: fmt.Sprintf("mintegral: request pacing interrupted: %v", err)}
	}
	return nil
}

// listSuccess checks the body-level convention for reads: a code field, when
// present, must be 0 or 200.
func listSuccess(body []byte) bool {
	code, ok := codeChain.Extract(body)
	return !ok || code == "0" || code == "200"
}

// createUnitSuccess is stricter: the console must confirm with one of
// code, ret_code or status equal to zero.
func createUnitSuccess(body []byte) bool {
	if code, ok := codeChain.Extract(body); ok && code == "0" {
		return true
	}
	if code, ok := retCodeChain.Extract(body); ok && code == "0" {
		return true
	}
	if status, ok := statusChain.Extract(body); ok && status == "0" {
		return true
	}
	return false
}

func upstreamFailure(network string, body []byte) adapters.NormalizedResult {
	code, ok := codeChain.Extract(body)
	if !ok {
		code, ok = retCodeChain.Extract(body)
	}
	if !ok {
		code, ok = statusChain.Extract(body)
	}
	if !ok {
		code = "error"
	}
	message, ok := messageChain.Extract(body)
	if !ok {
		message = fmt.Sprintf("%s: request rejected", network)
	}
	return adapters.UpstreamFailure(code, message, body)
}

func (a *adapter) ListApps(ctx context.Context, filter adapters.Filter) ([]adapters.App, error) {
	body, err := a.get(ctx, a.baseURL+appsListPath, nil)
	if err != nil {
		return nil, err
	}
	if !listSuccess(body) {
		message, _ := messageChain.Extract(body)
		return nil, &errortypes.UpstreamError{
			Message: fmt.Sprintf("mintegral: list apps rejected: %s", message),
		}
	}

	items, err := adapters.RawItems(extract.Envelope(body, "data.list", "data.apps", "list", "data"))
	if err != nil {
		return nil, &errortypes.UpstreamError{Message: fmt.Sprintf("mintegral: parse apps response: %v", err)}
	}

	apps := make([]adapters.App, 0, len(items))
	for _, item := range items {
		app := adapters.App{}
		if id, ok := appIDChain.Extract(item); ok {
			app.ID = id
		}
		if name, ok := appNameChain.Extract(item); ok {
			app.Name = name
		}
		if pkg, ok := appPackageChain.Extract(item); ok {
			app.PackageName = pkg
		}
		if platform, ok := appPlatformChain.Extract(item); ok {
			if normalized, ok := adapters.NormalizePlatform(platform); ok {
				app.Platform = normalized
			}
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

	body, err := a.postSigned(ctx, a.baseURL+appCreatePath, payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if !listSuccess(body) {
		return upstreamFailure(a.Name(), body)
	}

	id, ok := appIDChain.ExtractFrom(
		extract.Envelope(body, "result"),
		extract.Envelope(body, "data"),
		body,
	)
	if !ok {
		result := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "mintegral: create app response carries no app id",
		})
		result.Raw = body
		return result
	}
	return adapters.SuccessResult(map[string]interface{}{"app_id": id}, body)
}

func (a *adapter) ListUnits(ctx context.Context, appID string) ([]adapters.Unit, error) {
	if appID == "" {
		return nil, &errortypes.BadInput{Message: "mintegral: app id is required to list placements"}
	}

	body, err := a.get(ctx, a.baseURL+unitsListPath, url.Values{"app_id": []string{appID}})
	if err != nil {
		return nil, err
	}
	if !listSuccess(body) {
		message, _ := messageChain.Extract(body)
		return nil, &errortypes.UpstreamError{
			Message: fmt.Sprintf("mintegral: list placements rejected: %s", message),
		}
	}

	items, err := adapters.RawItems(extract.Envelope(body, "data.list", "data.placements", "list", "data"))
	if err != nil {
		return nil, &errortypes.UpstreamError{Message: fmt.Sprintf("mintegral: parse placements response: %v", err)}
	}

	units := make([]adapters.Unit, 0, len(items))
	for _, item := range items {
		unit := adapters.Unit{AppID: appID}
		if owner, ok := unitAppChain.Extract(item); ok {
			unit.AppID = owner
		}
		if id, ok := unitIDChain.Extract(item); ok {
			unit.ID = id
		}
		if name, ok := unitNameChain.Extract(item); ok {
			unit.Name = name
		}
		if format, ok := unitFormatChain.Extract(item); ok {
			unit.Format = format
		}
		units = append(units, unit)
	}
	return units, nil
}

func (a *adapter) CreateUnit(ctx context.Context, payload map[string]interface{}, appID string) adapters.NormalizedResult {
	request := make(map[string]interface{}, len(payload)+1)
	for key, value := range payload {
		request[key] = value
	}
	if !hasField(request, "app_id") {
		if appID == "" {
			return adapters.ResultFromError(&errortypes.BadInput{Message: "mintegral: app id is required"})
		}
		request["app_id"] = numericID(appID)
	}

	body, err := a.postSigned(ctx, a.baseURL+unitCreatePath, request)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if !createUnitSuccess(body) {
		return upstreamFailure(a.Name(), body)
	}

	id, ok := unitIDChain.ExtractFrom(
		extract.Envelope(body, "result"),
		extract.Envelope(body, "data"),
		body,
	)
	if !ok {
		result := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "mintegral: create placement response carries no placement id",
		})
		result.Raw = body
		return result
	}
	return adapters.SuccessResult(map[string]interface{}{"unit_id": id, "app_id": appID}, body)
}

// get sends a paced GET with the auth triple in the query string.
func (a *adapter) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	var sc auth.SigningContext
	skey, timestamp, sign, err := a.authTriple(&sc)
	if err != nil {
		return nil, err
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("skey", skey)
	query.Set("timestamp", timestamp)
	query.Set("sign", sign)

	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := adapters.Do(ctx, a.client, a.Name(), &adapters.RequestData{
		Method: http.MethodGet,
		URL:    endpoint + "?" + query.Encode(),
	})
	if err != nil {
		return nil, err
	}
	if err := adapters.StatusError(a.Name(), resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// postSigned sends a paced POST with the auth triple injected into the body.
func (a *adapter) postSigned(ctx context.Context, endpoint string, payload map[string]interface{}) ([]byte, error) {
	var sc auth.SigningContext
	skey, timestamp, sign, err := a.authTriple(&sc)
	if err != nil {
		return nil, err
	}

	request := make(map[string]interface{}, len(payload)+3)
	for key, value := range payload {
		request[key] = value
	}
	request["skey"] = skey
	ts, _ := strconv.ParseInt(timestamp, 10, 64)
	request["timestamp"] = ts
	request["sign"] = sign

	body, err := json.Marshal(request)
	if err != nil {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("mintegral: encode request: %v", err)}
	}

	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	resp, err := adapters.Do(ctx, a.client, a.Name(), &adapters.RequestData{
		Method:  http.MethodPost,
		URL:     endpoint,
		Body:    body,
		Headers: headers,
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
	text, isString := value.(string)
	return !isString || text != ""
}

func numericID(id string) interface{} {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
