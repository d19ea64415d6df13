// Package bigoads manages apps and slots on the BigoAds developer console.
// Every call is a signed POST: the developer id and a per-request SHA-1
// signature travel as headers, and listings page through numbered pages
// until the reported total is collected.
package bigoads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/extract"
	"github.com/SC-Dawoony/ad-network-hub-sub000/auth"
	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

const (
	defaultBaseURL = "https://www.bigossp.com"

	appsListPath   = "/open/app/list"
	appCreatePath  = "/open/app/add"
	slotsListPath  = "/open/slot/list"
	slotCreatePath = "/open/slot/add"

	developerIDHeader = "X-BIGO-DeveloperId"
	signHeader        = "X-BIGO-Sign"

	pageSize = 50
)

var (
	codeChain    = extract.NewChain("code")
	statusChain  = extract.NewChain("status")
	messageChain = extract.NewChain("msg", "message")
	totalChain   = extract.NewChain("result.total", "total")

	appCodeChain     = extract.NewChain("appCode", "appId", "id")
	appNumericChain  = extract.NewChain("appId")
	appNameChain     = extract.NewChain("name", "appName")
	appPackageChain  = extract.NewChain("pkgNameDisplay", "pkgName", "packageName")
	appPlatformChain = extract.NewChain("platform", "os")

	slotIDChain     = extract.NewChain("slotCode", "slotId", "id")
	slotNameChain   = extract.NewChain("slotName", "name")
	slotFormatChain = extract.NewChain("adType", "type")
	slotAppChain    = extract.NewChain("appCode", "appId")
	slotStatusChain = extract.NewChain("status")
)

type adapter struct {
	baseURL   string
	client    *http.Client
	validator adapters.ParamsValidator

	developerID string
	token       string
}

// Builder assembles the BigoAds adapter. The console authenticates each
// request through signed headers, so no credential provider is returned.
func Builder(cfg config.Network, deps adapters.BuilderDeps) (adapters.Adapter, auth.Provider, error) {
	baseURL := defaultBaseURL
	if cfg.Endpoint != "" {
		baseURL = cfg.Endpoint
	}
	return &adapter{
		baseURL:     baseURL,
		client:      deps.Client,
		validator:   deps.Validator,
		developerID: cfg.DeveloperID,
		token:       cfg.Token,
	}, nil, nil
}

func (a *adapter) Name() string { return "bigoads" }

// signedHeaders rebuilds the developer signature once the held context goes
// stale. The signature embeds its own millisecond timestamp, so the server
// checks freshness from the sign header alone.
func (a *adapter) signedHeaders(sc *auth.SigningContext) (map[string]string, error) {
	if a.developerID == "" || a.token == "" {
		return nil, &errortypes.ConfigError{Message: "bigoads: developer id and token are required"}
	}
	if sc.Stale(time.Now()) {
		*sc = auth.NewDeveloperSHA1Context(a.developerID, a.token, time.Now())
	}
	return map[string]string{
		developerIDHeader: a.developerID,
		signHeader:        sc.Sign,
	}, nil
}

func (a *adapter) ListApps(ctx context.Context, filter adapters.Filter) ([]adapters.App, error) {
	var sc auth.SigningContext
	items, err := adapters.CollectNumberedPages(ctx, a.Name(), func(ctx context.Context, pageNo int) ([]json.RawMessage, int, error) {
		body, err := a.post(ctx, &sc, appsListPath, map[string]interface{}{
			"pageNo":   pageNo,
			"pageSize": pageSize,
		})
		if err != nil {
			return nil, 0, err
		}
		if !bodySuccess(body) {
			return nil, 0, listRejected(a.Name(), "list apps", body)
		}
		return pageItems(body)
	})
	if err != nil {
		return nil, err
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

func (a *adapter) CreateApp(ctx context.Context, payload map[string]interface{}) adapters.NormalizedResult {
	callerBody, err := adapters.BuildPayload(nil, payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if err := a.validator.Validate(a.Name(), callerBody); err != nil {
		return adapters.ResultFromError(err)
	}

	var sc auth.SigningContext
	// The console rejects explicit nulls, so unset optional keys are
	// dropped rather than transmitted.
	body, err := a.post(ctx, &sc, appCreatePath, adapters.StripNulls(payload))
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if !bodySuccess(body) {
		return upstreamFailure(a.Name(), body)
	}

	result := extract.Envelope(body, "result", "data")
	appCode, ok := appCodeChain.ExtractFrom(result, body)
	if !ok {
		failed := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "bigoads: create app response carries no app code",
		})
		failed.Raw = body
		return failed
	}

	data := map[string]interface{}{"app_code": appCode, "app_id": appCode}
	if numeric, ok := appNumericChain.ExtractFrom(result, body); ok {
		data["app_id"] = numeric
	}
	return adapters.SuccessResult(data, body)
}

func (a *adapter) ListUnits(ctx context.Context, appID string) ([]adapters.Unit, error) {
	if appID == "" {
		return nil, &errortypes.BadInput{Message: "bigoads: app code is required to list slots"}
	}

	var sc auth.SigningContext
	items, err := adapters.CollectNumberedPages(ctx, a.Name(), func(ctx context.Context, pageNo int) ([]json.RawMessage, int, error) {
		body, err := a.post(ctx, &sc, slotsListPath, map[string]interface{}{
			"appCode":  appID,
			"pageNo":   pageNo,
			"pageSize": pageSize,
		})
		if err != nil {
			return nil, 0, err
		}
		if !bodySuccess(body) {
			return nil, 0, listRejected(a.Name(), "list slots", body)
		}
		return pageItems(body)
	})
	if err != nil {
		return nil, err
	}

	units := make([]adapters.Unit, 0, len(items))
	for _, item := range items {
		unit := adapters.Unit{AppID: appID}
		if id, ok := slotIDChain.Extract(item); ok {
			unit.ID = id
		}
		if name, ok := slotNameChain.Extract(item); ok {
			unit.Name = name
		}
		if format, ok := slotFormatChain.Extract(item); ok {
			unit.Format = format
		}
		if status, ok := slotStatusChain.Extract(item); ok {
			unit.Status = status
		}
		if owner, ok := slotAppChain.Extract(item); ok {
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

	request := adapters.StripNulls(payload)
	if appID != "" && !hasField(request, "appCode") && !hasField(request, "appId") {
		request["appCode"] = appID
	}

	var sc auth.SigningContext
	body, err := a.post(ctx, &sc, slotCreatePath, request)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if !bodySuccess(body) {
		return upstreamFailure(a.Name(), body)
	}

	result := extract.Envelope(body, "result", "data")
	slotID, ok := slotIDChain.ExtractFrom(result, body)
	if !ok {
		failed := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "bigoads: create slot response carries no slot code",
		})
		failed.Raw = body
		return failed
	}

	appRef := appID
	if owner, ok := slotAppChain.ExtractFrom(result, body); ok {
		appRef = owner
	}
	return adapters.SuccessResult(map[string]interface{}{"unit_id": slotID, "app_id": appRef}, body)
}

// pageItems splits one page body into its items and the reported total. A
// success body without the list is a complete empty listing.
func pageItems(body []byte) ([]json.RawMessage, int, error) {
	section := extract.Envelope(body, "result.list", "list", "data")
	if bytes.Equal(section, body) {
		return nil, 0, nil
	}
	items, err := adapters.RawItems(section)
	if err != nil {
		return nil, 0, &errortypes.UpstreamError{Message: fmt.Sprintf("bigoads: parse list response: %v", err)}
	}
	total := len(items)
	if reported, ok := totalChain.Extract(body); ok {
		if parsed, err := strconv.Atoi(reported); err == nil {
			total = parsed
		}
	}
	return items, total, nil
}

func parseApp(item json.RawMessage) adapters.App {
	app := adapters.App{Name: "Unknown"}
	if code, ok := appCodeChain.Extract(item); ok {
		app.ID = code
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
	// The account-scoped numeric id rides along next to the appCode;
	// downstream flows need both.
	if numeric, ok := appNumericChain.Extract(item); ok && numeric != app.ID {
		app.Extra = map[string]string{"appId": numeric}
	}
	return app
}

// bodySuccess reads the console's verdict: code "100" (their accepted code)
// or a literal zero in code or status.
func bodySuccess(body []byte) bool {
	if code, ok := codeChain.Extract(body); ok && (code == "100" || code == "0") {
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

func listRejected(network, op string, body []byte) error {
	message, _ := messageChain.Extract(body)
	return &errortypes.UpstreamError{
		Message: fmt.Sprintf("%s: %s rejected: %s", network, op, message),
	}
}

func (a *adapter) post(ctx context.Context, sc *auth.SigningContext, path string, request map[string]interface{}) ([]byte, error) {
	signed, err := a.signedHeaders(sc)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("bigoads: encode request: %v", err)}
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	for key, value := range signed {
		headers.Set(key, value)
	}
	resp, err := adapters.Do(ctx, a.client, a.Name(), &adapters.RequestData{
		Method:  http.MethodPost,
		URL:     a.baseURL + path,
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
	if s, isString := value.(string); isString && s == "" {
		return false
	}
	return true
}
