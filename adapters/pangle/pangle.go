package pangle

import (
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

const defaultBaseURL = "https://open-api.pangleglobal.com"

const (
	sitesListPath  = "/union/media/open_api/site/list"
	siteCreatePath = "/union/media/open_api/site/create"
	codesListPath  = "/union/media/open_api/code/list"
	codeCreatePath = "/union/media/open_api/code/create"

	// Every request carries the fixed protocol version; site creation also
	// pins status 2, the console's "live" state.
	apiVersion = "1.0"
	liveStatus = 2
)

var (
	codeChain    = extract.NewChain("code")
	retCodeChain = extract.NewChain("ret_code")
	messageChain = extract.NewChain("message", "msg")

	siteIDChain       = extract.NewChain("site_id", "app_id", "id")
	siteNameChain     = extract.NewChain("app_name", "name")
	sitePackageChain  = extract.NewChain("package_name", "package")
	sitePlatformChain = extract.NewChain("os", "platform")

	unitIDChain     = extract.NewChain("code_id", "ad_unit_id", "id")
	unitNameChain   = extract.NewChain("ad_placement_name", "code_name", "name")
	unitFormatChain = extract.NewChain("ad_slot_type", "ad_placement_type", "format")
	unitStatusChain = extract.NewChain("status")
)

type adapter struct {
	baseURL     string
	client      *http.Client
	validator   adapters.ParamsValidator
	securityKey string
	userID      string
	roleID      string
}

// Builder builds the Pangle adapter. The network signs each request body
// instead of holding a session, so there is no credential provider.
func Builder(cfg config.Network, deps adapters.BuilderDeps) (adapters.Adapter, auth.Provider, error) {
	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &adapter{
		baseURL:     baseURL,
		client:      deps.Client,
		validator:   deps.Validator,
		securityKey: cfg.SecretKey,
		userID:      cfg.UserID,
		roleID:      cfg.RoleID,
	}, nil, nil
}

func (a *adapter) Name() string {
	return "pangle"
}

// authParams builds the signed parameter block every request body carries.
// The signing context is rebuilt when it has gone stale, so a slow
// multi-request operation never transmits an aged signature.
func (a *adapter) authParams(sc *auth.SigningContext, userID, roleID string) (map[string]interface{}, error) {
	if a.securityKey == "" {
		return nil, &errortypes.ConfigError{Message: "pangle: security key is required"}
	}
	if userID == "" || roleID == "" {
		return nil, &errortypes.ConfigError{Message: "pangle: user id and role id are required"}
	}
	user, err := strconv.Atoi(userID)
	if err != nil {
		return nil, &errortypes.ConfigError{Message: "pangle: user id must be an integer"}
	}
	role, err := strconv.Atoi(roleID)
	if err != nil {
		return nil, &errortypes.ConfigError{Message: "pangle: role id must be an integer"}
	}

	if now := time.Now(); sc.Stale(now) {
		*sc = auth.NewSortedSHA1Context(a.securityKey, now)
	}
	timestamp, _ := strconv.ParseInt(sc.Timestamp, 10, 64)
	nonce, _ := strconv.Atoi(sc.Nonce)

	return map[string]interface{}{
		"user_id":   user,
		"role_id":   role,
		"timestamp": timestamp,
		"nonce":     nonce,
		"sign":      sc.Sign,
		"version":   apiVersion,
	}, nil
}

// bodySuccess checks the body-level convention: HTTP 200 still fails unless
// code or ret_code equals zero.
func bodySuccess(body []byte) bool {
	if code, ok := codeChain.Extract(body); ok && code == "0" {
		return true
	}
	if code, ok := retCodeChain.Extract(body); ok && code == "0" {
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
		code = "error"
	}
	message, ok := messageChain.Extract(body)
	if !ok {
		message = fmt.Sprintf("%s: request rejected", network)
	}
	return adapters.UpstreamFailure(code, message, body)
}

func (a *adapter) ListApps(ctx context.Context, filter adapters.Filter) ([]adapters.App, error) {
	var sc auth.SigningContext
	params, err := a.authParams(&sc, a.userID, a.roleID)
	if err != nil {
		return nil, err
	}

	body, err := a.post(ctx, a.baseURL+sitesListPath, params)
	if err != nil {
		return nil, err
	}
	if !bodySuccess(body) {
		message, _ := messageChain.Extract(body)
		return nil, &errortypes.UpstreamError{
			Message: fmt.Sprintf("pangle: list sites rejected: %s", message),
		}
	}

	items, err := adapters.RawItems(extract.Envelope(body, "data.sites", "data.list", "sites", "data"))
	if err != nil {
		return nil, &errortypes.UpstreamError{Message: fmt.Sprintf("pangle: parse sites response: %v", err)}
	}

	apps := make([]adapters.App, 0, len(items))
	for _, item := range items {
		app := adapters.App{}
		if id, ok := siteIDChain.Extract(item); ok {
			app.ID = id
		}
		if name, ok := siteNameChain.Extract(item); ok {
			app.Name = name
		}
		if pkg, ok := sitePackageChain.Extract(item); ok {
			app.PackageName = pkg
		}
		if platform, ok := sitePlatformChain.Extract(item); ok {
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

	// The caller may override the configured identity pair per request.
	userID := a.userID
	if override := fieldString(payload, "user_id"); override != "" {
		userID = override
	}
	roleID := a.roleID
	if override := fieldString(payload, "role_id"); override != "" {
		roleID = override
	}

	var sc auth.SigningContext
	params, err := a.authParams(&sc, userID, roleID)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	params["status"] = liveStatus

	request := make(map[string]interface{}, len(payload)+len(params))
	for key, value := range payload {
		request[key] = value
	}
	delete(request, "user_id")
	delete(request, "role_id")
	for key, value := range params {
		request[key] = value
	}

	body, err := a.post(ctx, a.baseURL+siteCreatePath, request)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if !bodySuccess(body) {
		return upstreamFailure(a.Name(), body)
	}

	data := extract.Envelope(body, "data")
	id, ok := siteIDChain.ExtractFrom(data, body)
	if !ok {
		result := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "pangle: create site response carries no site id",
		})
		result.Raw = body
		return result
	}
	return adapters.SuccessResult(map[string]interface{}{"app_id": id, "site_id": id}, body)
}

func (a *adapter) ListUnits(ctx context.Context, appID string) ([]adapters.Unit, error) {
	if appID == "" {
		return nil, &errortypes.BadInput{Message: "pangle: site id is required to list placements"}
	}

	var sc auth.SigningContext
	params, err := a.authParams(&sc, a.userID, a.roleID)
	if err != nil {
		return nil, err
	}
	params["site_id"] = numericID(appID)

	body, err := a.post(ctx, a.baseURL+codesListPath, params)
	if err != nil {
		return nil, err
	}
	if !bodySuccess(body) {
		message, _ := messageChain.Extract(body)
		return nil, &errortypes.UpstreamError{
			Message: fmt.Sprintf("pangle: list placements rejected: %s", message),
		}
	}

	items, err := adapters.RawItems(extract.Envelope(body, "data.codes", "data.list", "codes", "data"))
	if err != nil {
		return nil, &errortypes.UpstreamError{Message: fmt.Sprintf("pangle: parse placements response: %v", err)}
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

// CreateUnit renames the hub's ad_placement_type to the console's
// ad_slot_type before sending.
func (a *adapter) CreateUnit(ctx context.Context, payload map[string]interface{}, appID string) adapters.NormalizedResult {
	var sc auth.SigningContext
	params, err := a.authParams(&sc, a.userID, a.roleID)
	if err != nil {
		return adapters.ResultFromError(err)
	}

	request := make(map[string]interface{}, len(payload)+len(params)+1)
	for key, value := range payload {
		request[key] = value
	}
	if placementType, ok := request["ad_placement_type"]; ok {
		request["ad_slot_type"] = placementType
		delete(request, "ad_placement_type")
	}
	if !hasField(request, "site_id") {
		if appID == "" {
			return adapters.ResultFromError(&errortypes.BadInput{Message: "pangle: site id is required"})
		}
		request["site_id"] = numericID(appID)
	}
	for key, value := range params {
		request[key] = value
	}

	body, err := a.post(ctx, a.baseURL+codeCreatePath, request)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if !bodySuccess(body) {
		return upstreamFailure(a.Name(), body)
	}

	data := extract.Envelope(body, "data")
	id, ok := unitIDChain.ExtractFrom(data, body)
	if !ok {
		result := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "pangle: create placement response carries no code id",
		})
		result.Raw = body
		return result
	}
	return adapters.SuccessResult(map[string]interface{}{"unit_id": id, "app_id": appID}, body)
}

func (a *adapter) post(ctx context.Context, endpoint string, request map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("pangle: encode request: %v", err)}
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

// fieldString renders a payload field as its string form; JSON numbers come
// back as float64.
func fieldString(payload map[string]interface{}, key string) string {
	switch value := payload[key].(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	}
	return ""
}

func hasField(payload map[string]interface{}, key string) bool {
	value, ok := payload[key]
	if !ok || value == nil {
		return false
	}
	text, isString := value.(string)
	return !isString || text != ""
}

// numericID sends numeric identifiers as JSON numbers, matching the
// console's schema, and falls back to the raw string otherwise.
func numericID(id string) interface{} {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
