package admob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/extract"
	"github.com/SC-Dawoony/ad-network-hub-sub000/auth"
	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

const (
	defaultBaseURL  = "https://admob.googleapis.com"
	defaultTokenURL = "https://oauth2.googleapis.com/token"

	pageSize = "100"
)

var (
	appIDChain       = extract.NewChain("appId", "name")
	appNameChain     = extract.NewChain("manualAppInfo.displayName", "linkedAppInfo.displayName", "name")
	appStoreIDChain  = extract.NewChain("linkedAppInfo.appStoreId")
	appPlatformChain = extract.NewChain("platform")

	unitIDChain     = extract.NewChain("adUnitId", "name")
	unitNameChain   = extract.NewChain("displayName", "name")
	unitFormatChain = extract.NewChain("adFormat", "format")
	unitAppChain    = extract.NewChain("appId")

	nextTokenChain = extract.NewChain("nextPageToken")
)

type adapter struct {
	baseURL   string
	account   string
	client    *http.Client
	provider  auth.Provider
	validator adapters.ParamsValidator
}

// Builder builds the AdMob adapter and its token-exchange provider. An
// endpoint override redirects the token exchange too, so a staging console
// stays self-contained.
func Builder(cfg config.Network, deps adapters.BuilderDeps) (adapters.Adapter, auth.Provider, error) {
	baseURL := cfg.Endpoint
	tokenURL := defaultTokenURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	} else {
		tokenURL = baseURL + "/oauth2/token"
	}

	provider := auth.NewOAuthProvider(auth.OAuthConfig{
		Network:      "admob",
		TokenURL:     tokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RefreshToken: cfg.RefreshToken,
	}, deps.Client, deps.Store)

	return &adapter{
		baseURL:   baseURL,
		account:   accountPath(cfg.AccountID),
		client:    deps.Client,
		provider:  provider,
		validator: deps.Validator,
	}, provider, nil
}

// accountPath canonicalizes the publisher id into the accounts/pub-... form
// every resource path hangs off.
func accountPath(accountID string) string {
	if accountID == "" || strings.HasPrefix(accountID, "accounts/") {
		return accountID
	}
	return "accounts/" + accountID
}

func (a *adapter) Name() string {
	return "admob"
}

func (a *adapter) accountOrError() (string, error) {
	if a.account == "" {
		return "", &errortypes.ConfigError{Message: "admob: account id is required (pub-... or accounts/pub-...)"}
	}
	return a.account, nil
}

func (a *adapter) ListApps(ctx context.Context, filter adapters.Filter) ([]adapters.App, error) {
	account, err := a.accountOrError()
	if err != nil {
		return nil, err
	}

	items, err := adapters.CollectTokenPages(ctx, a.Name(), func(ctx context.Context, pageToken string) ([]json.RawMessage, string, error) {
		return a.fetchPage(ctx, fmt.Sprintf("%s/v1/%s/apps", a.baseURL, account), "apps", pageToken)
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

func parseApp(item json.RawMessage) adapters.App {
	app := adapters.App{Name: "Unknown"}
	if id, ok := appIDChain.Extract(item); ok {
		app.ID = id
	}
	if name, ok := appNameChain.Extract(item); ok {
		app.Name = name
	}
	if storeID, ok := appStoreIDChain.Extract(item); ok {
		app.PackageName = storeID
	}
	if platform, ok := appPlatformChain.Extract(item); ok {
		if normalized, ok := adapters.NormalizePlatform(platform); ok {
			app.Platform = normalized
		}
	}
	return app
}

func (a *adapter) CreateApp(ctx context.Context, payload map[string]interface{}) adapters.NormalizedResult {
	account, err := a.accountOrError()
	if err != nil {
		return adapters.ResultFromError(err)
	}

	body, err := adapters.BuildPayload(nil, payload)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if err := a.validator.Validate(a.Name(), body); err != nil {
		return adapters.ResultFromError(err)
	}

	resp, err := a.postJSON(ctx, fmt.Sprintf("%s/v1/%s/apps", a.baseURL, account), body)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if err := adapters.StatusError(a.Name(), resp); err != nil {
		result := adapters.ResultFromError(err)
		result.Raw = resp.Body
		return result
	}

	id, ok := appIDChain.Extract(resp.Body)
	if !ok {
		result := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "admob: create app response carries no app id",
		})
		result.Raw = resp.Body
		return result
	}

	data := map[string]interface{}{"app_id": id}
	if platform, ok := appPlatformChain.Extract(resp.Body); ok {
		data["platform"] = platform
	}
	return adapters.SuccessResult(data, resp.Body)
}

// ListUnits lists the account's ad units; the console has no per-app
// listing, so the appId filter is applied locally.
func (a *adapter) ListUnits(ctx context.Context, appID string) ([]adapters.Unit, error) {
	account, err := a.accountOrError()
	if err != nil {
		return nil, err
	}

	items, err := adapters.CollectTokenPages(ctx, a.Name(), func(ctx context.Context, pageToken string) ([]json.RawMessage, string, error) {
		return a.fetchPage(ctx, fmt.Sprintf("%s/v1/%s/adUnits", a.baseURL, account), "adUnits", pageToken)
	})
	if err != nil {
		return nil, err
	}

	units := make([]adapters.Unit, 0, len(items))
	for _, item := range items {
		owner, _ := unitAppChain.Extract(item)
		if appID != "" && owner != appID {
			continue
		}

		unit := adapters.Unit{AppID: owner}
		if unit.AppID == "" {
			unit.AppID = appID
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

// CreateUnit registers a bidding ad unit through the batch endpoint. The
// app reference may come in the payload as appId or appStoreId; the path
// appID fills in only when the payload names neither.
func (a *adapter) CreateUnit(ctx context.Context, payload map[string]interface{}, appID string) adapters.NormalizedResult {
	account, err := a.accountOrError()
	if err != nil {
		return adapters.ResultFromError(err)
	}

	unit := make(map[string]interface{}, len(payload)+1)
	for key, value := range payload {
		unit[key] = value
	}
	if !hasField(unit, "appId") && !hasField(unit, "appStoreId") {
		if appID == "" {
			return adapters.ResultFromError(&errortypes.BadInput{
				Message: "admob: appId or appStoreId is required",
			})
		}
		unit["appId"] = appID
	}

	body, err := json.Marshal(map[string]interface{}{
		"requests": []map[string]interface{}{{"googleBiddingAdUnit": unit}},
	})
	if err != nil {
		return adapters.ResultFromError(&errortypes.BadInput{Message: fmt.Sprintf("admob: encode ad unit payload: %v", err)})
	}

	resp, err := a.postJSON(ctx, fmt.Sprintf("%s/v1alpha/%s/googleBiddingAdUnits:batchCreate", a.baseURL, account), body)
	if err != nil {
		return adapters.ResultFromError(err)
	}
	if err := adapters.StatusError(a.Name(), resp); err != nil {
		result := adapters.ResultFromError(err)
		result.Raw = resp.Body
		return result
	}

	created := extract.Envelope(resp.Body, "googleBiddingAdUnits")
	if items, err := adapters.RawItems(created); err == nil && len(items) > 0 {
		created = items[0]
	}

	id, ok := unitIDChain.Extract(created)
	if !ok {
		result := adapters.ResultFromError(&errortypes.IdentifierNotFound{
			Message: "admob: create ad unit response carries no unit id",
		})
		result.Raw = resp.Body
		return result
	}

	data := map[string]interface{}{"unit_id": id}
	if owner, ok := unitAppChain.Extract(created); ok {
		data["app_id"] = owner
	} else if appID != "" {
		data["app_id"] = appID
	}
	return adapters.SuccessResult(data, resp.Body)
}

func hasField(payload map[string]interface{}, key string) bool {
	value, ok := payload[key]
	if !ok || value == nil {
		return false
	}
	text, isString := value.(string)
	return !isString || text != ""
}

// fetchPage gets one page and returns its items plus the next page token.
// A page without the list key is an empty page, not an error.
func (a *adapter) fetchPage(ctx context.Context, endpoint, listKey, pageToken string) ([]json.RawMessage, string, error) {
	query := url.Values{}
	query.Set("pageSize", pageSize)
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	resp, err := adapters.DoAuthorized(ctx, a.client, a.Name(), a.provider, func(cred auth.Credential) (*adapters.RequestData, error) {
		return &adapters.RequestData{Method: http.MethodGet, URL: endpoint + "?" + query.Encode()}, nil
	})
	if err != nil {
		return nil, "", err
	}
	if err := adapters.StatusError(a.Name(), resp); err != nil {
		return nil, "", err
	}

	var items []json.RawMessage
	if section := extract.Envelope(resp.Body, listKey); !bytes.Equal(section, resp.Body) {
		if items, err = adapters.RawItems(section); err != nil {
			return nil, "", &errortypes.UpstreamError{Message: fmt.Sprintf("admob: parse %s page: %v", listKey, err)}
		}
	}
	nextToken, _ := nextTokenChain.Extract(resp.Body)
	return items, nextToken, nil
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
