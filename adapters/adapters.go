// Package adapters defines the uniform contract every ad network
// implementation satisfies, plus the wire plumbing they share: one HTTP
// transport stack, identifier extraction chains, payload building, schema
// validation and pagination.
//
// Each network lives in its own sub-package and exposes a Builder the
// registry calls with that network's configuration. Adapters translate the
// hub's domain payloads into each console's REST dialect and fold every
// response back into the one normalized shape.
package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/SC-Dawoony/ad-network-hub-sub000/credstore"
	"github.com/SC-Dawoony/ad-network-hub-sub000/metrics"
)

// Canonical platform identifiers. Every adapter maps its network's own
// vocabulary (numeric codes, upper-case names) onto these two values.
const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
)

// NormalizePlatform maps the many spellings the networks and callers use
// onto the canonical pair. The second return is false for values that name
// neither platform.
func NormalizePlatform(value string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "android", "and", "aos", "1", "googleplay", "google_play":
		return PlatformAndroid, true
	case "ios", "iphone", "2", "appstore", "app_store":
		return PlatformIOS, true
	}
	return "", false
}

// App is one application registered with an ad network. ID is the network's
// canonical identifier and is opaque and network-scoped; Extra carries the
// network's secondary identifiers (ironsource appKey, bigoads numeric
// appId, vungle default placement) keyed by their upstream field names.
type App struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Platform    string            `json:"platform,omitempty"`
	PackageName string            `json:"package_name,omitempty"`
	StoreURL    string            `json:"store_url,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Unit is one ad placement under an app. Format stays in the network's own
// vocabulary; reconciliation maps caller formats through its tables before
// comparing.
type Unit struct {
	ID     string `json:"id"`
	AppID  string `json:"app_id,omitempty"`
	Name   string `json:"name"`
	Format string `json:"format,omitempty"`
	Status string `json:"status,omitempty"`
}

// Filter narrows a ListApps call. Zero values mean no filtering; adapters
// ignore fields their network cannot express.
type Filter struct {
	Platform string
	Status   string
}

// Adapter is one network's implementation of the app/unit contract.
//
// CreateApp and CreateUnit never return a Go error: every failure is folded
// into the NormalizedResult so batch flows can record it and move on. The
// list operations return typed slices and fail as a whole; a pagination
// error mid-listing aborts the call rather than returning a partial list.
type Adapter interface {
	Name() string
	ListApps(ctx context.Context, filter Filter) ([]App, error)
	CreateApp(ctx context.Context, payload map[string]interface{}) NormalizedResult
	ListUnits(ctx context.Context, appID string) ([]Unit, error)
	CreateUnit(ctx context.Context, payload map[string]interface{}, appID string) NormalizedResult
}

// BuilderDeps carries the shared machinery the registry hands every
// network builder. Metrics is consumed by the registry's decorators, not
// the builders themselves; nil means no recording.
type BuilderDeps struct {
	Client    *http.Client
	Validator ParamsValidator
	Store     credstore.Store
	Metrics   metrics.Engine
}

// RawItems decodes a JSON array into its elements. Helper for list parsing
// where each element then runs through the extraction chains.
func RawItems(data []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}
