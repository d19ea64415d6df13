package endpoints

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
	"github.com/SC-Dawoony/ad-network-hub-sub000/validate"
)

// Payload keys the hub recognizes without network knowledge. Everything
// else is the JSON schema's business.
var (
	appNameKeys  = []string{"name", "appName", "app_name"}
	packageKeys  = []string{"packageName", "package_name", "pkgName"}
	storeURLKeys = []string{"storeUrl", "store_url", "download_url"}
)

// platformValues is the android/ios pair each network's create payload
// takes. Networks absent from the table take the canonical lowercase names.
var platformValues = map[string][2]interface{}{
	"ironsource": {"Android", "iOS"},
	"admob":      {"ANDROID", "IOS"},
	"mintegral":  {"ANDROID", "IOS"},
	"bigoads":    {1, 2},
}

type appsResponse struct {
	Network string         `json:"network"`
	Count   int            `json:"count"`
	Apps    []adapters.App `json:"apps"`
}

// dualPlatformResponse carries the independent per-platform outcomes of a
// split create. One store failing never rolls back the other.
type dualPlatformResponse struct {
	Android adapters.NormalizedResult `json:"android"`
	IOS     adapters.NormalizedResult `json:"ios"`
}

// NewListAppsEndpoint implements GET /networks/:network/apps. The optional
// platform and status query parameters narrow the listing where the
// network can express that.
func NewListAppsEndpoint(networks NetworkSource) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		adapter, err := networks.Get(ps.ByName("network"))
		if err != nil {
			handleError(w, err)
			return
		}

		filter := adapters.Filter{Status: r.URL.Query().Get("status")}
		if platform := r.URL.Query().Get("platform"); platform != "" {
			normalized, ok := adapters.NormalizePlatform(platform)
			if !ok {
				handleError(w, &errortypes.BadInput{Message: fmt.Sprintf("unsupported platform %q", platform)})
				return
			}
			filter.Platform = normalized
		}

		apps, err := adapter.ListApps(r.Context(), filter)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appsResponse{Network: adapter.Name(), Count: len(apps), Apps: apps})
	}
}

// NewCreateAppEndpoint implements POST /networks/:network/apps. A payload
// with platform "both" is issued as two sequential creates, Android first,
// sharing the display name; their results stay independent.
func NewCreateAppEndpoint(networks NetworkSource) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		adapter, err := networks.Get(ps.ByName("network"))
		if err != nil {
			handleError(w, err)
			return
		}
		payload, err := readPayload(r)
		if err != nil {
			handleError(w, err)
			return
		}
		if err := checkAppPayload(payload); err != nil {
			handleError(w, err)
			return
		}

		if bothPlatforms(payload) {
			pair := platformPair(adapter.Name())
			android := adapter.CreateApp(r.Context(), withPlatform(payload, pair[0]))
			ios := adapter.CreateApp(r.Context(), withPlatform(payload, pair[1]))
			writeJSON(w, http.StatusOK, dualPlatformResponse{Android: android, IOS: ios})
			return
		}

		result := adapter.CreateApp(r.Context(), payload)
		writeJSON(w, statusForResult(result), result)
	}
}

// checkAppPayload runs the local validators on the fields the hub can
// recognize. The package check only applies to Android targets; iOS bundle
// identifiers follow different rules and ride under other keys.
func checkAppPayload(payload map[string]interface{}) error {
	if name, ok := stringField(payload, appNameKeys); ok {
		if err := validate.AppName(name); err != nil {
			return err
		}
	}
	if platform, ok := payloadPlatform(payload); ok && platform == adapters.PlatformAndroid {
		if pkg, ok := stringField(payload, packageKeys); ok {
			if err := validate.PackageName(pkg); err != nil {
				return err
			}
		}
	}
	if url, ok := stringField(payload, storeURLKeys); ok {
		if err := validate.StoreURL(url); err != nil {
			return err
		}
	}
	return nil
}

// payloadPlatform resolves the payload's platform value, in whatever
// vocabulary the caller used, to the canonical pair. "both" counts as
// Android since the Android leg is built from the payload as sent.
func payloadPlatform(payload map[string]interface{}) (string, bool) {
	raw, ok := payload["platform"]
	if !ok {
		return "", false
	}
	value := fmt.Sprintf("%v", raw)
	if strings.EqualFold(value, "both") {
		return adapters.PlatformAndroid, true
	}
	return adapters.NormalizePlatform(value)
}

func bothPlatforms(payload map[string]interface{}) bool {
	value, ok := payload["platform"].(string)
	return ok && strings.EqualFold(value, "both")
}

func platformPair(network string) [2]interface{} {
	if pair, ok := platformValues[network]; ok {
		return pair
	}
	return [2]interface{}{adapters.PlatformAndroid, adapters.PlatformIOS}
}

func withPlatform(payload map[string]interface{}, platform interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for key, value := range payload {
		out[key] = value
	}
	out["platform"] = platform
	return out
}
