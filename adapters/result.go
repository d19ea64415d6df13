package adapters

import (
	"encoding/json"

	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

// NormalizedResult is the one shape every create call returns, regardless
// of the wire format consumed. OK is true iff the network reported success
// by its own convention. Code carries the upstream's own error code when
// the failure originated remotely, or a stable local label otherwise. Raw
// preserves the upstream body for callers that need fields the
// normalization dropped.
type NormalizedResult struct {
	OK      bool                   `json:"ok"`
	Code    string                 `json:"code,omitempty"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Raw     json.RawMessage        `json:"raw,omitempty"`
}

// Stable labels for adapter-level failures. Upstream business codes pass
// through verbatim instead.
var codeLabels = map[int]string{
	errortypes.ConfigErrorCode:             "config_error",
	errortypes.AuthErrorCode:               "auth_error",
	errortypes.RateLimitedErrorCode:        "rate_limited",
	errortypes.IdentifierNotFoundErrorCode: "identifier_not_found",
	errortypes.AppNotFoundErrorCode:        "app_not_found",
	errortypes.UnitNotFoundErrorCode:       "unit_not_found",
	errortypes.TransportErrorCode:          "transport_error",
	errortypes.UpstreamErrorCode:           "upstream_error",
	errortypes.UnknownNetworkErrorCode:     "unknown_network",
	errortypes.BadInputErrorCode:           "bad_input",
	errortypes.StoreLookupErrorCode:        "store_lookup_error",
}

// KnownCode reports whether code is one of the hub's own failure labels
// rather than a remote code passed through verbatim.
func KnownCode(code string) bool {
	for _, label := range codeLabels {
		if label == code {
			return true
		}
	}
	return code == "error"
}

// ResultFromError folds an adapter-level error into a NormalizedResult.
// UpstreamErrors keep the remote code; everything else gets its taxonomy
// label. Messages never include secret material by construction: errors
// are built from masked values only.
func ResultFromError(err error) NormalizedResult {
	result := NormalizedResult{OK: false, Message: err.Error()}

	if upstream, ok := err.(*errortypes.UpstreamError); ok && upstream.ErrCode != "" {
		result.Code = upstream.ErrCode
		return result
	}
	if label, ok := codeLabels[errortypes.ReadCode(err)]; ok {
		result.Code = label
		return result
	}
	result.Code = "error"
	return result
}

// SuccessResult builds an OK result carrying the extracted data and the
// raw upstream body.
func SuccessResult(data map[string]interface{}, raw []byte) NormalizedResult {
	return NormalizedResult{OK: true, Data: data, Raw: json.RawMessage(raw)}
}

// UpstreamFailure builds a not-OK result for a business-level rejection,
// passing the remote code and message through verbatim.
func UpstreamFailure(code, message string, raw []byte) NormalizedResult {
	return NormalizedResult{OK: false, Code: code, Message: message, Raw: json.RawMessage(raw)}
}
