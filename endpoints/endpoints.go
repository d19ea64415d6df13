// Package endpoints implements the hub's HTTP handlers: network listing,
// app and unit management per network, reconciliation batches and the app
// store lookup. Handlers translate between the JSON surface and the
// adapter contract; everything network-specific stays behind it.
package endpoints

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/golang/glog"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

// maxRequestSize bounds create and reconcile bodies. The largest legitimate
// payload is a reconcile batch of a few hundred units, well under this.
const maxRequestSize = 1 << 20

// NetworkSource hands out the adapter registered under a canonical network
// id or one of its mediation aliases.
type NetworkSource interface {
	Get(network string) (adapters.Adapter, error)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		glog.Errorf("failed to write response body: %v", err)
	}
}

// handleError folds a request-level failure into the same shape create
// results use, so callers parse one envelope everywhere.
func handleError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), adapters.ResultFromError(err))
}

// statusForError maps adapter-level failures on list and lookup calls.
// Upstream and transport failures surface as a bad gateway: the hub was
// fine, the network console was not.
func statusForError(err error) int {
	switch errortypes.ReadCode(err) {
	case errortypes.BadInputErrorCode, errortypes.UnknownNetworkErrorCode:
		return http.StatusBadRequest
	case errortypes.ConfigErrorCode, errortypes.AuthErrorCode,
		errortypes.TransportErrorCode, errortypes.UpstreamErrorCode:
		return http.StatusBadGateway
	case errortypes.RateLimitedErrorCode:
		return http.StatusTooManyRequests
	case errortypes.StoreLookupErrorCode, errortypes.IdentifierNotFoundErrorCode,
		errortypes.AppNotFoundErrorCode, errortypes.UnitNotFoundErrorCode:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// statusForResult picks the HTTP status for a create result. Only failures
// local to the hub change the status; a business rejection from the network
// console stays 200 with ok=false so callers render the upstream's own code
// and message uniformly.
func statusForResult(result adapters.NormalizedResult) int {
	if result.OK {
		return http.StatusOK
	}
	switch result.Code {
	case "bad_input", "unknown_network":
		return http.StatusBadRequest
	case "config_error", "auth_error":
		return http.StatusBadGateway
	}
	return http.StatusOK
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("failed to read request body: %v", err)}
	}
	if len(body) == 0 {
		return nil, &errortypes.BadInput{Message: "request body is empty"}
	}
	return body, nil
}

func readPayload(r *http.Request) (map[string]interface{}, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("invalid request JSON: %v", err)}
	}
	return payload, nil
}

// stringField returns the first of the keys present with a string value.
func stringField(payload map[string]interface{}, keys []string) (string, bool) {
	for _, key := range keys {
		if value, ok := payload[key].(string); ok {
			return value, true
		}
	}
	return "", false
}
