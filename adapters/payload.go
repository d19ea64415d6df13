package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
	jsonpatch "github.com/evanphx/json-patch"
)

// BuildPayload merges the caller's fields over the network's default
// template with RFC 7386 merge-patch semantics: caller keys win, explicit
// nulls delete template keys.
func BuildPayload(defaults map[string]interface{}, caller map[string]interface{}) ([]byte, error) {
	base, err := json.Marshal(defaults)
	if err != nil {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("encode default payload: %v", err)}
	}
	if caller == nil {
		return base, nil
	}
	patch, err := json.Marshal(caller)
	if err != nil {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("encode payload: %v", err)}
	}
	merged, err := jsonpatch.MergePatch(base, patch)
	if err != nil {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("merge payload: %v", err)}
	}
	return merged, nil
}

// StripNulls removes null-valued keys recursively. Some consoles reject
// nulls outright instead of treating them as absent.
func StripNulls(payload map[string]interface{}) map[string]interface{} {
	cleaned := make(map[string]interface{}, len(payload))
	for key, value := range payload {
		switch typed := value.(type) {
		case nil:
			continue
		case map[string]interface{}:
			cleaned[key] = StripNulls(typed)
		default:
			cleaned[key] = value
		}
	}
	return cleaned
}
