package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/golang/glog"
)

const versionValueNotSet = "not-set"

// NewVersionEndpoint reports the git tag and commit hash the binary was
// built from. It serves the admin mux, not the main router.
func NewVersionEndpoint(version, revision string) http.HandlerFunc {
	if version == "" {
		version = versionValueNotSet
	}
	if revision == "" {
		revision = versionValueNotSet
	}

	response, err := json.Marshal(struct {
		Revision string `json:"revision"`
		Version  string `json:"version"`
	}{
		Revision: revision,
		Version:  version,
	})
	if err != nil {
		glog.Fatalf("error creating /version endpoint response: %v", err)
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		w.Write(response)
	}
}
