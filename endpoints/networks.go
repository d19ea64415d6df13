package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
)

type networksResponse struct {
	Networks []string          `json:"networks"`
	Aliases  map[string]string `json:"aliases"`
}

// NewNetworksEndpoint implements GET /networks. The response is built once
// at startup; the network set never changes while the server runs.
func NewNetworksEndpoint(networks []string, aliases map[string]string) httprouter.Handle {
	built := make(map[string]struct{}, len(networks))
	for _, network := range networks {
		built[network] = struct{}{}
	}
	// Aliases of networks that were disabled would resolve to nothing, so
	// the listing drops them.
	active := make(map[string]string, len(aliases))
	for alias, network := range aliases {
		if _, ok := built[network]; ok {
			active[alias] = network
		}
	}

	response, err := json.Marshal(networksResponse{Networks: networks, Aliases: active})
	if err != nil {
		glog.Fatalf("error creating /networks endpoint response: %v", err)
	}

	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(response); err != nil {
			glog.Errorf("error writing response to /networks: %v", err)
		}
	}
}
