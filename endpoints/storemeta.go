package endpoints

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/SC-Dawoony/ad-network-hub-sub000/storemeta"
)

type storeLookup interface {
	Lookup(ctx context.Context, appID string) (storemeta.Meta, error)
}

type storeMetaResponse struct {
	storemeta.Meta
	NetworkCategories storemeta.NetworkCategories `json:"network_categories"`
}

// NewStoreMetaEndpoint implements GET /storemeta/ios/:appid, where appid is
// the numeric App Store identifier. The response carries the store record
// plus its category translated into each network's own taxonomy, ready for
// create payloads.
func NewStoreMetaEndpoint(store storeLookup) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		meta, err := store.Lookup(r.Context(), ps.ByName("appid"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, storeMetaResponse{
			Meta:              meta,
			NetworkCategories: storemeta.CategoriesFor(meta.Category),
		})
	}
}
