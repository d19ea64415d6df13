package endpoints

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/validate"
)

var unitNameKeys = []string{"name", "mediationAdUnitName", "placement_name", "displayName"}

type unitsResponse struct {
	Network string          `json:"network"`
	AppID   string          `json:"app_id"`
	Count   int             `json:"count"`
	Units   []adapters.Unit `json:"units"`
}

// NewListUnitsEndpoint implements GET /networks/:network/apps/:appid/units.
func NewListUnitsEndpoint(networks NetworkSource) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		adapter, err := networks.Get(ps.ByName("network"))
		if err != nil {
			handleError(w, err)
			return
		}
		appID := ps.ByName("appid")

		units, err := adapter.ListUnits(r.Context(), appID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, unitsResponse{Network: adapter.Name(), AppID: appID, Count: len(units), Units: units})
	}
}

// NewCreateUnitEndpoint implements POST /networks/:network/apps/:appid/units.
func NewCreateUnitEndpoint(networks NetworkSource) httprouter.Handle {
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
		if name, ok := stringField(payload, unitNameKeys); ok {
			if err := validate.UnitName(name); err != nil {
				handleError(w, err)
				return
			}
		}

		result := adapter.CreateUnit(r.Context(), payload, ps.ByName("appid"))
		writeJSON(w, statusForResult(result), result)
	}
}
