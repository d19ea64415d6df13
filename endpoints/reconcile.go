package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
	"github.com/SC-Dawoony/ad-network-hub-sub000/reconcile"
)

type reconcileRequest struct {
	SourceUnits    []reconcile.SourceUnit `json:"source_units"`
	TargetNetworks []string               `json:"target_networks"`
}

type batchResolver interface {
	ResolveAll(ctx context.Context, sourceUnits []reconcile.SourceUnit, targetNetworks []string) reconcile.Batch
}

// NewReconcileEndpoint implements POST /reconcile. The call is synchronous:
// the response carries every row of the batch, already sorted.
func NewReconcileEndpoint(resolver batchResolver) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		body, err := readBody(r)
		if err != nil {
			handleError(w, err)
			return
		}
		var request reconcileRequest
		if err := json.Unmarshal(body, &request); err != nil {
			handleError(w, &errortypes.BadInput{Message: fmt.Sprintf("invalid request JSON: %v", err)})
			return
		}
		if len(request.SourceUnits) == 0 {
			handleError(w, &errortypes.BadInput{Message: "source_units must not be empty"})
			return
		}
		if len(request.TargetNetworks) == 0 {
			handleError(w, &errortypes.BadInput{Message: "target_networks must not be empty"})
			return
		}

		batch := resolver.ResolveAll(r.Context(), request.SourceUnits, request.TargetNetworks)
		writeJSON(w, http.StatusOK, batch)
	}
}
