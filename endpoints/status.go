package endpoints

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// NewStatusEndpoint implements GET /status, the liveness probe.
func NewStatusEndpoint() httprouter.Handle {
	response := []byte("ok")
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Write(response)
	}
}
