package router

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/didip/tollbooth"
	"github.com/didip/tollbooth/limiter"
	"github.com/gofrs/uuid"
	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	"github.com/SC-Dawoony/ad-network-hub-sub000/endpoints"
	"github.com/SC-Dawoony/ad-network-hub-sub000/metrics"
	"github.com/SC-Dawoony/ad-network-hub-sub000/reconcile"
	"github.com/SC-Dawoony/ad-network-hub-sub000/registry"
	"github.com/SC-Dawoony/ad-network-hub-sub000/storemeta"
)

// NetworkDirectory is the registry surface the routes are built from.
type NetworkDirectory interface {
	endpoints.NetworkSource
	Networks() []string
}

// Deps holds the components the routes delegate to. Every field must be
// populated except Metrics, which falls back to the nil engine.
type Deps struct {
	Networks   NetworkDirectory
	Reconciler *reconcile.Engine
	Store      *storemeta.Client
	Validator  adapters.ParamsValidator
	Metrics    metrics.Engine
}

type Router struct {
	*httprouter.Router
}

func New(cfg *config.Configuration, deps Deps) (*Router, error) {
	r := &Router{
		Router: httprouter.New(),
	}

	me := deps.Metrics
	if me == nil {
		me = metrics.NilEngine{}
	}
	aliases := registry.Aliases()

	r.GET("/status", endpoints.NewStatusEndpoint())
	r.GET("/networks", endpoints.NewNetworksEndpoint(deps.Networks.Networks(), aliases))
	r.GET("/networks/params", NewJsonDirectoryServer(cfg.SchemaDirectory, deps.Validator, aliases, registry.SupportedNetworks()))
	r.GET("/networks/:network/apps", instrument("/networks/:network/apps", endpoints.NewListAppsEndpoint(deps.Networks), me))
	r.POST("/networks/:network/apps", instrument("/networks/:network/apps", endpoints.NewCreateAppEndpoint(deps.Networks), me))
	r.GET("/networks/:network/apps/:appid/units", instrument("/networks/:network/apps/:appid/units", endpoints.NewListUnitsEndpoint(deps.Networks), me))
	r.POST("/networks/:network/apps/:appid/units", instrument("/networks/:network/apps/:appid/units", endpoints.NewCreateUnitEndpoint(deps.Networks), me))
	r.POST("/reconcile", instrument("/reconcile", endpoints.NewReconcileEndpoint(deps.Reconciler), me))
	r.GET("/storemeta/ios/:appid", instrument("/storemeta/ios/:appid", endpoints.NewStoreMetaEndpoint(deps.Store), me))

	return r, nil
}

// Handler assembles the middleware around the routes: access logging
// innermost, then the rate limiter, CORS outermost so preflights never
// count against the limit.
func (r *Router) Handler(cfg *config.Configuration) http.Handler {
	var handler http.Handler = r.Router
	handler = logRequests(handler)
	if cfg.RateLimit.Enabled {
		handler = limitRequests(handler, cfg.RateLimit)
	}
	handler = SupportCORS(handler, cfg.CORS.AllowedOrigins)
	return handler
}

// NewJsonDirectoryServer is used to serve .json files from a directory as a single blob. For example,
// given a directory containing the files "ironsource.json" and "admob.json", this returns a Handle which
// serves JSON like:
//
// {
//   "ironsource": { ... content from the file ironsource.json ... },
//   "admob": { ... content from the file admob.json ... }
// }
//
// Mediation aliases are served under their alias name with the canonical network's schema. The
// directory is checked against the full supported network set, so a disabled network still serves
// its params.
//
// This function stores the file contents in memory, and should not be used on large directories.
// If the root directory, or any of the files in it, cannot be read, then the program will exit.
func NewJsonDirectoryServer(schemaDirectory string, validator adapters.ParamsValidator, aliases map[string]string, networks []string) httprouter.Handle {
	// Slurp the files into memory first, since they're small and it minimizes request latency.
	files, err := os.ReadDir(schemaDirectory)
	if err != nil {
		glog.Fatalf("Failed to read directory %s: %v", schemaDirectory, err)
	}

	known := make(map[string]struct{}, len(networks))
	for _, network := range networks {
		known[network] = struct{}{}
	}

	data := make(map[string]json.RawMessage, len(files))
	for _, file := range files {
		network := strings.TrimSuffix(file.Name(), ".json")
		if _, ok := known[network]; !ok {
			glog.Fatalf("Schema exists for an unknown network: %s", network)
		}
		data[network] = json.RawMessage(validator.Schema(network))
	}

	for aliasName, network := range aliases {
		networkData, ok := data[network]
		if !ok {
			glog.Fatalf("Mediation alias (%s) references a network with no schema: %s", aliasName, network)
		}
		data[aliasName] = networkData
	}

	response, err := json.Marshal(data)
	if err != nil {
		glog.Fatalf("Failed to marshal network param JSON-schema: %v", err)
	}

	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Header().Add("Content-Type", "application/json")
		w.Write(response)
	}
}

type NoCache struct {
	Handler http.Handler
}

func (m NoCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Add("Pragma", "no-cache")
	w.Header().Add("Expires", "0")
	m.Handler.ServeHTTP(w, r)
}

// SupportCORS wraps the handler with the configured origin policy. The hub
// sits behind operator dashboards that send credentialed requests, so an
// empty origin list means every origin is allowed rather than none.
func SupportCORS(handler http.Handler, allowedOrigins []string) http.Handler {
	options := cors.Options{
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"},
	}
	if len(allowedOrigins) == 0 {
		options.AllowOriginFunc = func(string) bool {
			return true
		}
	} else {
		options.AllowedOrigins = allowedOrigins
	}
	return cors.New(options).Handler(handler)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records request metrics under the route template, never the
// raw path, so app and unit identifiers don't blow up the label space.
func instrument(endpoint string, handle httprouter.Handle, me metrics.Engine) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handle(recorder, r, ps)
		me.RecordRequest(endpoint, recorder.status, time.Since(start))
	}
}

// logRequests assigns each request an id, echoes it in the X-Request-ID
// response header and writes one access line when the handler returns.
func logRequests(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := newRequestID()
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler.ServeHTTP(recorder, r)

		glog.Infof("[http] %s %s %s -> %d in %s", requestID, r.Method, r.URL.Path, recorder.status, time.Since(start))
	})
}

func newRequestID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return "unknown"
	}
	return id.String()
}

func limitRequests(handler http.Handler, cfg config.RateLimit) http.Handler {
	lmt := tollbooth.NewLimiter(cfg.MaxRPS, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
	lmt.SetMessageContentType("application/json")
	lmt.SetMessage(`{"ok":false,"code":"rate_limited","message":"too many requests"}`)
	return tollbooth.LimitHandler(lmt, handler)
}
