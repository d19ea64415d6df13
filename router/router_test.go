package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
	"github.com/SC-Dawoony/ad-network-hub-sub000/metrics"
	"github.com/SC-Dawoony/ad-network-hub-sub000/reconcile"
	"github.com/SC-Dawoony/ad-network-hub-sub000/registry"
	"github.com/SC-Dawoony/ad-network-hub-sub000/storemeta"
)

type testValidator struct{}

func (validator *testValidator) Validate(network string, payload []byte) error {
	return nil
}

func (validator *testValidator) Schema(network string) string {
	if network == "ironsource" {
		return "{\"ironsource\":true}"
	} else {
		return "{\"ironsource\":false}"
	}
}

func ensureHasKey(t *testing.T, data map[string]json.RawMessage, key string) {
	t.Helper()
	if _, ok := data[key]; !ok {
		t.Errorf("Expected map to produce a schema for network: %s", key)
	}
}

func TestNewJsonDirectoryServer(t *testing.T) {
	alias := map[string]string{"aliastest": "ironsource"}
	handler := NewJsonDirectoryServer("../static/network-params", &testValidator{}, alias, registry.SupportedNetworks())
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("GET", "/whatever", nil)
	handler(recorder, request, nil)

	var data map[string]json.RawMessage
	json.Unmarshal(recorder.Body.Bytes(), &data)

	// Make sure that every supported network has a json schema by the same name associated with it.
	for _, network := range registry.SupportedNetworks() {
		ensureHasKey(t, data, network)
	}

	ensureHasKey(t, data, "aliastest")
}

type fakeDirectory struct {
	networks []string
}

func (d *fakeDirectory) Get(network string) (adapters.Adapter, error) {
	return nil, &errortypes.UnknownNetwork{Message: fmt.Sprintf("unknown network %q", network)}
}

func (d *fakeDirectory) Networks() []string {
	return d.networks
}

type mockEngine struct {
	endpoint string
	status   int
	calls    int
}

func (m *mockEngine) RecordAdapterCall(network, op, status string, length time.Duration) {}

func (m *mockEngine) RecordReconcileBatch(tasks, matched int, length time.Duration) {}

func (m *mockEngine) RecordRequest(endpoint string, status int, length time.Duration) {
	m.endpoint = endpoint
	m.status = status
	m.calls++
}

func newTestRouter(t *testing.T, me metrics.Engine) *Router {
	t.Helper()
	cfg := &config.Configuration{SchemaDirectory: "../static/network-params"}
	directory := &fakeDirectory{networks: []string{"admob", "ironsource"}}
	r, err := New(cfg, Deps{
		Networks:   directory,
		Reconciler: reconcile.NewEngine(directory, config.Reconcile{}, nil),
		Store:      storemeta.NewClient(config.StoreMeta{}, http.DefaultClient),
		Validator:  &testValidator{},
		Metrics:    me,
	})
	require.NoError(t, err)
	return r
}

func TestRouterServesStatus(t *testing.T) {
	r := newTestRouter(t, nil)

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("GET", "/status", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "ok", recorder.Body.String())
}

func TestRouterServesNetworks(t *testing.T) {
	r := newTestRouter(t, nil)

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("GET", "/networks", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Networks []string          `json:"networks"`
		Aliases  map[string]string `json:"aliases"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, []string{"admob", "ironsource"}, response.Networks)
	assert.Equal(t, "ironsource", response.Aliases["IRONSOURCE_BIDDING"])
	assert.NotContains(t, response.Aliases, "VUNGLE_BIDDING")
}

func TestRouterRecordsRequestMetrics(t *testing.T) {
	me := &mockEngine{}
	r := newTestRouter(t, me)

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("GET", "/networks/nope/apps", nil))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, 1, me.calls)
	assert.Equal(t, "/networks/:network/apps", me.endpoint, "metrics must carry the route template, not the raw path")
	assert.Equal(t, http.StatusBadRequest, me.status)
}

func TestHandlerSetsRequestID(t *testing.T) {
	r := newTestRouter(t, nil)
	handler := r.Handler(&config.Configuration{})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/status", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))
}

func TestHandlerRateLimit(t *testing.T) {
	r := newTestRouter(t, nil)
	handler := r.Handler(&config.Configuration{
		RateLimit: config.RateLimit{Enabled: true, MaxRPS: 1},
	})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/status", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/status", nil))
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	assert.Contains(t, recorder.Body.String(), "rate_limited")
}

func TestCORSSupport(t *testing.T) {
	const origin = "https://dashboard-domain.com"
	handler := func(w http.ResponseWriter, r *http.Request) {}
	cors := SupportCORS(http.HandlerFunc(handler), nil)
	rr := httptest.NewRecorder()
	req, err := http.NewRequest("OPTIONS", "http://some-domain.com/networks/ironsource/apps", nil)
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "origin")
	req.Header.Set("Origin", origin)

	if !assert.NoError(t, err) {
		return
	}
	cors.ServeHTTP(rr, req)
	assert.Equal(t, origin, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRestrictsOrigins(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {}
	cors := SupportCORS(http.HandlerFunc(handler), []string{"https://ops.example.com"})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "http://some-domain.com/networks", nil)
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Origin", "https://evil.example.com")
	cors.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	rr = httptest.NewRecorder()
	req = httptest.NewRequest("OPTIONS", "http://some-domain.com/networks", nil)
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Origin", "https://ops.example.com")
	cors.ServeHTTP(rr, req)
	assert.Equal(t, "https://ops.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestNoCache(t *testing.T) {
	nc := NoCache{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	}
	rw := httptest.NewRecorder()
	req, err := http.NewRequest("GET", "http://localhost/nocache", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("ETag", "abcdef")
	nc.ServeHTTP(rw, req)
	h := rw.Header()
	if expected := "no-cache, no-store, must-revalidate"; expected != h.Get("Cache-Control") {
		t.Errorf("invalid cache-control header: expected: %s got: %s", expected, h.Get("Cache-Control"))
	}
	if expected := "no-cache"; expected != h.Get("Pragma") {
		t.Errorf("invalid pragma header: expected: %s got: %s", expected, h.Get("Pragma"))
	}
	if expected := "0"; expected != h.Get("Expires") {
		t.Errorf("invalid expires header: expected: %s got: %s", expected, h.Get("Expires"))
	}
	if expected := ""; expected != h.Get("ETag") {
		t.Errorf("invalid etag header: expected: %s got: %s", expected, h.Get("ETag"))
	}
}
