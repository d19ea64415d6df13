// Package adapterstest holds the shared scaffolding for adapter tests: a
// scripted fake console that records every wire request, and a JSON
// assertion that prints a structural diff when payloads drift.
package adapterstest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// RequestRecord captures one request an adapter under test made.
type RequestRecord struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// BodyJSON unmarshals the recorded body for field assertions.
func (r RequestRecord) BodyJSON(t *testing.T) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Body, &payload), "request body is not a JSON object: %s", string(r.Body))
	return payload
}

type scriptedResponse struct {
	status int
	body   string
}

// Upstream is a scripted fake network console. Responses are keyed by
// method and path; unscripted paths return 404 so a test fails loudly on an
// unexpected call.
type Upstream struct {
	Server *httptest.Server

	mu        sync.Mutex
	requests  []RequestRecord
	responses map[string][]scriptedResponse
}

func NewUpstream() *Upstream {
	u := &Upstream{responses: map[string][]scriptedResponse{}}
	u.Server = httptest.NewServer(http.HandlerFunc(u.handle))
	return u
}

func (u *Upstream) Close() {
	u.Server.Close()
}

// URL returns the fake console's base URL.
func (u *Upstream) URL() string {
	return u.Server.URL
}

// Client returns a client wired to the fake console.
func (u *Upstream) Client() *http.Client {
	return u.Server.Client()
}

// Respond scripts the response for method+path. Calling it again for the
// same key queues another response, consumed in order; the last one repeats.
func (u *Upstream) Respond(method, path string, status int, body string) *Upstream {
	u.mu.Lock()
	defer u.mu.Unlock()
	key := method + " " + path
	u.responses[key] = append(u.responses[key], scriptedResponse{status: status, body: body})
	return u
}

func (u *Upstream) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	u.mu.Lock()
	u.requests = append(u.requests, RequestRecord{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	key := r.Method + " " + r.URL.Path
	queue := u.responses[key]
	var scripted scriptedResponse
	ok := len(queue) > 0
	if ok {
		scripted = queue[0]
		if len(queue) > 1 {
			u.responses[key] = queue[1:]
		}
	}
	u.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(scripted.status)
	io.WriteString(w, scripted.body)
}

// Requests returns every recorded request in arrival order.
func (u *Upstream) Requests() []RequestRecord {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]RequestRecord(nil), u.requests...)
}

// LastRequest returns the most recent request, failing the test when none
// was made.
func (u *Upstream) LastRequest(t *testing.T) RequestRecord {
	t.Helper()
	requests := u.Requests()
	require.NotEmpty(t, requests, "no request reached the fake console")
	return requests[len(requests)-1]
}

// AssertJSONMatch compares two JSON documents structurally and prints a
// readable diff on mismatch.
func AssertJSONMatch(t *testing.T, expected, actual []byte) {
	t.Helper()

	diff, err := gojsondiff.New().Compare(expected, actual)
	require.NoError(t, err, "expected: %s actual: %s", string(expected), string(actual))
	if !diff.Modified() {
		return
	}

	var base map[string]interface{}
	require.NoError(t, json.Unmarshal(expected, &base))
	pretty, err := formatter.NewAsciiFormatter(base, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
	}).Format(diff)
	require.NoError(t, err)
	assert.Fail(t, "JSON mismatch", pretty)
}
