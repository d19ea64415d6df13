package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/SC-Dawoony/ad-network-hub-sub000/auth"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	tokens      []string
	issued      int32
	refreshable bool
	invalidated int32
}

func (p *scriptedProvider) Credentials(ctx context.Context) (auth.Credential, error) {
	i := atomic.AddInt32(&p.issued, 1) - 1
	if int(i) >= len(p.tokens) {
		i = int32(len(p.tokens) - 1)
	}
	return auth.Credential{Token: p.tokens[i]}, nil
}

func (p *scriptedProvider) Invalidate() {
	atomic.AddInt32(&p.invalidated, 1)
}

func (p *scriptedProvider) Refreshable() bool { return p.refreshable }

func TestDoReadsResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	resp, err := Do(context.Background(), upstream.Client(), "testnet", &RequestData{
		Method:  http.MethodPost,
		URL:     upstream.URL,
		Body:    []byte(`{"name":"x"}`),
		Headers: headers,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestDoTransportError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	_, err := Do(context.Background(), http.DefaultClient, "testnet", &RequestData{
		Method: http.MethodGet,
		URL:    upstream.URL,
	})

	require.Error(t, err)
	assert.IsType(t, &errortypes.TransportError{}, err)
}

func TestDoAuthorizedRetriesOnceOn401(t *testing.T) {
	var calls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			assert.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	provider := &scriptedProvider{tokens: []string{"stale", "fresh"}, refreshable: true}

	resp, err := DoAuthorized(context.Background(), upstream.Client(), "testnet", provider, func(cred auth.Credential) (*RequestData, error) {
		return &RequestData{Method: http.MethodGet, URL: upstream.URL}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.invalidated))
}

func TestDoAuthorizedRetriesOnlyOnce(t *testing.T) {
	var calls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	provider := &scriptedProvider{tokens: []string{"stale", "fresh"}, refreshable: true}

	resp, err := DoAuthorized(context.Background(), upstream.Client(), "testnet", provider, func(cred auth.Credential) (*RequestData, error) {
		return &RequestData{Method: http.MethodGet, URL: upstream.URL}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "the second 401 stands")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDoAuthorizedNoRetryForStaticProviders(t *testing.T) {
	var calls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	provider := &scriptedProvider{tokens: []string{"static-key"}, refreshable: false}

	resp, err := DoAuthorized(context.Background(), upstream.Client(), "testnet", provider, func(cred auth.Credential) (*RequestData, error) {
		return &RequestData{Method: http.MethodGet, URL: upstream.URL}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "static families never retry a 401")
	assert.Equal(t, int32(0), atomic.LoadInt32(&provider.invalidated))
}

func TestDoAuthorizedAppliesHeaderCredentials(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("apiKey"))
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	provider := auth.NewStaticProvider("inmobi", map[string]string{"apiKey": "key-1"})

	_, err := DoAuthorized(context.Background(), upstream.Client(), "inmobi", provider, func(cred auth.Credential) (*RequestData, error) {
		return &RequestData{Method: http.MethodGet, URL: upstream.URL}, nil
	})
	require.NoError(t, err)
}

func TestStatusError(t *testing.T) {
	testCases := []struct {
		statusCode int
		expected   error
	}{
		{http.StatusOK, nil},
		{http.StatusCreated, nil},
		{http.StatusUnauthorized, &errortypes.AuthError{}},
		{http.StatusTooManyRequests, &errortypes.RateLimited{}},
		{http.StatusBadRequest, &errortypes.UpstreamError{}},
		{http.StatusInternalServerError, &errortypes.UpstreamError{}},
	}

	for _, test := range testCases {
		err := StatusError("testnet", &ResponseData{StatusCode: test.statusCode, Body: []byte(`{"error":"x"}`)})
		if test.expected == nil {
			assert.NoError(t, err, "status %d", test.statusCode)
		} else {
			assert.IsType(t, test.expected, err, "status %d", test.statusCode)
		}
	}
}

func TestStatusErrorKeepsStatusAsCode(t *testing.T) {
	err := StatusError("testnet", &ResponseData{StatusCode: 503, Body: []byte("upstream down")})
	upstream, ok := err.(*errortypes.UpstreamError)
	require.True(t, ok)
	assert.Equal(t, "503", upstream.ErrCode)
}

func TestNewHTTPAdapterDefaults(t *testing.T) {
	adapter := NewHTTPAdapter(nil)
	require.NotNil(t, adapter.Client)
	assert.Equal(t, DefaultHTTPAdapterConfig.Timeout, adapter.Client.Timeout)
}
