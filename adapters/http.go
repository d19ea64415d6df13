package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/SC-Dawoony/ad-network-hub-sub000/auth"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
	"github.com/golang/glog"
)

// RequestData packages one outgoing wire call before it becomes an
// *http.Request.
type RequestData struct {
	Method  string
	URL     string
	Body    []byte
	Headers http.Header
}

// ResponseData is the upstream's reply with the body fully read.
type ResponseData struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// HTTPAdapterConfig groups the transport knobs every adapter shares.
type HTTPAdapterConfig struct {
	// Timeout bounds one round trip including body read.
	Timeout time.Duration

	MaxConns        int
	MaxConnsPerHost int
	IdleConnTimeout time.Duration
}

var DefaultHTTPAdapterConfig = &HTTPAdapterConfig{
	Timeout:         30 * time.Second,
	MaxConns:        50,
	MaxConnsPerHost: 10,
	IdleConnTimeout: 60 * time.Second,
}

// HTTPAdapter is the shared transport stack. One instance serves all
// adapters so connection pooling works across the whole hub.
type HTTPAdapter struct {
	Transport *http.Transport
	Client    *http.Client
}

func NewHTTPAdapter(c *HTTPAdapterConfig) *HTTPAdapter {
	if c == nil {
		c = DefaultHTTPAdapterConfig
	}
	transport := &http.Transport{
		MaxIdleConns:        c.MaxConns,
		MaxIdleConnsPerHost: c.MaxConnsPerHost,
		IdleConnTimeout:     c.IdleConnTimeout,
	}
	return &HTTPAdapter{
		Transport: transport,
		Client: &http.Client{
			Transport: transport,
			Timeout:   c.Timeout,
		},
	}
}

// Do sends one request and reads the reply. Connection-level failures come
// back as TransportError; any readable response, whatever its status, comes
// back as ResponseData for the caller to interpret.
func Do(ctx context.Context, client *http.Client, network string, data *RequestData) (*ResponseData, error) {
	var body io.Reader
	if len(data.Body) > 0 {
		body = bytes.NewReader(data.Body)
	}

	req, err := http.NewRequestWithContext(ctx, data.Method, data.URL, body)
	if err != nil {
		return nil, &errortypes.TransportError{Message: fmt.Sprintf("%s: build request: %v", network, err)}
	}
	for key, values := range data.Headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &errortypes.TransportError{Message: fmt.Sprintf("%s: %s %s: %v", network, data.Method, data.URL, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errortypes.TransportError{Message: fmt.Sprintf("%s: read response: %v", network, err)}
	}

	if glog.V(2) {
		glog.Infof("[%s] %s %s -> %d (%d bytes, auth %s)",
			network, data.Method, data.URL, resp.StatusCode, len(respBody),
			auth.Mask(req.Header.Get("Authorization")))
	}

	return &ResponseData{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    resp.Header,
	}, nil
}

// DoAuthorized attaches credentials from the provider, sends, and on a 401
// from a refreshable provider invalidates, refreshes and retries exactly
// once. The build callback runs per attempt so signatures and bodies can be
// rebuilt against the fresh credential.
func DoAuthorized(ctx context.Context, client *http.Client, network string, provider auth.Provider, build func(cred auth.Credential) (*RequestData, error)) (*ResponseData, error) {
	send := func() (*ResponseData, error) {
		cred, err := provider.Credentials(ctx)
		if err != nil {
			return nil, err
		}
		data, err := build(cred)
		if err != nil {
			return nil, err
		}
		if data.Headers == nil {
			data.Headers = http.Header{}
		}
		if cred.Token != "" {
			data.Headers.Set("Authorization", "Bearer "+cred.Token)
		}
		for key, values := range cred.Headers {
			for _, value := range values {
				data.Headers.Set(key, value)
			}
		}
		return Do(ctx, client, network, data)
	}

	resp, err := send()
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && provider.Refreshable() {
		glog.Warningf("[%s] got 401, refreshing credentials and retrying once", network)
		provider.Invalidate()
		return send()
	}
	return resp, nil
}

// StatusError maps a response status onto the error taxonomy: nil for 2xx,
// AuthError for 401, RateLimited for 429, UpstreamError otherwise with the
// status as the code. Body-level success conventions stay per-adapter.
func StatusError(network string, resp *ResponseData) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return &errortypes.AuthError{Message: fmt.Sprintf("%s: unauthorized", network)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &errortypes.RateLimited{Message: fmt.Sprintf("%s: rate limited", network)}
	default:
		return &errortypes.UpstreamError{
			Message: fmt.Sprintf("%s: unexpected status %d: %s", network, resp.StatusCode, truncate(resp.Body, 200)),
			ErrCode: strconv.Itoa(resp.StatusCode),
		}
	}
}

func truncate(body []byte, max int) string {
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
