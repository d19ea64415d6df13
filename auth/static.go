package auth

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

// StaticProvider serves a fixed header set from configuration. There is
// nothing to refresh; a 401 from these networks means the key itself is
// wrong.
type StaticProvider struct {
	network string
	headers http.Header
	missing []string
}

// NewStaticProvider builds a provider over the given header map. Keys whose
// value is empty are remembered and reported as a ConfigError when
// Credentials is called, so misconfiguration surfaces on use rather than at
// startup.
func NewStaticProvider(network string, headers map[string]string) *StaticProvider {
	p := &StaticProvider{network: network, headers: http.Header{}}
	for key, value := range headers {
		if value == "" {
			p.missing = append(p.missing, key)
			continue
		}
		p.headers.Set(key, value)
	}
	sort.Strings(p.missing)
	return p
}

// NewStaticBearer wraps a fixed bearer token under the given header name.
// An empty token is registered as missing the same way an empty header
// value is.
func NewStaticBearer(network, header, token string) *StaticProvider {
	value := ""
	if token != "" {
		value = "Bearer " + token
	}
	return NewStaticProvider(network, map[string]string{header: value})
}

func (p *StaticProvider) Refreshable() bool {
	return false
}

func (p *StaticProvider) Invalidate() {}

func (p *StaticProvider) Credentials(ctx context.Context) (Credential, error) {
	if len(p.missing) > 0 {
		return Credential{}, &errortypes.ConfigError{
			Message: fmt.Sprintf("%s: missing credential values for %v", p.network, p.missing),
		}
	}

	headers := http.Header{}
	for key, values := range p.headers {
		headers[key] = append([]string(nil), values...)
	}
	return Credential{Network: p.network, Headers: headers}, nil
}
