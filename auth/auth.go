// Package auth supplies request credentials for the ad networks. Three
// families live here: token exchange (OAuth2 refresh grant), bearer tokens
// with the expiry embedded in the token itself, and fixed header sets from
// configuration. Per-request signature schemes have no session state and
// are computed by the signing helpers instead of a Provider.
package auth

import (
	"context"
	"net/http"
	"time"
)

// Credential is the material one request needs: a bearer token, a fixed
// header set, or both. ExpiresAt is zero when the material does not expire
// or the expiry is unknown.
type Credential struct {
	Network   string
	Token     string
	Headers   http.Header
	ExpiresAt time.Time
}

// Apply attaches the credential to an outgoing request.
func (c Credential) Apply(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	for key, values := range c.Headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
}

// Provider yields credentials valid for the next request, refreshing
// transparently when a cached token is expired or inside its safety margin.
type Provider interface {
	// Credentials returns material for the next request. Missing secret
	// configuration surfaces as *errortypes.ConfigError; a failed refresh as
	// *errortypes.AuthError.
	Credentials(ctx context.Context) (Credential, error)

	// Invalidate drops any cached token so the next Credentials call
	// refreshes. A no-op for families with nothing cached.
	Invalidate()

	// Refreshable reports whether a 401 is worth one invalidate-and-retry
	// pass. True for token families only; a rejected static key or stale
	// signature does not recover by retrying.
	Refreshable() bool
}

// Mask redacts secret material for logs. Only a short prefix survives, and
// values too short to keep a prefix are fully replaced.
func Mask(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..."
}
