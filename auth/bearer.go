package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/SC-Dawoony/ad-network-hub-sub000/credstore"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
	"github.com/SC-Dawoony/ad-network-hub-sub000/util/timeutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/glog"
	"golang.org/x/sync/singleflight"
)

// BearerConfig holds the long-lived secret pair of a bearer-token network
// and the endpoint that exchanges it for a short-lived JWT.
type BearerConfig struct {
	Network      string
	Endpoint     string
	SecretKey    string
	RefreshToken string

	// Margin is the remaining token lifetime that triggers a proactive
	// refresh. Zero means one hour, which suits the ~24 hour tokens the
	// bearer networks issue.
	Margin time.Duration
}

// BearerProvider implements the bearer-with-embedded-expiry family. The
// token is a JWT whose exp claim is read locally, without contacting the
// server; the token endpoint authenticates with the secret pair instead of
// the token itself. Concurrent refreshes collapse into one upstream call.
type BearerProvider struct {
	cfg    BearerConfig
	client *http.Client
	store  credstore.Store
	clock  timeutil.Time

	group singleflight.Group
	mu    sync.Mutex
	token string
}

// NewBearerProvider builds the provider and seeds its token from the
// credential store when a persisted record exists. Missing secret material
// is reported by Credentials, not here, so a partially configured hub still
// starts.
func NewBearerProvider(cfg BearerConfig, client *http.Client, store credstore.Store) *BearerProvider {
	if cfg.Margin == 0 {
		cfg.Margin = time.Hour
	}
	p := &BearerProvider{cfg: cfg, client: client, store: store, clock: &timeutil.RealTime{}}

	if store != nil {
		if record, ok, err := store.Load(cfg.Network); err != nil {
			glog.Warningf("%s: credential store read failed: %v", cfg.Network, err)
		} else if ok {
			p.token = record.AccessToken
		}
	}
	return p
}

func (p *BearerProvider) Refreshable() bool {
	return true
}

func (p *BearerProvider) Invalidate() {
	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()
}

// Credentials returns the cached token while its exp claim stays outside
// the refresh margin, and refreshes otherwise. A token that cannot be
// parsed counts as already expired.
func (p *BearerProvider) Credentials(ctx context.Context) (Credential, error) {
	if p.cfg.SecretKey == "" || p.cfg.RefreshToken == "" {
		return Credential{}, &errortypes.ConfigError{
			Message: fmt.Sprintf("%s: secret key and refresh token are required", p.cfg.Network),
		}
	}

	p.mu.Lock()
	token := p.token
	p.mu.Unlock()

	if remaining := TokenLifetime(token, p.clock.Now()); remaining > p.cfg.Margin {
		return p.credential(token), nil
	}

	fresh, err, _ := p.group.Do("refresh", func() (interface{}, error) {
		return p.refresh(ctx)
	})
	if err != nil {
		return Credential{}, err
	}
	return p.credential(fresh.(string)), nil
}

func (p *BearerProvider) credential(token string) Credential {
	cred := Credential{Network: p.cfg.Network, Token: token}
	now := p.clock.Now()
	if remaining := TokenLifetime(token, now); remaining > 0 {
		cred.ExpiresAt = now.Add(remaining)
	}
	return cred
}

func (p *BearerProvider) refresh(ctx context.Context) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.Endpoint, nil)
	if err != nil {
		return nil, &errortypes.AuthError{Message: fmt.Sprintf("%s: build token request: %v", p.cfg.Network, err)}
	}
	req.Header.Set("secretkey", p.cfg.SecretKey)
	req.Header.Set("refreshToken", p.cfg.RefreshToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &errortypes.TransportError{Message: fmt.Sprintf("%s: token endpoint unreachable: %v", p.cfg.Network, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errortypes.TransportError{Message: fmt.Sprintf("%s: read token response: %v", p.cfg.Network, err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &errortypes.AuthError{
			Message: fmt.Sprintf("%s: token endpoint returned %d", p.cfg.Network, resp.StatusCode),
		}
	}

	// The endpoint returns the JWT as a JSON string literal, quotes and all.
	token := strings.Trim(strings.TrimSpace(string(body)), `"`)
	if token == "" {
		return nil, &errortypes.AuthError{Message: fmt.Sprintf("%s: token endpoint returned an empty token", p.cfg.Network)}
	}

	p.mu.Lock()
	p.token = token
	p.mu.Unlock()

	p.persist(token)
	glog.V(2).Infof("%s: refreshed bearer token %s", p.cfg.Network, Mask(token))
	return token, nil
}

func (p *BearerProvider) persist(token string) {
	if p.store == nil {
		return
	}
	now := p.clock.Now()
	record := credstore.Record{
		Network:      p.cfg.Network,
		AccessToken:  token,
		RefreshToken: p.cfg.RefreshToken,
		UpdatedAt:    now,
	}
	if remaining := TokenLifetime(token, now); remaining > 0 {
		record.TokenExpiry = now.Add(remaining)
	}
	if err := p.store.Save(record); err != nil {
		glog.Warningf("%s: persisting refreshed token failed: %v", p.cfg.Network, err)
	}
}

// TokenLifetime returns how long the token's exp claim says it stays valid
// from now, or zero when the token is absent, malformed, already expired,
// or carries no exp claim. The signature is never verified here; expiry
// classification is a purely local concern.
func TokenLifetime(token string, now time.Time) time.Duration {
	if token == "" {
		return 0
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return 0
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	if remaining := exp.Time.Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}
