package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/SC-Dawoony/ad-network-hub-sub000/credstore"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
	"github.com/SC-Dawoony/ad-network-hub-sub000/util/timeutil"
	"github.com/golang/glog"
	"golang.org/x/sync/singleflight"
)

// OAuthConfig holds the client pair and refresh token for a token-exchange
// network.
type OAuthConfig struct {
	Network      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string

	// Margin is the remaining access-token lifetime that triggers a refresh.
	// Zero means one minute, which suits the ~1 hour tokens the exchange
	// issues.
	Margin time.Duration
}

// OAuthProvider implements the token-exchange family: the long-lived
// refresh token is traded for a short-lived access token at the provider's
// token endpoint. Concurrent refreshes collapse into one exchange.
type OAuthProvider struct {
	cfg    OAuthConfig
	client *http.Client
	store  credstore.Store
	clock  timeutil.Time

	group     singleflight.Group
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewOAuthProvider builds the provider and seeds its token from the
// credential store when a persisted record exists.
func NewOAuthProvider(cfg OAuthConfig, client *http.Client, store credstore.Store) *OAuthProvider {
	if cfg.Margin == 0 {
		cfg.Margin = time.Minute
	}
	p := &OAuthProvider{cfg: cfg, client: client, store: store, clock: &timeutil.RealTime{}}

	if store != nil {
		if record, ok, err := store.Load(cfg.Network); err != nil {
			glog.Warningf("%s: credential store read failed: %v", cfg.Network, err)
		} else if ok {
			p.token = record.AccessToken
			p.expiresAt = record.TokenExpiry
			if record.RefreshToken != "" && p.cfg.RefreshToken == "" {
				p.cfg.RefreshToken = record.RefreshToken
			}
		}
	}
	return p
}

func (p *OAuthProvider) Refreshable() bool {
	return true
}

func (p *OAuthProvider) Invalidate() {
	p.mu.Lock()
	p.token = ""
	p.expiresAt = time.Time{}
	p.mu.Unlock()
}

func (p *OAuthProvider) Credentials(ctx context.Context) (Credential, error) {
	if p.cfg.ClientID == "" || p.cfg.ClientSecret == "" {
		return Credential{}, &errortypes.ConfigError{
			Message: fmt.Sprintf("%s: oauth client id and secret are required", p.cfg.Network),
		}
	}
	if p.cfg.RefreshToken == "" {
		return Credential{}, &errortypes.ConfigError{
			Message: fmt.Sprintf("%s: oauth refresh token is required", p.cfg.Network),
		}
	}

	p.mu.Lock()
	token, expiresAt := p.token, p.expiresAt
	p.mu.Unlock()

	if token != "" && expiresAt.Sub(p.clock.Now()) > p.cfg.Margin {
		return Credential{Network: p.cfg.Network, Token: token, ExpiresAt: expiresAt}, nil
	}

	fresh, err, _ := p.group.Do("exchange", func() (interface{}, error) {
		return p.exchange(ctx)
	})
	if err != nil {
		return Credential{}, err
	}
	cred := fresh.(Credential)
	return cred, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (p *OAuthProvider) exchange(ctx context.Context) (interface{}, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("refresh_token", p.cfg.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &errortypes.AuthError{Message: fmt.Sprintf("%s: build exchange request: %v", p.cfg.Network, err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &errortypes.TransportError{Message: fmt.Sprintf("%s: token endpoint unreachable: %v", p.cfg.Network, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errortypes.TransportError{Message: fmt.Sprintf("%s: read exchange response: %v", p.cfg.Network, err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &errortypes.AuthError{
			Message: fmt.Sprintf("%s: token exchange returned %d", p.cfg.Network, resp.StatusCode),
		}
	}

	var issued tokenResponse
	if err := json.Unmarshal(body, &issued); err != nil {
		return nil, &errortypes.AuthError{Message: fmt.Sprintf("%s: parse exchange response: %v", p.cfg.Network, err)}
	}
	if issued.AccessToken == "" {
		return nil, &errortypes.AuthError{Message: fmt.Sprintf("%s: token exchange returned no access token", p.cfg.Network)}
	}

	expiresAt := p.clock.Now().Add(time.Duration(issued.ExpiresIn) * time.Second)

	p.mu.Lock()
	p.token = issued.AccessToken
	p.expiresAt = expiresAt
	p.mu.Unlock()

	p.persist(issued.AccessToken, expiresAt)
	glog.V(2).Infof("%s: exchanged refresh token for access token %s", p.cfg.Network, Mask(issued.AccessToken))
	return Credential{Network: p.cfg.Network, Token: issued.AccessToken, ExpiresAt: expiresAt}, nil
}

func (p *OAuthProvider) persist(token string, expiresAt time.Time) {
	if p.store == nil {
		return
	}
	record := credstore.Record{
		Network:      p.cfg.Network,
		AccessToken:  token,
		RefreshToken: p.cfg.RefreshToken,
		TokenExpiry:  expiresAt,
		UpdatedAt:    p.clock.Now(),
	}
	if err := p.store.Save(record); err != nil {
		glog.Warningf("%s: persisting refreshed token failed: %v", p.cfg.Network, err)
	}
}
