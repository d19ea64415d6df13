package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SC-Dawoony/ad-network-hub-sub000/credstore"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
	"github.com/SC-Dawoony/ad-network-hub-sub000/util/timeutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-test-key"))
	require.NoError(t, err)
	return signed
}

func TestTokenLifetimeClassification(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		description  string
		token        string
		needsRefresh bool
	}{
		{
			description:  "two hours out is valid",
			token:        mintToken(t, jwt.MapClaims{"exp": now.Add(2 * time.Hour).Unix()}),
			needsRefresh: false,
		},
		{
			description:  "thirty minutes out is inside the margin",
			token:        mintToken(t, jwt.MapClaims{"exp": now.Add(30 * time.Minute).Unix()}),
			needsRefresh: true,
		},
		{
			description:  "already expired",
			token:        mintToken(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()}),
			needsRefresh: true,
		},
		{
			description:  "missing exp claim counts as expired",
			token:        mintToken(t, jwt.MapClaims{"sub": "publisher"}),
			needsRefresh: true,
		},
		{
			description:  "unparsable token counts as expired",
			token:        "not-a-jwt",
			needsRefresh: true,
		},
		{
			description:  "empty token counts as expired",
			token:        "",
			needsRefresh: true,
		},
	}

	margin := time.Hour
	for _, test := range testCases {
		needsRefresh := TokenLifetime(test.token, now) <= margin
		assert.Equal(t, test.needsRefresh, needsRefresh, test.description)
	}
}

func TestBearerCredentialsReusesFreshToken(t *testing.T) {
	var calls int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer upstream.Close()

	cached := mintToken(t, jwt.MapClaims{"exp": time.Now().Add(5 * time.Hour).Unix()})
	store := credstore.NewFileStore(filepath.Join(t.TempDir(), "creds.json"))
	require.NoError(t, store.Save(credstore.Record{Network: "ironsource", AccessToken: cached}))

	provider := NewBearerProvider(BearerConfig{
		Network:      "ironsource",
		Endpoint:     upstream.URL,
		SecretKey:    "sk",
		RefreshToken: "rt",
	}, upstream.Client(), store)

	cred, err := provider.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, cred.Token)
	assert.Equal(t, int64(0), atomic.LoadInt64(&calls), "a fresh token needs no upstream call")
}

func TestBearerCredentialsRefreshesInsideMargin(t *testing.T) {
	fresh := mintToken(t, jwt.MapClaims{"exp": time.Now().Add(24 * time.Hour).Unix()})

	var lastRequest *http.Request
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastRequest = r.Clone(context.Background())
		w.Write([]byte(`"` + fresh + `"`))
	}))
	defer upstream.Close()

	stale := mintToken(t, jwt.MapClaims{"exp": time.Now().Add(30 * time.Minute).Unix()})
	store := credstore.NewFileStore(filepath.Join(t.TempDir(), "creds.json"))
	require.NoError(t, store.Save(credstore.Record{Network: "ironsource", AccessToken: stale}))

	provider := NewBearerProvider(BearerConfig{
		Network:      "ironsource",
		Endpoint:     upstream.URL,
		SecretKey:    "sk",
		RefreshToken: "rt",
	}, upstream.Client(), store)

	cred, err := provider.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, cred.Token)

	require.NotNil(t, lastRequest)
	assert.Equal(t, "sk", lastRequest.Header.Get("secretkey"))
	assert.Equal(t, "rt", lastRequest.Header.Get("refreshToken"))

	persisted, ok, err := store.Load("ironsource")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fresh, persisted.AccessToken, "refresh must write back to the store")
}

func TestBearerRefreshWhenClockPassesMargin(t *testing.T) {
	start := time.Now()
	fresh := mintToken(t, jwt.MapClaims{"exp": start.Add(48 * time.Hour).Unix()})

	var calls int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`"` + fresh + `"`))
	}))
	defer upstream.Close()

	cached := mintToken(t, jwt.MapClaims{"exp": start.Add(24 * time.Hour).Unix()})
	store := credstore.NewFileStore(filepath.Join(t.TempDir(), "creds.json"))
	require.NoError(t, store.Save(credstore.Record{Network: "ironsource", AccessToken: cached}))

	provider := NewBearerProvider(BearerConfig{
		Network:      "ironsource",
		Endpoint:     upstream.URL,
		SecretKey:    "sk",
		RefreshToken: "rt",
	}, upstream.Client(), store)
	clock := timeutil.NewMockClockAt(start)
	provider.clock = clock

	cred, err := provider.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, cred.Token)
	require.Equal(t, int64(0), atomic.LoadInt64(&calls))

	clock.Advance(23*time.Hour + 30*time.Minute)
	cred, err = provider.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, cred.Token, "thirty minutes of remaining lifetime is inside the margin")
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))

	cred, err = provider.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, cred.Token)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "the replacement token is reused")
}

func TestBearerCredentialsRefreshesMalformedToken(t *testing.T) {
	fresh := mintToken(t, jwt.MapClaims{"exp": time.Now().Add(24 * time.Hour).Unix()})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"` + fresh + `"`))
	}))
	defer upstream.Close()

	store := credstore.NewFileStore(filepath.Join(t.TempDir(), "creds.json"))
	require.NoError(t, store.Save(credstore.Record{Network: "ironsource", AccessToken: "garbage"}))

	provider := NewBearerProvider(BearerConfig{
		Network:      "ironsource",
		Endpoint:     upstream.URL,
		SecretKey:    "sk",
		RefreshToken: "rt",
	}, upstream.Client(), store)

	cred, err := provider.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, cred.Token)
}

func TestBearerCredentialsAuthFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	provider := NewBearerProvider(BearerConfig{
		Network:      "ironsource",
		Endpoint:     upstream.URL,
		SecretKey:    "sk",
		RefreshToken: "rt",
	}, upstream.Client(), nil)

	_, err := provider.Credentials(context.Background())
	require.Error(t, err)
	assert.IsType(t, &errortypes.AuthError{}, err)
}

func TestBearerCredentialsMissingSecrets(t *testing.T) {
	provider := NewBearerProvider(BearerConfig{
		Network:  "ironsource",
		Endpoint: "http://unused.invalid",
	}, http.DefaultClient, nil)

	_, err := provider.Credentials(context.Background())
	require.Error(t, err)
	assert.IsType(t, &errortypes.ConfigError{}, err)
}

func TestBearerConcurrentRefreshCollapses(t *testing.T) {
	fresh := mintToken(t, jwt.MapClaims{"exp": time.Now().Add(24 * time.Hour).Unix()})

	var calls int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`"` + fresh + `"`))
	}))
	defer upstream.Close()

	provider := NewBearerProvider(BearerConfig{
		Network:      "ironsource",
		Endpoint:     upstream.URL,
		SecretKey:    "sk",
		RefreshToken: "rt",
	}, upstream.Client(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cred, err := provider.Credentials(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, fresh, cred.Token)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "concurrent refreshes must share one upstream call")
}

func TestBearerInvalidateForcesRefresh(t *testing.T) {
	fresh := mintToken(t, jwt.MapClaims{"exp": time.Now().Add(24 * time.Hour).Unix()})

	var calls int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`"` + fresh + `"`))
	}))
	defer upstream.Close()

	store := credstore.NewFileStore(filepath.Join(t.TempDir(), "creds.json"))
	cached := mintToken(t, jwt.MapClaims{"exp": time.Now().Add(5 * time.Hour).Unix()})
	require.NoError(t, store.Save(credstore.Record{Network: "ironsource", AccessToken: cached}))

	provider := NewBearerProvider(BearerConfig{
		Network:      "ironsource",
		Endpoint:     upstream.URL,
		SecretKey:    "sk",
		RefreshToken: "rt",
	}, upstream.Client(), store)

	provider.Invalidate()

	cred, err := provider.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, cred.Token)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}
