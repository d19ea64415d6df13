package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultedConfig(t *testing.T) (*Configuration, *viper.Viper) {
	t.Helper()
	v := viper.New()
	SetupViper(v, "")
	cfg, err := New(v)
	require.NoError(t, err)
	return cfg, v
}

func TestFullConfig(t *testing.T) {
	cfg, _ := newDefaultedConfig(t)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout())
	assert.Equal(t, "file", cfg.Credentials.Backend)
	assert.Equal(t, "credentials.json", cfg.Credentials.File)
	assert.Equal(t, 5, cfg.Reconcile.MaxWorkers)
	assert.Equal(t, 60, cfg.Reconcile.CacheTTLSeconds)
	assert.Equal(t, "static/network-params", cfg.SchemaDirectory)
	assert.Equal(t, 30, cfg.TokenRefreshMinutes)
	assert.False(t, cfg.Metrics.Prometheus.Enabled())
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestNetworkOverrides(t *testing.T) {
	v := viper.New()
	SetupViper(v, "")
	v.Set("networks.ironsource.secret_key", "sk-1")
	v.Set("networks.ironsource.refresh_token", "rt-1")
	v.Set("networks.pangle.endpoint", "http://localhost:9999")

	cfg, err := New(v)
	require.NoError(t, err)

	ironsource := cfg.Network("ironsource")
	assert.Equal(t, "sk-1", ironsource.SecretKey)
	assert.Equal(t, "rt-1", ironsource.RefreshToken)
	assert.Equal(t, "http://localhost:9999", cfg.Network("pangle").Endpoint)
	assert.Equal(t, Network{}, cfg.Network("unknown"), "missing networks read as zero")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("ADHUB_NETWORKS_MINTEGRAL_API_KEY", "skey-from-env")

	v := viper.New()
	SetupViper(v, "")
	cfg, err := New(v)
	require.NoError(t, err)

	assert.Equal(t, "skey-from-env", cfg.Network("mintegral").APIKey)
}

func TestValidation(t *testing.T) {
	testCases := []struct {
		description string
		mutate      func(v *viper.Viper)
	}{
		{
			description: "bad port",
			mutate:      func(v *viper.Viper) { v.Set("port", 0) },
		},
		{
			description: "unknown credentials backend",
			mutate:      func(v *viper.Viper) { v.Set("credentials.backend", "dynamo") },
		},
		{
			description: "file backend without path",
			mutate:      func(v *viper.Viper) { v.Set("credentials.file", "") },
		},
		{
			description: "redis backend without addr",
			mutate:      func(v *viper.Viper) { v.Set("credentials.backend", "redis") },
		},
		{
			description: "zero workers",
			mutate:      func(v *viper.Viper) { v.Set("reconcile.max_workers", 0) },
		},
		{
			description: "rate limit enabled without budget",
			mutate:      func(v *viper.Viper) { v.Set("rate_limit.max_requests_per_second", 0) },
		},
	}

	for _, test := range testCases {
		v := viper.New()
		SetupViper(v, "")
		test.mutate(v)
		_, err := New(v)
		assert.Error(t, err, test.description)
	}
}

func TestRedisBackendValidates(t *testing.T) {
	v := viper.New()
	SetupViper(v, "")
	v.Set("credentials.backend", "redis")
	v.Set("credentials.redis.addr", "localhost:6379")

	cfg, err := New(v)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Credentials.Backend)
}
