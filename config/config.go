package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration is the full runtime configuration of the hub. Values come
// from adhub.yaml, overridden by ADHUB_* environment variables; secret
// material is expected from the environment only.
type Configuration struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	AdminPort  int    `mapstructure:"admin_port"`
	EnableGzip bool   `mapstructure:"enable_gzip"`

	Client      HTTPClient         `mapstructure:"http_client"`
	Credentials Credentials        `mapstructure:"credentials"`
	Networks    map[string]Network `mapstructure:"networks"`
	Reconcile   Reconcile          `mapstructure:"reconcile"`
	Metrics     Metrics            `mapstructure:"metrics"`
	RateLimit   RateLimit          `mapstructure:"rate_limit"`
	CORS        CORS               `mapstructure:"cors"`
	StoreMeta   StoreMeta          `mapstructure:"storemeta"`

	// SchemaDirectory holds the per-network payload schemas.
	SchemaDirectory string `mapstructure:"schema_directory"`

	// TokenRefreshMinutes is the background refresher interval; zero
	// disables the task.
	TokenRefreshMinutes int `mapstructure:"token_refresh_minutes"`
}

type HTTPClient struct {
	TimeoutMS           int `mapstructure:"timeout_ms"`
	MaxConns            int `mapstructure:"max_connections"`
	MaxConnsPerHost     int `mapstructure:"max_connections_per_host"`
	IdleConnTimeoutSecs int `mapstructure:"idle_connection_timeout_seconds"`
}

// Timeout returns the per-call timeout as a duration.
func (c HTTPClient) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

type Credentials struct {
	// Backend selects where refreshed tokens persist: "file" or "redis".
	Backend string `mapstructure:"backend"`
	File    string `mapstructure:"file"`
	Redis   Redis  `mapstructure:"redis"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Network holds one ad network's settings. The credential fields are a
// union across the auth families; each network reads the ones its family
// needs and ignores the rest.
type Network struct {
	// Endpoint overrides the network's production base URL, mainly for
	// tests and staging consoles.
	Endpoint string `mapstructure:"endpoint"`
	Disabled bool   `mapstructure:"disabled"`

	SecretKey    string `mapstructure:"secret_key"`
	RefreshToken string `mapstructure:"refresh_token"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	AccountID    string `mapstructure:"account_id"`
	UserID       string `mapstructure:"user_id"`
	RoleID       string `mapstructure:"role_id"`
	APIKey       string `mapstructure:"api_key"`
	DeveloperID  string `mapstructure:"developer_id"`
	Token        string `mapstructure:"token"`
}

type Reconcile struct {
	MaxWorkers      int `mapstructure:"max_workers"`
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
	CacheSizeMB     int `mapstructure:"cache_size_mb"`
}

type Metrics struct {
	Influx     Influx     `mapstructure:"influxdb"`
	Prometheus Prometheus `mapstructure:"prometheus"`
}

type Influx struct {
	Host            string `mapstructure:"host"`
	Database        string `mapstructure:"database"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
}

type Prometheus struct {
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Subsystem string `mapstructure:"subsystem"`
}

// Enabled reports whether the Prometheus listener should start.
func (p Prometheus) Enabled() bool {
	return p.Port > 0
}

type RateLimit struct {
	Enabled bool    `mapstructure:"enabled"`
	MaxRPS  float64 `mapstructure:"max_requests_per_second"`
}

type CORS struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type StoreMeta struct {
	Endpoint        string `mapstructure:"endpoint"`
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes"`
}

// New builds and validates the configuration from an already set-up viper.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (cfg *Configuration) validate() error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	switch cfg.Credentials.Backend {
	case "file":
		if cfg.Credentials.File == "" {
			return errors.New("credentials.file is required with the file backend")
		}
	case "redis":
		if cfg.Credentials.Redis.Addr == "" {
			return errors.New("credentials.redis.addr is required with the redis backend")
		}
	default:
		return fmt.Errorf("unknown credentials backend %q", cfg.Credentials.Backend)
	}
	if cfg.Reconcile.MaxWorkers <= 0 {
		return fmt.Errorf("reconcile.max_workers must be positive, got %d", cfg.Reconcile.MaxWorkers)
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.MaxRPS <= 0 {
		return errors.New("rate_limit.max_requests_per_second must be positive when enabled")
	}
	return nil
}

// Network returns a network's settings; missing entries come back zero so
// the adapter reports the missing credentials itself.
func (cfg *Configuration) Network(name string) Network {
	if cfg.Networks == nil {
		return Network{}
	}
	return cfg.Networks[name]
}

// SetupViper sets the default for every config value and wires environment
// overrides. Pass the config file name without extension, or "" to skip
// file loading (tests do this).
func SetupViper(v *viper.Viper, filename string) {
	if filename != "" {
		v.SetConfigName(filename)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/config")
	}

	v.SetDefault("host", "")
	v.SetDefault("port", 8000)
	v.SetDefault("admin_port", 6060)
	v.SetDefault("enable_gzip", false)

	v.SetDefault("http_client.timeout_ms", 30000)
	v.SetDefault("http_client.max_connections", 50)
	v.SetDefault("http_client.max_connections_per_host", 10)
	v.SetDefault("http_client.idle_connection_timeout_seconds", 60)

	v.SetDefault("credentials.backend", "file")
	v.SetDefault("credentials.file", "credentials.json")
	v.SetDefault("credentials.redis.addr", "")
	v.SetDefault("credentials.redis.password", "")
	v.SetDefault("credentials.redis.db", 0)
	v.SetDefault("credentials.redis.prefix", "adhub-cred")

	v.SetDefault("reconcile.max_workers", 5)
	v.SetDefault("reconcile.cache_ttl_seconds", 60)
	v.SetDefault("reconcile.cache_size_mb", 16)

	v.SetDefault("metrics.influxdb.host", "")
	v.SetDefault("metrics.influxdb.database", "")
	v.SetDefault("metrics.influxdb.username", "")
	v.SetDefault("metrics.influxdb.password", "")
	v.SetDefault("metrics.influxdb.interval_seconds", 10)
	v.SetDefault("metrics.prometheus.port", 0)
	v.SetDefault("metrics.prometheus.namespace", "adhub")
	v.SetDefault("metrics.prometheus.subsystem", "hub")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.max_requests_per_second", 20)

	v.SetDefault("cors.allowed_origins", []string{})

	v.SetDefault("storemeta.endpoint", "https://itunes.apple.com")
	v.SetDefault("storemeta.cache_ttl_minutes", 60)

	v.SetDefault("schema_directory", "static/network-params")
	v.SetDefault("token_refresh_minutes", 30)

	// Every network key needs a default or viper will not surface its
	// environment override during Unmarshal.
	networks := []string{"ironsource", "admob", "pangle", "mintegral", "bigoads", "inmobi", "fyber", "unity", "vungle"}
	credentialKeys := []string{
		"endpoint", "secret_key", "refresh_token", "client_id", "client_secret",
		"account_id", "user_id", "role_id", "api_key", "developer_id", "token",
	}
	for _, network := range networks {
		v.SetDefault("networks."+network+".disabled", false)
		for _, key := range credentialKeys {
			v.SetDefault("networks."+network+"."+key, "")
		}
	}

	v.SetEnvPrefix("ADHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.ReadInConfig()
}
