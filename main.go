package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/go-redis/redis"
	"github.com/golang/glog"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/auth"
	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	"github.com/SC-Dawoony/ad-network-hub-sub000/credstore"
	"github.com/SC-Dawoony/ad-network-hub-sub000/endpoints"
	"github.com/SC-Dawoony/ad-network-hub-sub000/metrics"
	"github.com/SC-Dawoony/ad-network-hub-sub000/reconcile"
	"github.com/SC-Dawoony/ad-network-hub-sub000/registry"
	"github.com/SC-Dawoony/ad-network-hub-sub000/router"
	"github.com/SC-Dawoony/ad-network-hub-sub000/server"
	"github.com/SC-Dawoony/ad-network-hub-sub000/storemeta"
	"github.com/SC-Dawoony/ad-network-hub-sub000/util/task"
)

// Rev holds binary revision string
// Set manually at build time using:
//    go build -ldflags "-X main.Rev=`git rev-parse --short HEAD`"
var Rev string

// Version holds the release tag, set the same way.
var Version string

func init() {
	rand.Seed(time.Now().UnixNano())
}

func main() {
	flag.Parse() // required for glog flags and testing package flags

	// Network credentials ride in on ADHUB_* variables; a local .env file
	// feeds them during development.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("Configuration could not be loaded or did not pass validation: %v", err)
	}

	if err := serve(cfg); err != nil {
		glog.Exitf("ad-network-hub failed: %v", err)
	}
}

const configFileName = "adhub"

func loadConfig() (*config.Configuration, error) {
	v := viper.New()
	config.SetupViper(v, configFileName)
	return config.New(v)
}

func serve(cfg *config.Configuration) error {
	client := newHTTPClient(cfg)

	store, err := newCredStore(cfg)
	if err != nil {
		return fmt.Errorf("credential store: %v", err)
	}

	validator, err := adapters.NewParamsValidator(cfg.SchemaDirectory, registry.SupportedNetworks())
	if err != nil {
		return fmt.Errorf("network params validator: %v", err)
	}

	engine, prom := metrics.New(cfg.Metrics)

	reg, err := registry.New(cfg, adapters.BuilderDeps{
		Client:    client,
		Validator: validator,
		Store:     store,
		Metrics:   engine,
	})
	if err != nil {
		return fmt.Errorf("network registry: %v", err)
	}

	if cfg.TokenRefreshMinutes > 0 {
		refreshTask := task.NewTickerTask("token-refresh",
			time.Duration(cfg.TokenRefreshMinutes)*time.Minute,
			&auth.Refresher{Providers: reg.Providers()})
		refreshTask.Start()
		defer refreshTask.Stop()
	}

	// glog buffers writes; flush on a timer so INFO lines surface promptly.
	flushTask := task.NewTickerTaskFromFunc("glog-flush", 30*time.Second, func() error {
		glog.Flush()
		return nil
	})
	flushTask.Start()
	defer flushTask.Stop()

	r, err := router.New(cfg, router.Deps{
		Networks:   reg,
		Reconciler: reconcile.NewEngine(reg, cfg.Reconcile, engine),
		Store:      storemeta.NewClient(cfg.StoreMeta, client),
		Validator:  validator,
		Metrics:    engine,
	})
	if err != nil {
		return fmt.Errorf("router: %v", err)
	}

	// The admin listener serves the default mux: pprof through its blank
	// import, /version here.
	http.Handle("/version", endpoints.NewVersionEndpoint(Version, Rev))

	server.Listen(cfg, router.NoCache{Handler: r.Handler(cfg)}, http.DefaultServeMux, prom)
	return nil
}

func newHTTPClient(cfg *config.Configuration) *http.Client {
	return &http.Client{
		Timeout: cfg.Client.Timeout(),
		Transport: &http.Transport{
			MaxConnsPerHost:     cfg.Client.MaxConnsPerHost,
			MaxIdleConns:        cfg.Client.MaxConns,
			MaxIdleConnsPerHost: cfg.Client.MaxConnsPerHost,
			IdleConnTimeout:     time.Duration(cfg.Client.IdleConnTimeoutSecs) * time.Second,
		},
	}
}

func newCredStore(cfg *config.Configuration) (credstore.Store, error) {
	switch cfg.Credentials.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Credentials.Redis.Addr,
			Password: cfg.Credentials.Redis.Password,
			DB:       cfg.Credentials.Redis.DB,
		})
		if err := client.Ping().Err(); err != nil {
			return nil, fmt.Errorf("redis at %s: %v", cfg.Credentials.Redis.Addr, err)
		}
		return credstore.NewRedisStore(client, cfg.Credentials.Redis.Prefix), nil
	default:
		return credstore.NewFileStore(cfg.Credentials.File), nil
	}
}
