// Package registry wires every supported network once at startup. The
// builder map is segregated here so each network has one obvious place to
// register itself; nothing is discovered by reflection.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golang/glog"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/admob"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/bigoads"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/decorators"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/fyber"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/inmobi"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/ironsource"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/mintegral"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/pangle"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/unity"
	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters/vungle"
	"github.com/SC-Dawoony/ad-network-hub-sub000/auth"
	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

// Builder is the constructor every network package exposes. Networks whose
// auth family holds no session return a nil provider.
type Builder func(cfg config.Network, deps adapters.BuilderDeps) (adapters.Adapter, auth.Provider, error)

var builders = map[string]Builder{
	"admob":      admob.Builder,
	"bigoads":    bigoads.Builder,
	"fyber":      fyber.Builder,
	"inmobi":     inmobi.Builder,
	"ironsource": ironsource.Builder,
	"mintegral":  mintegral.Builder,
	"pangle":     pangle.Builder,
	"unity":      unity.Builder,
	"vungle":     vungle.Builder,
}

// mediationAliases maps the mediation platform's network identifiers onto
// the hub's canonical ids.
var mediationAliases = map[string]string{
	"IRONSOURCE_BIDDING": "ironsource",
	"BIGO_BIDDING":       "bigoads",
	"INMOBI_BIDDING":     "inmobi",
	"FYBER_BIDDING":      "fyber",
	"MINTEGRAL_BIDDING":  "mintegral",
	"PANGLE_BIDDING":     "pangle",
	"ADMOB_BIDDING":      "admob",
	"UNITY_BIDDING":      "unity",
	"VUNGLE_BIDDING":     "vungle",
}

// Registry holds the built adapters and the credential providers behind
// them.
type Registry struct {
	adapters  map[string]adapters.Adapter
	providers map[string]auth.Provider
}

// New builds every network that is not disabled in configuration. A builder
// failure is fatal: a hub that silently ran without one of its networks
// would be worse than one that refused to start. Every built adapter is
// wrapped in the panic guard, and in call metrics when deps carry an
// engine.
func New(cfg *config.Configuration, deps adapters.BuilderDeps) (*Registry, error) {
	reg := &Registry{
		adapters:  make(map[string]adapters.Adapter, len(builders)),
		providers: make(map[string]auth.Provider),
	}
	for name, build := range builders {
		netCfg := cfg.Networks[name]
		if netCfg.Disabled {
			glog.Infof("[registry] network %s disabled by config", name)
			continue
		}
		adapter, provider, err := build(netCfg, deps)
		if err != nil {
			return nil, fmt.Errorf("build %s adapter: %w", name, err)
		}
		adapter = decorators.PreventPanics(adapter)
		if deps.Metrics != nil {
			adapter = decorators.RecordMetrics(adapter, deps.Metrics)
		}
		reg.adapters[name] = adapter
		if provider != nil {
			reg.providers[name] = provider
		}
	}
	return reg, nil
}

// SupportedNetworks returns every network the hub can build, sorted,
// whether or not configuration enables it.
func SupportedNetworks() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Aliases returns a copy of the mediation alias table.
func Aliases() map[string]string {
	out := make(map[string]string, len(mediationAliases))
	for alias, network := range mediationAliases {
		out[alias] = network
	}
	return out
}

// ResolveAlias maps a mediation alias onto its canonical network id.
// Canonical ids pass through lowercased; unmapped names come back unchanged
// for Get to reject.
func ResolveAlias(network string) string {
	if actual, ok := mediationAliases[strings.ToUpper(network)]; ok {
		return actual
	}
	return strings.ToLower(network)
}

// Get returns the adapter registered under the name or its mediation alias.
func (r *Registry) Get(network string) (adapters.Adapter, error) {
	adapter, ok := r.adapters[ResolveAlias(network)]
	if !ok {
		return nil, &errortypes.UnknownNetwork{Message: fmt.Sprintf("unknown network %q", network)}
	}
	return adapter, nil
}

// Networks returns the built network ids, sorted for stable listings.
func (r *Registry) Networks() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Providers returns the credential providers keyed by network, for the
// background token refresher.
func (r *Registry) Providers() map[string]auth.Provider {
	return r.providers
}
