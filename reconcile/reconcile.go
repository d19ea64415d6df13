// Package reconcile matches mediation-layer ad units to their counterpart
// apps and units inside each monetization network, producing the settings
// rows the mediation console imports.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coocood/freecache"
	"github.com/gofrs/uuid"
	"github.com/golang/glog"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	"github.com/SC-Dawoony/ad-network-hub-sub000/metrics"
)

// Row outcomes.
const (
	OutcomeMatched      = "matched"
	OutcomeAppNotFound  = "app_not_found"
	OutcomeUnitNotFound = "unit_not_found"
	OutcomeError        = "error"
)

// AdvisoryMultipleMatches marks a row whose unit was picked from several
// same-format candidates by return order, not by a platform marker.
const AdvisoryMultipleMatches = "multiple_matches"

// maxWorkers caps the worker pool no matter how many networks one batch
// targets; each worker owns every task of the networks it draws.
const maxWorkers = 5

// SourceUnit is one mediation ad unit to resolve against the target
// networks.
type SourceUnit struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Platform    string `json:"platform"`
	AdFormat    string `json:"ad_format"`
	PackageName string `json:"package_name"`
}

// Row is one mediation settings row: the source unit plus the identifiers
// resolved from one target network.
type Row struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Platform    string `json:"platform"`
	AdFormat    string `json:"ad_format"`
	PackageName string `json:"package_name"`

	AdNetwork     string  `json:"ad_network"`
	NetworkAppID  string  `json:"ad_network_app_id"`
	NetworkAppKey string  `json:"ad_network_app_key"`
	NetworkUnitID string  `json:"ad_unit_id"`
	CountriesType string  `json:"countries_type"`
	Countries     string  `json:"countries"`
	CPM           float64 `json:"cpm"`
	SegmentName   string  `json:"segment_name"`
	SegmentID     string  `json:"segment_id"`
	Disabled      string  `json:"disabled"`

	Outcome  string `json:"outcome"`
	Advisory string `json:"advisory,omitempty"`
	Err      string `json:"error,omitempty"`
}

// Batch is the outcome of one ResolveAll call: every row of the run plus
// the identifier its log lines carry.
type Batch struct {
	ID      string `json:"batch_id"`
	Tasks   int    `json:"tasks"`
	Matched int    `json:"matched"`
	Rows    []Row  `json:"rows"`
}

// AdapterSource hands out the adapter registered under a network name or
// its mediation alias.
type AdapterSource interface {
	Get(network string) (adapters.Adapter, error)
}

// Engine resolves batches of source units against target networks.
type Engine struct {
	source   AdapterSource
	cache    *freecache.Cache
	cacheTTL int
	workers  int
	metrics  metrics.Engine
}

// NewEngine builds the engine. A nil metrics engine is replaced with the
// discarding one.
func NewEngine(source AdapterSource, cfg config.Reconcile, me metrics.Engine) *Engine {
	if me == nil {
		me = metrics.NilEngine{}
	}
	sizeMB := cfg.CacheSizeMB
	if sizeMB <= 0 {
		sizeMB = 16
	}
	ttl := cfg.CacheTTLSeconds
	if ttl <= 0 {
		ttl = 60
	}
	workers := cfg.MaxWorkers
	if workers <= 0 || workers > maxWorkers {
		workers = maxWorkers
	}
	return &Engine{
		source:   source,
		cache:    freecache.NewCache(sizeMB * 1024 * 1024),
		cacheTTL: ttl,
		workers:  workers,
		metrics:  me,
	}
}

// ResolveAll runs every (source unit, target network) task and returns once
// all of them finished. Rows come back sorted by network, platform and
// format so repeated runs produce identical output.
func (e *Engine) ResolveAll(ctx context.Context, sourceUnits []SourceUnit, targetNetworks []string) Batch {
	start := time.Now()
	batchID := newBatchID()

	networks := dedupe(targetNetworks)
	total := len(sourceUnits) * len(networks)
	if total == 0 {
		return Batch{ID: batchID, Rows: []Row{}}
	}
	glog.Infof("[reconcile] batch %s: %d units x %d networks", batchID, len(sourceUnits), len(networks))

	// The channel buffers every row of the batch, so no worker ever
	// blocks on the collector.
	rowCh := make(chan Row, total)
	networkCh := make(chan string)

	workers := e.workers
	if workers > len(networks) {
		workers = len(networks)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for network := range networkCh {
				for _, source := range sourceUnits {
					rowCh <- e.resolveSafely(ctx, batchID, network, source)
				}
			}
		}()
	}
	for _, network := range networks {
		networkCh <- network
	}
	close(networkCh)
	wg.Wait()
	close(rowCh)

	rows := make([]Row, 0, total)
	matched := 0
	for row := range rowCh {
		if row.Outcome == OutcomeMatched {
			matched++
		}
		rows = append(rows, row)
	}
	sortRows(rows)

	length := time.Since(start)
	e.metrics.RecordReconcileBatch(total, matched, length)
	glog.Infof("[reconcile] batch %s finished: %d/%d matched in %s", batchID, matched, total, length)
	return Batch{ID: batchID, Tasks: total, Matched: matched, Rows: rows}
}

// resolveSafely isolates one task: a panic becomes that task's error row
// and the siblings never notice.
func (e *Engine) resolveSafely(ctx context.Context, batchID, network string, source SourceUnit) (row Row) {
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("[reconcile] batch %s recovered panic from network %s, unit %s: %v. Stack trace is: %v",
				batchID, network, source.ID, r, string(debug.Stack()))
			row = newRow(source, network)
			row.Outcome = OutcomeError
			row.Err = fmt.Sprintf("panic: %v", r)
		}
	}()
	return e.resolve(ctx, network, source)
}

func (e *Engine) resolve(ctx context.Context, network string, source SourceUnit) Row {
	row := newRow(source, network)

	adapter, err := e.source.Get(network)
	if err != nil {
		row.Outcome = OutcomeError
		row.Err = err.Error()
		return row
	}

	platform := source.Platform
	if normalized, ok := adapters.NormalizePlatform(platform); ok {
		platform = normalized
	} else {
		platform = strings.ToLower(platform)
	}

	apps, err := e.listApps(ctx, adapter)
	if err != nil {
		row.Outcome = OutcomeError
		row.Err = err.Error()
		return row
	}

	app, found := matchApp(apps, source, platform)
	if !found {
		row.Outcome = OutcomeAppNotFound
		return row
	}
	fillAppFields(&row, adapter.Name(), app)

	units, err := e.listUnits(ctx, adapter, unitLookupID(adapter.Name(), app))
	if err != nil {
		row.Outcome = OutcomeError
		row.Err = err.Error()
		return row
	}

	unit, advisory, found := matchUnit(units, NetworkFormat(adapter.Name(), source.AdFormat), platform)
	if !found {
		row.Outcome = OutcomeUnitNotFound
		return row
	}
	row.NetworkUnitID = unit.ID
	row.Advisory = advisory
	row.Outcome = OutcomeMatched
	return row
}

// matchApp resolves the source against the network's app records: exact
// case-insensitive package match first, display-name substring second, with
// a platform filter whenever the record exposes one.
func matchApp(apps []adapters.App, source SourceUnit, platform string) (adapters.App, bool) {
	pkg := strings.TrimSpace(source.PackageName)
	if pkg != "" {
		for _, app := range apps {
			if app.PackageName == "" || !strings.EqualFold(app.PackageName, pkg) {
				continue
			}
			if platformMismatch(app, platform) {
				continue
			}
			return app, true
		}
	}

	name := strings.ToLower(strings.TrimSpace(source.Name))
	if name != "" {
		for _, app := range apps {
			if app.Name == "" || !strings.Contains(strings.ToLower(app.Name), name) {
				continue
			}
			if platformMismatch(app, platform) {
				continue
			}
			return app, true
		}
	}
	return adapters.App{}, false
}

// platformMismatch is false when either side has no platform to compare.
func platformMismatch(app adapters.App, platform string) bool {
	if platform == "" || app.Platform == "" {
		return false
	}
	appPlatform := app.Platform
	if normalized, ok := adapters.NormalizePlatform(appPlatform); ok {
		appPlatform = normalized
	} else {
		appPlatform = strings.ToLower(appPlatform)
	}
	return appPlatform != platform
}

// matchUnit filters units by the network-vocabulary format. Several
// candidates are common when one app carries both platforms' units; the
// platform marker in the unit name breaks the tie, else the first candidate
// wins with an advisory.
func matchUnit(units []adapters.Unit, target, platform string) (adapters.Unit, string, bool) {
	candidates := make([]adapters.Unit, 0, 2)
	for _, unit := range units {
		if strings.EqualFold(unit.Format, target) {
			candidates = append(candidates, unit)
		}
	}

	switch len(candidates) {
	case 0:
		return adapters.Unit{}, "", false
	case 1:
		return candidates[0], "", true
	}

	marker := "_ios_"
	if platform == adapters.PlatformAndroid {
		marker = "_aos_"
	}
	for _, unit := range candidates {
		if strings.Contains(strings.ToLower(unit.Name), marker) {
			return unit, "", true
		}
	}
	return candidates[0], AdvisoryMultipleMatches, true
}

// fillAppFields copies the identifiers the network's settings row needs
// from the resolved app. They stay on the row even when no unit matches.
func fillAppFields(row *Row, network string, app adapters.App) {
	switch network {
	case "ironsource":
		row.NetworkAppID = app.ID
		row.NetworkAppKey = app.ID
		if appKey := app.Extra["appKey"]; appKey != "" {
			row.NetworkAppKey = appKey
		}
	case "bigoads":
		row.NetworkAppID = app.ID
		if appID := app.Extra["appId"]; appID != "" {
			row.NetworkAppKey = appID
		}
	default:
		row.NetworkAppID = app.ID
	}
}

// unitLookupID picks the identifier the network's unit listing is keyed
// by. Unity lists placements per project, not per store row.
func unitLookupID(network string, app adapters.App) string {
	if network == "unity" {
		if projectID := app.Extra["projectId"]; projectID != "" {
			return projectID
		}
	}
	return app.ID
}

func (e *Engine) listApps(ctx context.Context, adapter adapters.Adapter) ([]adapters.App, error) {
	key := []byte("apps|" + adapter.Name())
	if cached, err := e.cache.Get(key); err == nil {
		var apps []adapters.App
		if err := json.Unmarshal(cached, &apps); err == nil {
			return apps, nil
		}
	}

	apps, err := adapter.ListApps(ctx, adapters.Filter{})
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(apps); err == nil {
		e.cache.Set(key, encoded, e.cacheTTL)
	}
	return apps, nil
}

func (e *Engine) listUnits(ctx context.Context, adapter adapters.Adapter, appID string) ([]adapters.Unit, error) {
	key := []byte("units|" + adapter.Name() + "|" + appID)
	if cached, err := e.cache.Get(key); err == nil {
		var units []adapters.Unit
		if err := json.Unmarshal(cached, &units); err == nil {
			return units, nil
		}
	}

	units, err := adapter.ListUnits(ctx, appID)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(units); err == nil {
		e.cache.Set(key, encoded, e.cacheTTL)
	}
	return units, nil
}

func newRow(source SourceUnit, network string) Row {
	return Row{
		ID:          source.ID,
		Name:        source.Name,
		Platform:    source.Platform,
		AdFormat:    source.AdFormat,
		PackageName: source.PackageName,
		AdNetwork:   network,
		CPM:         0,
		Disabled:    "FALSE",
	}
}

func newBatchID() string {
	rawUuid, err := uuid.NewV4()
	if err != nil {
		glog.Warningf("[reconcile] batch id generation failed: %v", err)
		return "unknown"
	}
	return rawUuid.String()
}

func dedupe(networks []string) []string {
	seen := make(map[string]struct{}, len(networks))
	out := make([]string, 0, len(networks))
	for _, network := range networks {
		if _, ok := seen[network]; ok {
			continue
		}
		seen[network] = struct{}{}
		out = append(out, network)
	}
	return out
}

var (
	platformOrder = map[string]int{"android": 0, "ios": 1}
	adFormatOrder = map[string]int{"REWARD": 0, "INTER": 1, "BANNER": 2}
)

func sortRows(rows []Row) {
	formatRank := func(format string) int {
		if position, ok := adFormatOrder[format]; ok {
			return position
		}
		return 99
	}
	// Rows keep the caller's platform spelling, so ranking normalizes.
	platformRank := func(platform string) int {
		if normalized, ok := adapters.NormalizePlatform(platform); ok {
			if position, ok := platformOrder[normalized]; ok {
				return position
			}
		}
		return 99
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AdNetwork != rows[j].AdNetwork {
			return rows[i].AdNetwork < rows[j].AdNetwork
		}
		left, right := platformRank(rows[i].Platform), platformRank(rows[j].Platform)
		if left != right {
			return left < right
		}
		return formatRank(rows[i].AdFormat) < formatRank(rows[j].AdFormat)
	})
}
