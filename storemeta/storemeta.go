// Package storemeta resolves App Store metadata from a numeric app id so
// iOS create-app payloads can be prefilled instead of hand-typed.
package storemeta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/coocood/freecache"
	"github.com/golang/glog"

	"github.com/SC-Dawoony/ad-network-hub-sub000/config"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

// Meta is the slice of an App Store record the networks care about.
type Meta struct {
	AppID     string `json:"app_id"`
	Name      string `json:"name"`
	BundleID  string `json:"bundle_id"`
	Developer string `json:"developer"`
	Category  string `json:"category"`
	IconURL   string `json:"icon_url"`
}

var (
	storeIDPattern = regexp.MustCompile(`/id(\d+)`)
	numericPattern = regexp.MustCompile(`^\d+$`)
)

// ExtractAppStoreID pulls the numeric app id out of an App Store URL.
func ExtractAppStoreID(storeURL string) (string, error) {
	match := storeIDPattern.FindStringSubmatch(storeURL)
	if match == nil {
		return "", &errortypes.BadInput{
			Message: fmt.Sprintf("no app id in store url %q, expected .../id1234567890", storeURL),
		}
	}
	return match[1], nil
}

// Client looks up iOS apps against the iTunes lookup endpoint. Results are
// cached; store records change rarely and the endpoint rate-limits hard.
type Client struct {
	endpoint string
	client   *http.Client
	cache    *freecache.Cache
	ttl      int
}

func NewClient(cfg config.StoreMeta, client *http.Client) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://itunes.apple.com"
	}
	ttlMinutes := cfg.CacheTTLMinutes
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &Client{
		endpoint: endpoint,
		client:   client,
		cache:    freecache.NewCache(1024 * 1024),
		ttl:      ttlMinutes * 60,
	}
}

type lookupResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		TrackName        string `json:"trackName"`
		BundleID         string `json:"bundleId"`
		ArtistName       string `json:"artistName"`
		PrimaryGenreName string `json:"primaryGenreName"`
		ArtworkURL512    string `json:"artworkUrl512"`
		ArtworkURL100    string `json:"artworkUrl100"`
	} `json:"results"`
}

// Lookup resolves one app id. A response with no results is a lookup
// failure, not an empty Meta.
func (c *Client) Lookup(ctx context.Context, appID string) (Meta, error) {
	if !numericPattern.MatchString(appID) {
		return Meta{}, &errortypes.BadInput{Message: fmt.Sprintf("app store id %q is not numeric", appID)}
	}

	key := []byte("ios|" + appID)
	if cached, err := c.cache.Get(key); err == nil {
		var meta Meta
		if err := json.Unmarshal(cached, &meta); err == nil {
			return meta, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/lookup?id="+appID, nil)
	if err != nil {
		return Meta{}, &errortypes.StoreLookup{Message: fmt.Sprintf("build lookup request: %v", err)}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Meta{}, &errortypes.TransportError{Message: fmt.Sprintf("itunes lookup unreachable: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Meta{}, &errortypes.TransportError{Message: fmt.Sprintf("read itunes response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return Meta{}, &errortypes.StoreLookup{Message: fmt.Sprintf("itunes lookup returned %d", resp.StatusCode)}
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Meta{}, &errortypes.StoreLookup{Message: fmt.Sprintf("parse itunes response: %v", err)}
	}
	if parsed.ResultCount == 0 || len(parsed.Results) == 0 {
		return Meta{}, &errortypes.StoreLookup{Message: fmt.Sprintf("no iOS app found for id %s", appID)}
	}

	result := parsed.Results[0]
	meta := Meta{
		AppID:     appID,
		Name:      result.TrackName,
		BundleID:  result.BundleID,
		Developer: result.ArtistName,
		Category:  result.PrimaryGenreName,
		IconURL:   result.ArtworkURL512,
	}
	if meta.IconURL == "" {
		meta.IconURL = result.ArtworkURL100
	}

	if encoded, err := json.Marshal(meta); err == nil {
		c.cache.Set(key, encoded, c.ttl)
	}
	glog.V(2).Infof("[storemeta] resolved %s: %s (%s)", appID, meta.Name, meta.BundleID)
	return meta, nil
}
