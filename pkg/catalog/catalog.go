// Package catalog is a client for an external satellite catalog service
// (UDL-style): TLE/mean-element lookups by satellite number over HTTP Basic
// auth, cached by (satNo, dateKey) with a 1h TTL. Lookup failures are
// tolerated — callers continue with prior data rather than aborting.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Elset is one element-set record as returned by the catalog service.
type Elset struct {
	Line1          string    `json:"line1"`
	Line2          string    `json:"line2"`
	InclinationDeg float64   `json:"inclination"`
	Eccentricity   float64   `json:"eccentricity"`
	PeriodMin      float64   `json:"period"`
	ApogeeKm       float64   `json:"apogee"`
	PerigeeKm      float64   `json:"perigee"`
	Epoch          time.Time `json:"epoch"`
	Source         string    `json:"source"`
}

const cacheTTL = time.Hour

type cacheEntry struct {
	elset     *Elset
	expiresAt time.Time
}

// Client calls the catalog service's /elset endpoints.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// New creates a Client against baseURL (no trailing slash) with HTTP Basic
// credentials.
func New(baseURL, username, password string) *Client {
	return &Client{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      make(map[string]cacheEntry),
	}
}

// dateKey buckets a time to the day for cache-key purposes per §8's
// (satNo, dateKey) cache.
func dateKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

func cacheKey(satNo int, key string) string { return fmt.Sprintf("%d|%s", satNo, key) }

// Current fetches the current element set for satNo. Returns (nil, nil) —
// not an error — when the upstream call fails or returns nothing, per the
// tolerant-of-failure contract: callers continue with prior data.
func (c *Client) Current(ctx context.Context, satNo int) (*Elset, error) {
	key := cacheKey(satNo, dateKey(time.Now()))
	if cached, ok := c.fromCache(key); ok {
		return cached, nil
	}

	u := fmt.Sprintf("%s/elset/current?satNo=%d", c.baseURL, satNo)
	elset, err := c.fetchOne(ctx, u)
	if err != nil {
		return nil, nil
	}
	c.store(key, elset)
	return elset, nil
}

// History fetches the most recent element set at or before asOf, ordered by
// epoch descending, limit 1. Same tolerant-of-failure contract as Current.
func (c *Client) History(ctx context.Context, satNo int, asOf time.Time) (*Elset, error) {
	key := cacheKey(satNo, dateKey(asOf))
	if cached, ok := c.fromCache(key); ok {
		return cached, nil
	}

	epochRange := fmt.Sprintf("%s/%s", url.QueryEscape(asOf.Add(-30*24*time.Hour).Format(time.RFC3339)), url.QueryEscape(asOf.Format(time.RFC3339)))
	u := fmt.Sprintf("%s/elset/history?satNo=%d&epoch=%s&orderBy=epoch+desc&limit=1", c.baseURL, satNo, epochRange)
	elset, err := c.fetchOne(ctx, u)
	if err != nil {
		return nil, nil
	}
	c.store(key, elset)
	return elset, nil
}

func (c *Client) fetchOne(ctx context.Context, rawURL string) (*Elset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("catalog: upstream status %d", resp.StatusCode)
	}

	var elsets []Elset
	if err := json.NewDecoder(resp.Body).Decode(&elsets); err != nil {
		return nil, err
	}
	if len(elsets) == 0 {
		return nil, fmt.Errorf("catalog: no elsets returned")
	}
	return &elsets[0], nil
}

func (c *Client) fromCache(key string) (*Elset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.elset, true
}

func (c *Client) store(key string, elset *Elset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{elset: elset, expiresAt: time.Now().Add(cacheTTL)}
}
