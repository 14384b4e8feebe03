package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultCratesBaseURL is the crates.io API root.
const DefaultCratesBaseURL = "https://crates.io/api/v1"

// CratesClient implements Client for crates.io registry
type CratesClient struct {
	baseURL string
	cache   map[string]*cacheEntry
	mu      sync.RWMutex
	ttl     time.Duration
	fetcher HTTPFetcher
}

// NewCratesClientWithFetcher creates a CratesClient with injectable HTTP for testing
func NewCratesClientWithFetcher(ttl time.Duration, fetcher HTTPFetcher) *CratesClient {
	return &CratesClient{
		baseURL: DefaultCratesBaseURL,
		cache:   make(map[string]*cacheEntry),
		ttl:     ttl,
		fetcher: fetcher,
	}
}

// WithBaseURL points the client at a mirror.
func (c *CratesClient) WithBaseURL(base string) *CratesClient {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

func (c *CratesClient) Repository(ctx context.Context, name, version string) (string, error) {
	entry, err := c.lookup(ctx, name)
	if err != nil {
		return "", err
	}
	if version != "" && !entry.versions[version] {
		return "", fmt.Errorf("%w: %s %s", ErrVersionNotFound, name, version)
	}
	return entry.repository, nil
}

func (c *CratesClient) lookup(ctx context.Context, name string) (*cacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.cache[name]
	c.mu.RUnlock()

	if ok && time.Now().Before(entry.expiry) {
		return entry, nil
	}

	crateURL := fmt.Sprintf("%s/crates/%s", c.baseURL, url.PathEscape(name))

	// Create request with User-Agent (required by crates.io)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crateURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.fetcher.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch crate metadata: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("crates.io registry returned status %d", resp.StatusCode)
	}

	var crateData struct {
		Crate struct {
			Homepage   *string `json:"homepage"`
			Repository *string `json:"repository"`
		} `json:"crate"`
		Versions []struct {
			Num string `json:"num"`
		} `json:"versions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&crateData); err != nil {
		return nil, fmt.Errorf("failed to decode crate metadata: %w", err)
	}

	entry = &cacheEntry{
		versions: make(map[string]bool, len(crateData.Versions)),
		expiry:   time.Now().Add(c.ttl),
	}
	if r := crateData.Crate.Repository; r != nil && *r != "" {
		entry.repository = *r
	} else if h := crateData.Crate.Homepage; h != nil {
		entry.repository = *h
	}
	for _, v := range crateData.Versions {
		entry.versions[v.Num] = true
	}

	c.mu.Lock()
	c.cache[name] = entry
	c.mu.Unlock()

	return entry, nil
}
