package registry

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/fulmenhq/licensepage/pkg/buildinfo"
)

var (
	// ErrNotFound is returned when the registry does not know the crate.
	ErrNotFound = errors.New("crate not found in registry")
	// ErrVersionNotFound is returned when the crate exists but the version does not.
	ErrVersionNotFound = errors.New("version not found in registry")
)

// Client looks up crate metadata missing from cargo's view.
type Client interface {
	// Repository returns the source repository URL of a published crate,
	// falling back to its homepage. An empty string means neither is set.
	Repository(ctx context.Context, name, version string) (string, error)
}

// Cache entry
type cacheEntry struct {
	repository string
	versions   map[string]bool
	expiry     time.Time
}

// UserAgent identifies this tool to crates.io, which rejects anonymous clients.
func UserAgent() string {
	return "licensepage/" + buildinfo.BinaryVersion + " (https://github.com/fulmenhq/licensepage)"
}

// NewClient creates a crates.io client with real HTTP.
func NewClient(timeout, ttl time.Duration) Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	// Secure HTTP client with timeout and TLS verification
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
	return NewCratesClientWithFetcher(ttl, NewRealHTTPFetcher(client))
}
