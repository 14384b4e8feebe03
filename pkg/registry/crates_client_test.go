package registry

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func loadCrateFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("Failed to load fixture: %v", err)
	}
	return string(data)
}

func TestCratesClient_Repository_Mock(t *testing.T) {
	mock := NewMockHTTPFetcher()
	mock.AddResponse("https://crates.io/api/v1/crates/serde", 200, loadCrateFixture(t, "crates_serde.json"))

	client := NewCratesClientWithFetcher(24*time.Hour, mock)

	repo, err := client.Repository(context.Background(), "serde", "1.0.195")
	if err != nil {
		t.Fatalf("Repository failed: %v", err)
	}
	if repo != "https://github.com/serde-rs/serde" {
		t.Errorf("Expected serde repository, got %q", repo)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(reqs))
	}
	if ua := reqs[0].Header.Get("User-Agent"); !strings.HasPrefix(ua, "licensepage/") {
		t.Errorf("Expected licensepage User-Agent, got %q", ua)
	}
}

func TestCratesClient_Repository_Cached(t *testing.T) {
	mock := NewMockHTTPFetcher()
	mock.AddResponse("https://crates.io/api/v1/crates/serde", 200, loadCrateFixture(t, "crates_serde.json"))

	client := NewCratesClientWithFetcher(time.Hour, mock)
	for _, v := range []string{"1.0.195", "1.0.200", ""} {
		if _, err := client.Repository(context.Background(), "serde", v); err != nil {
			t.Fatalf("Repository(%q) failed: %v", v, err)
		}
	}
	if n := len(mock.Requests()); n != 1 {
		t.Errorf("Expected a single registry request, got %d", n)
	}
}

func TestCratesClient_Repository_HomepageFallback(t *testing.T) {
	mock := NewMockHTTPFetcher()
	mock.AddResponse("https://crates.io/api/v1/crates/tiny", 200, loadCrateFixture(t, "crates_homepage_only.json"))

	client := NewCratesClientWithFetcher(time.Hour, mock)
	repo, err := client.Repository(context.Background(), "tiny", "0.1.0")
	if err != nil {
		t.Fatalf("Repository failed: %v", err)
	}
	if repo != "https://tiny.example.org" {
		t.Errorf("Expected homepage fallback, got %q", repo)
	}
}

func TestCratesClient_Repository_Error(t *testing.T) {
	mock := NewMockHTTPFetcher()
	mock.AddError("https://crates.io/api/v1/crates/nonexistent", errors.New("rate limit exceeded"))

	client := NewCratesClientWithFetcher(24*time.Hour, mock)

	_, err := client.Repository(context.Background(), "nonexistent", "1.0.0")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestCratesClient_Repository_404(t *testing.T) {
	mock := NewMockHTTPFetcher()
	mock.AddResponse("https://crates.io/api/v1/crates/nonexistent", 404, "Not Found")

	client := NewCratesClientWithFetcher(24*time.Hour, mock)

	_, err := client.Repository(context.Background(), "nonexistent", "1.0.0")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestCratesClient_Repository_ServerError(t *testing.T) {
	mock := NewMockHTTPFetcher()
	mock.AddResponse("https://crates.io/api/v1/crates/serde", 503, "unavailable")

	client := NewCratesClientWithFetcher(time.Hour, mock)
	_, err := client.Repository(context.Background(), "serde", "1.0.195")
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("Expected status error, got %v", err)
	}
}

func TestCratesClient_Repository_VersionNotFound(t *testing.T) {
	mock := NewMockHTTPFetcher()
	mock.AddResponse("https://crates.io/api/v1/crates/serde", 200, loadCrateFixture(t, "crates_serde.json"))

	client := NewCratesClientWithFetcher(24*time.Hour, mock)

	_, err := client.Repository(context.Background(), "serde", "999.0.0")
	if !errors.Is(err, ErrVersionNotFound) {
		t.Fatalf("Expected ErrVersionNotFound, got %v", err)
	}
}

func TestCratesClient_Repository_BadJSON(t *testing.T) {
	mock := NewMockHTTPFetcher()
	mock.AddResponse("https://crates.io/api/v1/crates/serde", 200, "{not json")

	client := NewCratesClientWithFetcher(time.Hour, mock)
	if _, err := client.Repository(context.Background(), "serde", ""); err == nil {
		t.Fatal("Expected decode error")
	}
}

func TestCratesClient_Repository_CancelledContext(t *testing.T) {
	mock := NewMockHTTPFetcher()
	mock.AddResponse("https://crates.io/api/v1/crates/serde", 200, loadCrateFixture(t, "crates_serde.json"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewCratesClientWithFetcher(time.Hour, mock)
	if _, err := client.Repository(ctx, "serde", ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestCratesClient_WithBaseURL(t *testing.T) {
	mock := NewMockHTTPFetcher()
	mock.AddResponse("https://mirror.example.com/api/v1/crates/serde", 200, loadCrateFixture(t, "crates_serde.json"))

	client := NewCratesClientWithFetcher(time.Hour, mock).WithBaseURL("https://mirror.example.com/api/v1/")
	if _, err := client.Repository(context.Background(), "serde", "1.0.200"); err != nil {
		t.Fatalf("Repository via mirror failed: %v", err)
	}
}

func TestNewClient(t *testing.T) {
	if NewClient(0, time.Minute) == nil {
		t.Fatal("Expected a client")
	}
}
