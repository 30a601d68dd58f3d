package route

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ciprian87/roadpulse/internal/roaderr"
)

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemCache() *memCache { return &memCache{m: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *memCache) MGet(_ context.Context, keys []string) (map[string][]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string][]byte{}
	for _, k := range keys {
		if v, ok := c.m[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (c *memCache) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = val
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.m, k)
	}
	return nil
}

func (c *memCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return 1, nil
}

func (c *memCache) Expire(_ context.Context, key string, _ time.Duration) error { return nil }

func TestGeocodeSuggestionsSkipsShortInput(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), newMemCache(), srv.URL, srv.URL, "key", time.Second, time.Second, zerolog.Nop())
	got, err := r.GeocodeSuggestions(context.Background(), "I9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil suggestions for short input, got %v", got)
	}
	if called {
		t.Fatal("expected upstream geocoder not to be called for input under 3 characters")
	}
}

func TestGeocodeAddressNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), newMemCache(), srv.URL, srv.URL, "key", time.Second, time.Second, zerolog.Nop())
	_, err := r.GeocodeAddress(context.Background(), "nowhere at all")
	if err == nil {
		t.Fatal("expected an error for empty geocode results")
	}
	rerr := roaderr.As(err)
	if rerr.Code != roaderr.CodeGeocodeNoResults {
		t.Fatalf("code = %v, want %v", rerr.Code, roaderr.CodeGeocodeNoResults)
	}
}

func TestGeocodeAddressCaches(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`[{"lat":"39.0","lon":"-77.0","display_name":"Somewhere, US"}]`))
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), newMemCache(), srv.URL, srv.URL, "key", time.Second, time.Second, zerolog.Nop())
	first, err := r.GeocodeAddress(context.Background(), "123 Main St")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.GeocodeAddress(context.Background(), "123 Main St")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected the upstream geocoder to be hit once, got %d", hits)
	}
	if first.ResolvedAddress != second.ResolvedAddress {
		t.Fatalf("cached result mismatch: %+v vs %+v", first, second)
	}
}

func TestFetchRouteRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), newMemCache(), srv.URL, srv.URL, "key", time.Second, time.Second, zerolog.Nop())
	_, err := r.FetchRoute(context.Background(), 39.0, -77.0, 40.0, -76.0)
	if err == nil {
		t.Fatal("expected an error on 429")
	}
	if roaderr.As(err).Code != roaderr.CodeORSRateLimit {
		t.Fatalf("code = %v, want %v", roaderr.As(err).Code, roaderr.CodeORSRateLimit)
	}
}

func TestFetchRouteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), newMemCache(), srv.URL, srv.URL, "key", time.Second, time.Second, zerolog.Nop())
	_, err := r.FetchRoute(context.Background(), 39.0, -77.0, 40.0, -76.0)
	if err == nil {
		t.Fatal("expected an error for empty features")
	}
	if roaderr.As(err).Code != roaderr.CodeRouteNotFound {
		t.Fatalf("code = %v, want %v", roaderr.As(err).Code, roaderr.CodeRouteNotFound)
	}
}
