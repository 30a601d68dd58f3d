// Package zone resolves NWS zone URLs to polygon geometries for weather
// alerts that arrive without their own geometry.
package zone

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ciprian87/roadpulse/internal/cache"
	"github.com/ciprian87/roadpulse/internal/core/observability"
	"github.com/rs/zerolog"
)

const cacheTTL = 24 * time.Hour

type Resolver struct {
	httpClient *http.Client
	cache      cache.Interface
	concurrent int64
	timeout    time.Duration
	log        zerolog.Logger
}

func NewResolver(httpClient *http.Client, c cache.Interface, concurrency int64, timeout time.Duration, log zerolog.Logger) *Resolver {
	if concurrency <= 0 {
		concurrency = 8
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Resolver{httpClient: httpClient, cache: c, concurrent: concurrency, timeout: timeout, log: log}
}

// Resolve maps each unique zone URL to its polygon GeoJSON, bounded by a
// semaphore of the configured width, tolerating per-zone 404s by omitting
// them from the returned map.
func (r *Resolver) Resolve(ctx context.Context, zoneURLs []string) (map[string]string, error) {
	unique := dedupe(zoneURLs)
	if len(unique) == 0 {
		return map[string]string{}, nil
	}

	sem := semaphore.NewWeighted(r.concurrent)
	type result struct {
		url string
		geo string
		ok  bool
	}
	results := make(chan result, len(unique))

	for _, u := range unique {
		u := u
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("zone resolve acquire: %w", err)
		}
		go func() {
			defer sem.Release(1)
			geo, ok, err := r.resolveOne(ctx, u)
			if err != nil {
				r.log.Warn().Err(err).Str("zone_url", u).Msg("zone lookup failed")
				observability.IncZoneLookup("error")
				results <- result{url: u, ok: false}
				return
			}
			results <- result{url: u, geo: geo, ok: ok}
		}()
	}

	out := make(map[string]string, len(unique))
	for range unique {
		res := <-results
		if res.ok {
			out[res.url] = res.geo
		}
	}
	return out, nil
}

func (r *Resolver) resolveOne(ctx context.Context, zoneURL string) (string, bool, error) {
	key := cache.ZoneKey(zoneID(zoneURL))
	if raw, found, err := r.cache.Get(ctx, key); err == nil && found {
		observability.IncZoneLookup("hit")
		return string(raw), true, nil
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, zoneURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("build zone request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json")

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	observability.ObserveUpstreamLatency("nws_zone", time.Since(start).Seconds())
	if err != nil {
		return "", false, fmt.Errorf("fetch zone %s: %w", zoneURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		observability.IncZoneLookup("not_found")
		return "", false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false, fmt.Errorf("zone %s returned status %d", zoneURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", false, fmt.Errorf("read zone body: %w", err)
	}

	geoJSON, err := extractZoneGeometry(body)
	if err != nil {
		return "", false, err
	}
	if geoJSON == "" {
		observability.IncZoneLookup("not_found")
		return "", false, nil
	}

	if err := r.cache.Set(ctx, key, []byte(geoJSON), cacheTTL); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("zone cache write failed")
	}
	observability.IncZoneLookup("miss")
	return geoJSON, true, nil
}

// extractZoneGeometry pulls the "geometry" member out of an NWS zone
// GeoJSON Feature response.
func extractZoneGeometry(body []byte) (string, error) {
	var feature struct {
		Geometry json.RawMessage `json:"geometry"`
	}
	if err := json.Unmarshal(body, &feature); err != nil {
		return "", fmt.Errorf("parse zone feature: %w", err)
	}
	if len(feature.Geometry) == 0 || string(feature.Geometry) == "null" {
		return "", nil
	}
	return string(feature.Geometry), nil
}

// MergeToMultiPolygon flattens resolved zone geometries into one
// MultiPolygon. Returns "" if geoms is empty or none are polygonal.
func MergeToMultiPolygon(geoms []string) (string, error) {
	return mergeToMultiPolygon(geoms)
}

func dedupe(urls []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func zoneID(zoneURL string) string {
	parts := strings.Split(strings.TrimRight(zoneURL, "/"), "/")
	if len(parts) == 0 {
		return zoneURL
	}
	return parts[len(parts)-1]
}
