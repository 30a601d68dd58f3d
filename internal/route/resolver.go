// Package route resolves free-text addresses and suggestions through an
// external geocoder and fetches HGV-profile routes through openrouteservice,
// following the teacher's url.Values upstream query-param construction
// and http.Client-with-context-timeout dispatch pattern.
package route

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ciprian87/roadpulse/internal/cache"
	"github.com/ciprian87/roadpulse/internal/core/observability"
	"github.com/ciprian87/roadpulse/internal/geo"
	"github.com/ciprian87/roadpulse/internal/model"
	"github.com/ciprian87/roadpulse/internal/roaderr"
)

const (
	geocodeCacheTTL = time.Hour
	routeCacheTTL   = time.Hour
)

type Resolver struct {
	httpClient      *http.Client
	cache           cache.Interface
	log             zerolog.Logger
	geocoderBaseURL string
	orsBaseURL      string
	orsAPIKey       string
	fetchTimeout    time.Duration
	routeTimeout    time.Duration
}

func NewResolver(httpClient *http.Client, c cache.Interface, geocoderBaseURL, orsBaseURL, orsAPIKey string, fetchTimeout, routeTimeout time.Duration, log zerolog.Logger) *Resolver {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	if routeTimeout <= 0 {
		routeTimeout = 30 * time.Second
	}
	return &Resolver{
		httpClient:      httpClient,
		cache:           c,
		log:             log,
		geocoderBaseURL: strings.TrimRight(geocoderBaseURL, "/"),
		orsBaseURL:      strings.TrimRight(orsBaseURL, "/"),
		orsAPIKey:       orsAPIKey,
		fetchTimeout:    fetchTimeout,
		routeTimeout:    routeTimeout,
	}
}

type nominatimHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// GeocodeAddress resolves free text to one coordinate, failing with
// roaderr.CodeGeocodeNoResults when the upstream returns nothing.
func (r *Resolver) GeocodeAddress(ctx context.Context, text string) (model.GeocodeResult, error) {
	key := cache.GeocodeKey(text)
	if raw, found, err := r.cache.Get(ctx, key); err == nil && found {
		var res model.GeocodeResult
		if err := json.Unmarshal(raw, &res); err == nil {
			return res, nil
		}
	}

	hits, err := r.geocode(ctx, text, 1)
	if err != nil {
		return model.GeocodeResult{}, err
	}
	if len(hits) == 0 {
		return model.GeocodeResult{}, roaderr.New(roaderr.CodeGeocodeNoResults, fmt.Sprintf("no geocode results for %q", text))
	}

	res := hits[0]
	if b, err := json.Marshal(res); err == nil {
		if err := r.cache.Set(ctx, key, b, geocodeCacheTTL); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("geocode cache write failed")
		}
	}
	return res, nil
}

// GeocodeSuggestions returns candidate matches for an autocomplete box,
// skipping the upstream call entirely for inputs under 3 characters.
func (r *Resolver) GeocodeSuggestions(ctx context.Context, text string) ([]model.GeocodeResult, error) {
	if len(strings.TrimSpace(text)) < 3 {
		return nil, nil
	}
	return r.geocode(ctx, text, 5)
}

func (r *Resolver) geocode(ctx context.Context, text string, limit int) ([]model.GeocodeResult, error) {
	cctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", text)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	reqURL := r.geocoderBaseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	observability.ObserveUpstreamLatency("geocoder", time.Since(start).Seconds())
	if err != nil {
		return nil, roaderr.Wrap(roaderr.CodeGeocodeError, "geocoder request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, roaderr.New(roaderr.CodeGeocodeError, fmt.Sprintf("geocoder returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, roaderr.Wrap(roaderr.CodeGeocodeError, "read geocoder body", err)
	}

	var hits []nominatimHit
	if err := json.Unmarshal(body, &hits); err != nil {
		return nil, roaderr.Wrap(roaderr.CodeGeocodeError, "parse geocoder body", err)
	}

	out := make([]model.GeocodeResult, 0, len(hits))
	for _, h := range hits {
		lat, err := strconv.ParseFloat(h.Lat, 64)
		if err != nil {
			continue
		}
		lng, err := strconv.ParseFloat(h.Lon, 64)
		if err != nil {
			continue
		}
		out = append(out, model.GeocodeResult{Lat: lat, Lng: lng, ResolvedAddress: h.DisplayName})
	}
	return out, nil
}

type orsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

type orsFeatureCollection struct {
	Features []struct {
		Geometry   json.RawMessage `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// FetchRoute calls the HGV routing profile with [lng,lat] coordinate order
// per the upstream API's convention.
func (r *Resolver) FetchRoute(ctx context.Context, oLat, oLng, dLat, dLng float64) (model.Route, error) {
	key := cache.RouteFetchKey(oLat, oLng, dLat, dLng)
	if raw, found, err := r.cache.Get(ctx, key); err == nil && found {
		var rt model.Route
		if err := json.Unmarshal(raw, &rt); err == nil {
			return rt, nil
		}
	}

	route, err := r.fetchRoute(ctx, oLat, oLng, dLat, dLng)
	if err != nil {
		return model.Route{}, err
	}

	if b, err := json.Marshal(route); err == nil {
		if err := r.cache.Set(ctx, key, b, routeCacheTTL); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("route cache write failed")
		}
	}
	return route, nil
}

func (r *Resolver) fetchRoute(ctx context.Context, oLat, oLng, dLat, dLng float64) (model.Route, error) {
	cctx, cancel := context.WithTimeout(ctx, r.routeTimeout)
	defer cancel()

	body, err := json.Marshal(orsRequest{Coordinates: [][2]float64{{oLng, oLat}, {dLng, dLat}}})
	if err != nil {
		return model.Route{}, fmt.Errorf("encode route request: %w", err)
	}

	reqURL := r.orsBaseURL + "/v2/directions/driving-hgv/geojson"
	req, err := http.NewRequestWithContext(cctx, http.MethodPost, reqURL, strings.NewReader(string(body)))
	if err != nil {
		return model.Route{}, fmt.Errorf("build route request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", r.orsAPIKey)

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	observability.ObserveUpstreamLatency("ors", time.Since(start).Seconds())
	if err != nil {
		return model.Route{}, roaderr.Wrap(roaderr.CodeQueryFailed, "route request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return model.Route{}, roaderr.New(roaderr.CodeORSRateLimit, "route provider rate limit exceeded")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Route{}, roaderr.New(roaderr.CodeQueryFailed, fmt.Sprintf("route provider returned status %d", resp.StatusCode))
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return model.Route{}, fmt.Errorf("read route body: %w", err)
	}

	var fc orsFeatureCollection
	if err := json.Unmarshal(respBody, &fc); err != nil {
		return model.Route{}, roaderr.Wrap(roaderr.CodeQueryFailed, "parse route body", err)
	}
	if len(fc.Features) == 0 {
		return model.Route{}, roaderr.New(roaderr.CodeRouteNotFound, "route provider returned no features")
	}

	feature := fc.Features[0]
	wkt, err := geo.GeoJSONToWKT(string(feature.Geometry))
	if err != nil {
		return model.Route{}, fmt.Errorf("route geometry: %w", err)
	}

	return model.Route{
		GeometryGeoJSON: string(feature.Geometry),
		GeometryWKT:     wkt,
		DistanceMeters:  feature.Properties.Summary.Distance,
		DurationSeconds: feature.Properties.Summary.Duration,
	}, nil
}
