// Package routecheck composes the geocode -> route fetch -> corridor build
// -> hazard query pipeline of §4.6 behind one cached entry point.
package routecheck

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ciprian87/roadpulse/internal/cache"
	"github.com/ciprian87/roadpulse/internal/core/observability"
	"github.com/ciprian87/roadpulse/internal/hazardquery"
	"github.com/ciprian87/roadpulse/internal/model"
	"github.com/ciprian87/roadpulse/internal/roaderr"
	"github.com/ciprian87/roadpulse/internal/route"
	"github.com/ciprian87/roadpulse/internal/store"
)

const responseCacheTTL = 300 * time.Second

type Service struct {
	resolver *route.Resolver
	store    *store.Store
	query    *hazardquery.Query
	cache    cache.Interface
	log      zerolog.Logger
}

func New(resolver *route.Resolver, st *store.Store, q *hazardquery.Query, c cache.Interface, log zerolog.Logger) *Service {
	return &Service{resolver: resolver, store: st, query: q, cache: c, log: log}
}

// Request is the input accepted by Check. Either the address fields or the
// matching lat/lng pair must be supplied; an address with no coordinates is
// resolved via the geocoder.
type Request struct {
	OriginAddress      string
	DestinationAddress string
	OriginLat          *float64
	OriginLng          *float64
	DestinationLat     *float64
	DestinationLng     *float64
	CorridorMiles      float64
}

// Endpoint is one resolved side of the route, address plus coordinate.
type Endpoint struct {
	Address string
	Lat     float64
	Lng     float64
}

// Response is the full §4.6 route-check payload.
type Response struct {
	Origin          Endpoint
	Destination     Endpoint
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        string // route LineString GeoJSON
	CorridorGeometry string // corridor Polygon GeoJSON
	Hazards         []model.Hazard
	Summary         CheckSummary
	CheckedAt       time.Time
}

// CheckSummary is the §4.6 hazard tally shape.
type CheckSummary struct {
	TotalHazards      int
	CriticalCount     int
	WarningCount      int
	AdvisoryCount     int
	InfoCount         int
	RoadEventCount    int
	WeatherAlertCount int
}

func summarize(hazards []model.Hazard) CheckSummary {
	var s CheckSummary
	s.TotalHazards = len(hazards)
	for _, h := range hazards {
		switch h.SeverityRank() {
		case 4:
			s.CriticalCount++
		case 3:
			s.WarningCount++
		case 2:
			s.AdvisoryCount++
		case 1:
			s.InfoCount++
		}
		switch h.Kind {
		case model.KindRoadEvent:
			s.RoadEventCount++
		case model.KindWeatherAlert:
			s.WeatherAlertCount++
		}
	}
	return s
}

// Check runs the composed pipeline, short-circuiting on a cached response
// when the resolved inputs were checked within the last 300s.
func (s *Service) Check(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	origin, err := s.resolveEndpoint(ctx, req.OriginAddress, req.OriginLat, req.OriginLng)
	if err != nil {
		observability.ObserveRouteCheck("geocode_error", time.Since(start), 0, 0, 0)
		return nil, err
	}
	dest, err := s.resolveEndpoint(ctx, req.DestinationAddress, req.DestinationLat, req.DestinationLng)
	if err != nil {
		observability.ObserveRouteCheck("geocode_error", time.Since(start), 0, 0, 0)
		return nil, err
	}

	corridorMiles := route.ClampCorridorMiles(req.CorridorMiles)
	key := cache.RouteCheckKey(checkHash(origin, dest, corridorMiles))

	if s.cache != nil {
		if raw, found, err := s.cache.Get(ctx, key); err == nil && found {
			var cached Response
			if err := json.Unmarshal(raw, &cached); err == nil {
				observability.ObserveRouteCheck("cache_hit", time.Since(start), 0, 0, 0)
				return &cached, nil
			}
		}
	}

	rt, err := s.resolver.FetchRoute(ctx, origin.Lat, origin.Lng, dest.Lat, dest.Lng)
	if err != nil {
		observability.ObserveRouteCheck("route_error", time.Since(start), 0, 0, 0)
		return nil, err
	}

	corridorGeoJSON, err := route.BuildCorridor(ctx, s.store, s.store.Pool, rt.GeometryWKT, corridorMiles)
	if err != nil {
		observability.ObserveRouteCheck("corridor_error", time.Since(start), 0, 0, 0)
		return nil, roaderr.Wrap(roaderr.CodeCorridorBuildFail, "build corridor", err)
	}

	hazards, _, err := s.query.Run(ctx, s.store.Pool, corridorGeoJSON, rt.GeometryWKT)
	if err != nil {
		observability.ObserveRouteCheck("query_error", time.Since(start), 0, 0, 0)
		return nil, roaderr.Wrap(roaderr.CodeQueryFailed, "hazard query", err)
	}

	resp := &Response{
		Origin:           origin,
		Destination:      dest,
		DistanceMeters:   rt.DistanceMeters,
		DurationSeconds:  rt.DurationSeconds,
		Geometry:         rt.GeometryGeoJSON,
		CorridorGeometry: corridorGeoJSON,
		Hazards:          hazards,
		Summary:          summarize(hazards),
		CheckedAt:        time.Now(),
	}

	if s.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(ctx, key, raw, responseCacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("route check cache write failed")
			}
		}
	}

	observability.ObserveRouteCheck("success", time.Since(start), resp.Summary.RoadEventCount, resp.Summary.WeatherAlertCount, resp.Summary.TotalHazards-resp.Summary.RoadEventCount-resp.Summary.WeatherAlertCount)
	return resp, nil
}

func (s *Service) resolveEndpoint(ctx context.Context, address string, lat, lng *float64) (Endpoint, error) {
	if lat != nil && lng != nil {
		return Endpoint{Address: address, Lat: *lat, Lng: *lng}, nil
	}
	if address == "" {
		return Endpoint{}, roaderr.New(roaderr.CodeMissingFields, "address or coordinates required")
	}
	g, err := s.resolver.GeocodeAddress(ctx, address)
	if err != nil {
		return Endpoint{}, err
	}
	return Endpoint{Address: g.ResolvedAddress, Lat: g.Lat, Lng: g.Lng}, nil
}

func checkHash(origin, dest Endpoint, corridorMiles float64) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%.5f:%.5f:%.5f:%.5f:%.2f", origin.Lat, origin.Lng, dest.Lat, dest.Lng, corridorMiles))
	return hex.EncodeToString(sum[:])[:16]
}
