package route

import (
	"context"

	"github.com/ciprian87/roadpulse/internal/store"
)

const (
	minCorridorMiles = 1.0
	maxCorridorMiles = 50.0
)

// ClampCorridorMiles enforces the [1, 50] mile bound on a requested
// corridor radius.
func ClampCorridorMiles(miles float64) float64 {
	switch {
	case miles < minCorridorMiles:
		return minCorridorMiles
	case miles > maxCorridorMiles:
		return maxCorridorMiles
	default:
		return miles
	}
}

// BuildCorridor clamps radiusMiles and delegates the buffer computation to
// PostGIS, returning the corridor as GeoJSON.
func BuildCorridor(ctx context.Context, st *store.Store, q store.Querier, routeWKT string, radiusMiles float64) (string, error) {
	return st.BuildCorridor(ctx, q, routeWKT, ClampCorridorMiles(radiusMiles))
}
