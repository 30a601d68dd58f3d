package store

import (
	"context"
	"fmt"
)

// BuildCorridor buffers routeWKT (a LineString) by radiusMiles, casting
// through geography so the buffer distance is in meters regardless of
// latitude, then casts back to geometry and serializes as GeoJSON.
func (s *Store) BuildCorridor(ctx context.Context, q Querier, routeWKT string, radiusMiles float64) (string, error) {
	const sql = `
SELECT ST_AsGeoJSON(
	ST_Buffer(
		ST_GeomFromText($1, 4326)::geography,
		$2
	)::geometry
)`
	meters := radiusMiles * 1609.344
	var geoJSON string
	if err := q.QueryRow(ctx, sql, routeWKT, meters).Scan(&geoJSON); err != nil {
		return "", fmt.Errorf("build corridor: %w", err)
	}
	return geoJSON, nil
}
