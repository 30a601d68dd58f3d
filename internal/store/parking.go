package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ciprian87/roadpulse/internal/geo"
	"github.com/ciprian87/roadpulse/internal/model"
)

// UpsertParkingFacility inserts or refreshes a facility keyed by
// (source, source_facility_id). Returns the row's id and whether it was
// newly inserted.
func (s *Store) UpsertParkingFacility(ctx context.Context, q Querier, p *model.ParkingFacility) (string, bool, error) {
	wkt, err := geo.GeoJSONToWKT(p.LocationGeoJSON)
	if err != nil {
		return "", false, fmt.Errorf("parking facility location: %w", err)
	}

	id := uuid.NewString()
	const sql = `
INSERT INTO parking_facilities (
	id, source, source_facility_id, name, state, highway, direction,
	location, total_spaces, available_spaces, trend, amenities,
	last_updated_at, is_active
) VALUES (
	$1, $2, $3, $4, $5, $6, $7,
	ST_GeomFromText($8, 4326), $9, $10, $11, $12,
	now(), true
)
ON CONFLICT (source, source_facility_id) DO UPDATE SET
	name = EXCLUDED.name,
	state = EXCLUDED.state,
	highway = EXCLUDED.highway,
	direction = EXCLUDED.direction,
	location = EXCLUDED.location,
	total_spaces = EXCLUDED.total_spaces,
	available_spaces = EXCLUDED.available_spaces,
	trend = EXCLUDED.trend,
	amenities = EXCLUDED.amenities,
	last_updated_at = now(),
	is_active = true
RETURNING id, (xmax = 0) AS inserted`
	row := q.QueryRow(ctx, sql,
		id, p.Source, p.SourceFacilityID, p.Name, p.State, p.Highway, p.Direction,
		wkt, p.TotalSpaces, p.AvailableSpaces, p.Trend, p.Amenities,
	)
	var gotID string
	var inserted bool
	if err := row.Scan(&gotID, &inserted); err != nil {
		return "", false, fmt.Errorf("upsert parking facility %s/%s: %w", p.Source, p.SourceFacilityID, err)
	}
	return gotID, inserted, nil
}

// ReconcileParkingFacilities deactivates rows owned by source that were not
// present in the latest fetch.
func (s *Store) ReconcileParkingFacilities(ctx context.Context, q Querier, source string, seenIDs []string) (int, error) {
	const sql = `
UPDATE parking_facilities
SET is_active = false
WHERE source = $1
  AND is_active
  AND source_facility_id <> ALL($2)`
	tag, err := q.Exec(ctx, sql, source, seenIDs)
	if err != nil {
		return 0, fmt.Errorf("reconcile parking facilities for %s: %w", source, err)
	}
	return int(tag.RowsAffected()), nil
}

// ParkingFacilitiesInCorridor returns active facilities intersecting the
// corridor, ordered along the route the same way hazard queries are.
func (s *Store) ParkingFacilitiesInCorridor(ctx context.Context, q Querier, corridorWKT, routeWKT string) ([]model.ParkingFacility, []float64, error) {
	const sql = `
SELECT id, source, source_facility_id, name, state, highway, direction,
       ST_AsGeoJSON(location), total_spaces, available_spaces, trend, amenities,
       last_updated_at, is_active,
       ST_LineLocatePoint(ST_GeomFromText($2, 4326), location)
FROM parking_facilities
WHERE is_active
  AND ST_Intersects(location, ST_GeomFromText($1, 4326))
ORDER BY 15
LIMIT 200`
	rows, err := q.Query(ctx, sql, corridorWKT, routeWKT)
	if err != nil {
		return nil, nil, fmt.Errorf("query parking facilities in corridor: %w", err)
	}
	defer rows.Close()

	var facilities []model.ParkingFacility
	var positions []float64
	for rows.Next() {
		var p model.ParkingFacility
		var pos float64
		if err := rows.Scan(&p.ID, &p.Source, &p.SourceFacilityID, &p.Name, &p.State, &p.Highway, &p.Direction,
			&p.LocationGeoJSON, &p.TotalSpaces, &p.AvailableSpaces, &p.Trend, &p.Amenities,
			&p.LastUpdatedAt, &p.IsActive,
			&pos); err != nil {
			return nil, nil, fmt.Errorf("scan parking facility: %w", err)
		}
		facilities = append(facilities, p)
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate parking facilities: %w", err)
	}
	return facilities, positions, nil
}
