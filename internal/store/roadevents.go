package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ciprian87/roadpulse/internal/geo"
	"github.com/ciprian87/roadpulse/internal/model"
)

// UpsertRoadEvent inserts or refreshes a RoadEvent keyed by
// (source, source_event_id), setting is_active=true and refreshing every
// mutable field per §4.2 step 5. Returns the row's id and whether the row
// was newly inserted (false means an existing row was refreshed).
func (s *Store) UpsertRoadEvent(ctx context.Context, q Querier, e *model.RoadEvent) (string, bool, error) {
	wkt, err := geo.GeoJSONToWKT(e.GeometryGeoJSON)
	if err != nil {
		return "", false, fmt.Errorf("road event geometry: %w", err)
	}

	laneImpact, err := marshalJSON(e.LaneImpact)
	if err != nil {
		return "", false, err
	}
	restrictions, err := marshalJSON(e.VehicleRestrictions)
	if err != nil {
		return "", false, err
	}

	id := uuid.NewString()
	const q1 = `
INSERT INTO road_events (
	id, source, source_event_id, state, type, severity, title, description,
	direction, route_name, geometry, location_description, started_at,
	expected_end_at, last_updated_at, lane_impact, vehicle_restrictions,
	detour_description, source_feed_url, is_active, raw, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8,
	$9, $10, ST_GeomFromText($11, 4326), $12, $13,
	$14, now(), $15, $16,
	$17, $18, true, $19, now(), now()
)
ON CONFLICT (source, source_event_id) DO UPDATE SET
	state = EXCLUDED.state,
	type = EXCLUDED.type,
	severity = EXCLUDED.severity,
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	direction = EXCLUDED.direction,
	route_name = EXCLUDED.route_name,
	geometry = EXCLUDED.geometry,
	location_description = EXCLUDED.location_description,
	started_at = EXCLUDED.started_at,
	expected_end_at = EXCLUDED.expected_end_at,
	last_updated_at = now(),
	lane_impact = EXCLUDED.lane_impact,
	vehicle_restrictions = EXCLUDED.vehicle_restrictions,
	detour_description = EXCLUDED.detour_description,
	source_feed_url = EXCLUDED.source_feed_url,
	is_active = true,
	raw = EXCLUDED.raw,
	updated_at = now()
RETURNING id, (xmax = 0) AS inserted`

	row := q.QueryRow(ctx, q1,
		id, e.Source, e.SourceEventID, e.State, e.Type, e.Severity, e.Title, e.Description,
		e.Direction, e.RouteName, wkt, e.LocationDesc, e.StartedAt,
		e.ExpectedEndAt, laneImpact, restrictions,
		e.DetourDescription, e.SourceFeedURL, e.Raw,
	)
	var gotID string
	var inserted bool
	if err := row.Scan(&gotID, &inserted); err != nil {
		return "", false, fmt.Errorf("upsert road event %s/%s: %w", e.Source, e.SourceEventID, err)
	}
	return gotID, inserted, nil
}

// ReconcileRoadEvents marks inactive every active row owned by source whose
// source_event_id is not in seenIDs, and separately deactivates rows whose
// expected_end_at has elapsed. A feed returning zero records deactivates
// all of its rows (seenIDs empty is a valid, intentional input).
func (s *Store) ReconcileRoadEvents(ctx context.Context, q Querier, source string, seenIDs []string) (int, error) {
	const q1 = `
UPDATE road_events
SET is_active = false, updated_at = now()
WHERE source = $1
  AND is_active
  AND source_event_id <> ALL($2)`
	tag, err := q.Exec(ctx, q1, source, seenIDs)
	if err != nil {
		return 0, fmt.Errorf("reconcile road events for %s: %w", source, err)
	}

	const q2 = `
UPDATE road_events
SET is_active = false, updated_at = now()
WHERE source = $1
  AND is_active
  AND expected_end_at IS NOT NULL
  AND expected_end_at < now()`
	tag2, err := q.Exec(ctx, q2, source)
	if err != nil {
		return 0, fmt.Errorf("reconcile expired road events for %s: %w", source, err)
	}

	return int(tag.RowsAffected() + tag2.RowsAffected()), nil
}

// PurgeOldRoadEvents deletes road_events rows that have been inactive for
// longer than retention. retention<=0 disables the purge (Open Question
// decision #2).
func (s *Store) PurgeOldRoadEvents(ctx context.Context, q Querier, retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, nil
	}
	const sql = `
DELETE FROM road_events
WHERE is_active = false
  AND updated_at < now() - $1::interval`
	tag, err := q.Exec(ctx, sql, retention.String())
	if err != nil {
		return 0, fmt.Errorf("purge old road events: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// RoadEventsInCorridor runs the §4.6 query 1 against the given corridor
// geometry (WKT), returning up to 200 hits with their position along
// route.
func (s *Store) RoadEventsInCorridor(ctx context.Context, q Querier, corridorWKT, routeWKT string) ([]model.RoadEvent, []float64, error) {
	const sql = `
SELECT id, source, source_event_id, state, type, severity, title, description,
       direction, route_name, ST_AsGeoJSON(geometry), location_description,
       started_at, expected_end_at, last_updated_at, is_active, created_at, updated_at,
       ST_LineLocatePoint(ST_GeomFromText($2, 4326), ST_Centroid(geometry))
FROM road_events
WHERE is_active
  AND (expected_end_at IS NULL OR expected_end_at > now())
  AND ST_Intersects(geometry, ST_GeomFromText($1, 4326))
ORDER BY 19
LIMIT 200`
	rows, err := q.Query(ctx, sql, corridorWKT, routeWKT)
	if err != nil {
		return nil, nil, fmt.Errorf("query road events in corridor: %w", err)
	}
	defer rows.Close()

	var events []model.RoadEvent
	var positions []float64
	for rows.Next() {
		var e model.RoadEvent
		var pos float64
		if err := rows.Scan(&e.ID, &e.Source, &e.SourceEventID, &e.State, &e.Type, &e.Severity, &e.Title, &e.Description,
			&e.Direction, &e.RouteName, &e.GeometryGeoJSON, &e.LocationDesc,
			&e.StartedAt, &e.ExpectedEndAt, &e.LastUpdatedAt, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
			&pos); err != nil {
			return nil, nil, fmt.Errorf("scan road event: %w", err)
		}
		events = append(events, e)
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate road events: %w", err)
	}
	return events, positions, nil
}

func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return b, nil
}
