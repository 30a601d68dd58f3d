package store

import (
	"context"
	"fmt"

	"github.com/ciprian87/roadpulse/internal/model"
)

// BBoxFilter is the shared filter shape behind every §6 list endpoint.
type BBoxFilter struct {
	MinLng, MinLat, MaxLng, MaxLat float64
	HasBBox                        bool
	ActiveOnly                     bool
	SeverityFloor                  int // SeverityRank() >= floor; 0 means no floor
	State                          string
	Limit                          int
	Offset                         int
}

func envelopeWKT(f BBoxFilter) string {
	return fmt.Sprintf("ST_MakeEnvelope(%f,%f,%f,%f,4326)", f.MinLng, f.MinLat, f.MaxLng, f.MaxLat)
}

// RoadEventsInBBox backs the /events query surface, filtering by bbox,
// active flag, severity floor, state, and optional type.
func (s *Store) RoadEventsInBBox(ctx context.Context, q Querier, f BBoxFilter, eventType string) ([]model.RoadEvent, int, error) {
	where := []string{"1=1"}
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if f.HasBBox {
		where = append(where, fmt.Sprintf("ST_Intersects(geometry, %s)", envelopeWKT(f)))
	}
	if f.ActiveOnly {
		where = append(where, "is_active")
	}
	if f.State != "" {
		where = append(where, "state = "+arg(f.State))
	}
	if eventType != "" {
		where = append(where, "type = "+arg(eventType))
	}
	if f.SeverityFloor >= 4 {
		where = append(where, "severity = 'CRITICAL'")
	} else if f.SeverityFloor >= 3 {
		where = append(where, "severity IN ('CRITICAL','WARNING')")
	} else if f.SeverityFloor >= 2 {
		where = append(where, "severity IN ('CRITICAL','WARNING','ADVISORY')")
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 500
	}

	sql := fmt.Sprintf(`
SELECT id, source, source_event_id, state, type, severity, title, description,
       direction, route_name, ST_AsGeoJSON(geometry), location_description,
       started_at, expected_end_at, last_updated_at, is_active, created_at, updated_at
FROM road_events
WHERE %s
ORDER BY last_updated_at DESC
LIMIT %s OFFSET %s`, joinAnd(where), arg(limit), arg(f.Offset))

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query road events in bbox: %w", err)
	}
	defer rows.Close()

	var events []model.RoadEvent
	for rows.Next() {
		var e model.RoadEvent
		if err := rows.Scan(&e.ID, &e.Source, &e.SourceEventID, &e.State, &e.Type, &e.Severity, &e.Title, &e.Description,
			&e.Direction, &e.RouteName, &e.GeometryGeoJSON, &e.LocationDesc,
			&e.StartedAt, &e.ExpectedEndAt, &e.LastUpdatedAt, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan road event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate road events: %w", err)
	}
	return events, len(events), nil
}

// WeatherAlertsInBBox mirrors RoadEventsInBBox for the weather alert table.
func (s *Store) WeatherAlertsInBBox(ctx context.Context, q Querier, f BBoxFilter) ([]model.WeatherAlert, int, error) {
	where := []string{"1=1"}
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if f.HasBBox {
		where = append(where, fmt.Sprintf("ST_Intersects(geometry, %s)", envelopeWKT(f)))
	}
	if f.ActiveOnly {
		where = append(where, "is_active")
	}
	if f.SeverityFloor >= 4 {
		where = append(where, "severity = 'Extreme'")
	} else if f.SeverityFloor >= 3 {
		where = append(where, "severity IN ('Extreme','Severe')")
	} else if f.SeverityFloor >= 2 {
		where = append(where, "severity IN ('Extreme','Severe','Moderate')")
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 500
	}

	sql := fmt.Sprintf(`
SELECT id, nws_id, event, severity, urgency, certainty, headline, description,
       instruction, area_description, ST_AsGeoJSON(geometry), onset, expires,
       last_updated_at, sender_name, wind_speed, snow_amount, is_active, created_at
FROM weather_alerts
WHERE %s
ORDER BY last_updated_at DESC
LIMIT %s OFFSET %s`, joinAnd(where), arg(limit), arg(f.Offset))

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query weather alerts in bbox: %w", err)
	}
	defer rows.Close()

	var alerts []model.WeatherAlert
	for rows.Next() {
		var a model.WeatherAlert
		if err := rows.Scan(&a.ID, &a.NWSID, &a.Event, &a.Severity, &a.Urgency, &a.Certainty, &a.Headline, &a.Description,
			&a.Instruction, &a.AreaDescription, &a.GeometryGeoJSON, &a.Onset, &a.Expires,
			&a.LastUpdatedAt, &a.SenderName, &a.WindSpeed, &a.SnowAmount, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan weather alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate weather alerts: %w", err)
	}
	return alerts, len(alerts), nil
}

// ParkingInBBox backs the /parking query surface.
func (s *Store) ParkingInBBox(ctx context.Context, q Querier, f BBoxFilter) ([]model.ParkingFacility, error) {
	where := []string{"1=1"}
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if f.HasBBox {
		where = append(where, fmt.Sprintf("ST_Intersects(location, %s)", envelopeWKT(f)))
	}
	if f.ActiveOnly {
		where = append(where, "is_active")
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 500
	}

	sql := fmt.Sprintf(`
SELECT id, source, source_facility_id, name, state, highway, direction, ST_AsGeoJSON(location),
       total_spaces, available_spaces, trend, amenities, last_updated_at, is_active
FROM parking_facilities
WHERE %s
ORDER BY last_updated_at DESC
LIMIT %s OFFSET %s`, joinAnd(where), arg(limit), arg(f.Offset))

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query parking facilities in bbox: %w", err)
	}
	defer rows.Close()

	var facilities []model.ParkingFacility
	for rows.Next() {
		var p model.ParkingFacility
		if err := rows.Scan(&p.ID, &p.Source, &p.SourceFacilityID, &p.Name, &p.State, &p.Highway, &p.Direction, &p.LocationGeoJSON,
			&p.TotalSpaces, &p.AvailableSpaces, &p.Trend, &p.Amenities, &p.LastUpdatedAt, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan parking facility: %w", err)
		}
		facilities = append(facilities, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parking facilities: %w", err)
	}
	return facilities, nil
}

// HazardCentroid is one point fed into the clustering pass: a road event,
// weather alert, or community report reduced to its centroid and severity.
type HazardCentroid struct {
	Lat      float64
	Lng      float64
	Severity string
}

// HazardCentroidsInBBox feeds /events/clusters: every active hazard of any
// kind within bbox, reduced to a centroid point, via one UNION ALL so the
// caller doesn't need three round trips just to build a point list.
func (s *Store) HazardCentroidsInBBox(ctx context.Context, q Querier, f BBoxFilter) ([]HazardCentroid, error) {
	env := envelopeWKT(f)
	sql := fmt.Sprintf(`
SELECT ST_Y(ST_Centroid(geometry)), ST_X(ST_Centroid(geometry)), severity::text
FROM road_events
WHERE is_active AND ST_Intersects(geometry, %s)
UNION ALL
SELECT ST_Y(ST_Centroid(geometry)), ST_X(ST_Centroid(geometry)), severity::text
FROM weather_alerts
WHERE is_active AND ST_Intersects(geometry, %s)
UNION ALL
SELECT ST_Y(ST_Centroid(location)), ST_X(ST_Centroid(location)), severity::text
FROM community_reports
WHERE is_active AND (upvotes - downvotes) >= -2 AND moderation_status <> 'removed'
  AND ST_Intersects(location, %s)`, env, env, env)

	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query hazard centroids in bbox: %w", err)
	}
	defer rows.Close()

	var points []HazardCentroid
	for rows.Next() {
		var p HazardCentroid
		if err := rows.Scan(&p.Lat, &p.Lng, &p.Severity); err != nil {
			return nil, fmt.Errorf("scan hazard centroid: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hazard centroids: %w", err)
	}
	return points, nil
}

func joinAnd(clauses []string) string {
	out := clauses[0]
	for _, c := range clauses[1:] {
		out += " AND " + c
	}
	return out
}
