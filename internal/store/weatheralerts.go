package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ciprian87/roadpulse/internal/geo"
	"github.com/ciprian87/roadpulse/internal/model"
)

// UpsertWeatherAlert inserts or refreshes a WeatherAlert keyed by nws_id.
// GeometryGeoJSON may be empty; the caller (ingestion engine) is
// responsible for resolving zone polygons before calling this. Returns the
// row's id and whether it was newly inserted.
func (s *Store) UpsertWeatherAlert(ctx context.Context, q Querier, a *model.WeatherAlert) (string, bool, error) {
	var wkt *string
	if a.GeometryGeoJSON != "" {
		w, err := geo.GeoJSONToWKT(a.GeometryGeoJSON)
		if err != nil {
			return "", false, fmt.Errorf("weather alert geometry: %w", err)
		}
		wkt = &w
	}

	id := uuid.NewString()
	const sql = `
INSERT INTO weather_alerts (
	id, nws_id, event, severity, urgency, certainty, headline, description,
	instruction, area_description, affected_zones, geometry, onset, expires,
	last_updated_at, sender_name, wind_speed, snow_amount, is_active, raw, created_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8,
	$9, $10, $11, CASE WHEN $12::text IS NULL THEN NULL ELSE ST_GeomFromText($12, 4326) END, $13, $14,
	now(), $15, $16, $17, true, $18, now()
)
ON CONFLICT (nws_id) DO UPDATE SET
	event = EXCLUDED.event,
	severity = EXCLUDED.severity,
	urgency = EXCLUDED.urgency,
	certainty = EXCLUDED.certainty,
	headline = EXCLUDED.headline,
	description = EXCLUDED.description,
	instruction = EXCLUDED.instruction,
	area_description = EXCLUDED.area_description,
	affected_zones = EXCLUDED.affected_zones,
	geometry = COALESCE(EXCLUDED.geometry, weather_alerts.geometry),
	onset = EXCLUDED.onset,
	expires = EXCLUDED.expires,
	last_updated_at = now(),
	sender_name = EXCLUDED.sender_name,
	wind_speed = EXCLUDED.wind_speed,
	snow_amount = EXCLUDED.snow_amount,
	is_active = true,
	raw = EXCLUDED.raw
RETURNING id, (xmax = 0) AS inserted`

	row := q.QueryRow(ctx, sql,
		id, a.NWSID, a.Event, a.Severity, a.Urgency, a.Certainty, a.Headline, a.Description,
		a.Instruction, a.AreaDescription, a.AffectedZones, wkt, a.Onset, a.Expires,
		a.SenderName, a.WindSpeed, a.SnowAmount, a.Raw,
	)
	var gotID string
	var inserted bool
	if err := row.Scan(&gotID, &inserted); err != nil {
		return "", false, fmt.Errorf("upsert weather alert %s: %w", a.NWSID, err)
	}
	return gotID, inserted, nil
}

// SetWeatherAlertGeometry attaches a resolved MultiPolygon to an alert that
// was upserted without geometry, used after zone resolution completes.
func (s *Store) SetWeatherAlertGeometry(ctx context.Context, q Querier, nwsID, geometryGeoJSON string) error {
	wkt, err := geo.GeoJSONToWKT(geometryGeoJSON)
	if err != nil {
		return fmt.Errorf("resolved zone geometry: %w", err)
	}
	const sql = `UPDATE weather_alerts SET geometry = ST_GeomFromText($2, 4326) WHERE nws_id = $1`
	if _, err := q.Exec(ctx, sql, nwsID, wkt); err != nil {
		return fmt.Errorf("set weather alert geometry %s: %w", nwsID, err)
	}
	return nil
}

// ReconcileWeatherAlerts deactivates active rows not in seenIDs, deactivates
// rows whose expires has elapsed, and purges rows more than 24h past
// expiry (unconditional per §4.2/§9, unlike the configurable road-event
// purge).
func (s *Store) ReconcileWeatherAlerts(ctx context.Context, q Querier, seenIDs []string) (int, error) {
	const q1 = `
UPDATE weather_alerts
SET is_active = false
WHERE is_active
  AND nws_id <> ALL($1)`
	tag, err := q.Exec(ctx, q1, seenIDs)
	if err != nil {
		return 0, fmt.Errorf("reconcile weather alerts: %w", err)
	}

	const q2 = `
UPDATE weather_alerts
SET is_active = false
WHERE is_active
  AND expires IS NOT NULL
  AND expires < now()`
	tag2, err := q.Exec(ctx, q2)
	if err != nil {
		return 0, fmt.Errorf("reconcile expired weather alerts: %w", err)
	}

	const q3 = `
DELETE FROM weather_alerts
WHERE expires IS NOT NULL
  AND expires < now() - interval '24 hours'`
	if _, err := q.Exec(ctx, q3); err != nil {
		return 0, fmt.Errorf("purge stale weather alerts: %w", err)
	}

	return int(tag.RowsAffected() + tag2.RowsAffected()), nil
}

// WeatherAlertsInCorridor runs §4.6 query 2.
func (s *Store) WeatherAlertsInCorridor(ctx context.Context, q Querier, corridorWKT, routeWKT string) ([]model.WeatherAlert, []float64, error) {
	const sql = `
SELECT id, nws_id, event, severity, urgency, certainty, headline, description,
       instruction, area_description, affected_zones, ST_AsGeoJSON(geometry),
       onset, expires, last_updated_at, sender_name, wind_speed, snow_amount,
       is_active, created_at,
       ST_LineLocatePoint(ST_GeomFromText($2, 4326), ST_Centroid(geometry))
FROM weather_alerts
WHERE is_active
  AND (expires IS NULL OR expires > now())
  AND geometry IS NOT NULL
  AND ST_Intersects(geometry, ST_GeomFromText($1, 4326))
ORDER BY 21
LIMIT 200`
	rows, err := q.Query(ctx, sql, corridorWKT, routeWKT)
	if err != nil {
		return nil, nil, fmt.Errorf("query weather alerts in corridor: %w", err)
	}
	defer rows.Close()

	var alerts []model.WeatherAlert
	var positions []float64
	for rows.Next() {
		var a model.WeatherAlert
		var pos float64
		if err := rows.Scan(&a.ID, &a.NWSID, &a.Event, &a.Severity, &a.Urgency, &a.Certainty, &a.Headline, &a.Description,
			&a.Instruction, &a.AreaDescription, &a.AffectedZones, &a.GeometryGeoJSON,
			&a.Onset, &a.Expires, &a.LastUpdatedAt, &a.SenderName, &a.WindSpeed, &a.SnowAmount,
			&a.IsActive, &a.CreatedAt,
			&pos); err != nil {
			return nil, nil, fmt.Errorf("scan weather alert: %w", err)
		}
		alerts = append(alerts, a)
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate weather alerts: %w", err)
	}
	return alerts, positions, nil
}

// AlertsMissingGeometry returns NWS IDs and affected zone lists for those
// of the given alerts that have no geometry yet.
func (s *Store) AlertsMissingGeometry(ctx context.Context, q Querier, nwsIDs []string) (map[string][]string, error) {
	const sql = `
SELECT nws_id, affected_zones
FROM weather_alerts
WHERE nws_id = ANY($1)
  AND geometry IS NULL`
	rows, err := q.Query(ctx, sql, nwsIDs)
	if err != nil {
		return nil, fmt.Errorf("query alerts missing geometry: %w", err)
	}
	defer rows.Close()

	out := map[string][]string{}
	for rows.Next() {
		var id string
		var zones []string
		if err := rows.Scan(&id, &zones); err != nil {
			return nil, fmt.Errorf("scan alert missing geometry: %w", err)
		}
		out[id] = zones
	}
	return out, rows.Err()
}
