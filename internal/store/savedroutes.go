package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ciprian87/roadpulse/internal/model"
)

// CreateSavedRoute persists a user's named origin/destination/corridor
// combination for later re-checking.
func (s *Store) CreateSavedRoute(ctx context.Context, q Querier, r *model.SavedRoute) (string, error) {
	id := uuid.NewString()
	const sql = `
INSERT INTO saved_routes (
	id, user_id, origin_text, origin_geojson, dest_text, dest_geojson,
	corridor_miles, created_at
) VALUES (
	$1, $2, $3, $4, $5, $6,
	$7, now()
)
RETURNING id`
	row := q.QueryRow(ctx, sql, id, r.UserID, r.OriginText, r.OriginGeoJSON, r.DestText, r.DestGeoJSON, r.CorridorMiles)
	var gotID string
	if err := row.Scan(&gotID); err != nil {
		return "", fmt.Errorf("create saved route: %w", err)
	}
	return gotID, nil
}

// ListSavedRoutes returns a user's saved routes, most recent first.
func (s *Store) ListSavedRoutes(ctx context.Context, q Querier, userID string) ([]model.SavedRoute, error) {
	const sql = `
SELECT id, user_id, origin_text, origin_geojson, dest_text, dest_geojson,
       corridor_miles, created_at
FROM saved_routes
WHERE user_id = $1
ORDER BY created_at DESC`
	rows, err := q.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved routes for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.SavedRoute
	for rows.Next() {
		var r model.SavedRoute
		if err := rows.Scan(&r.ID, &r.UserID, &r.OriginText, &r.OriginGeoJSON, &r.DestText, &r.DestGeoJSON,
			&r.CorridorMiles, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan saved route: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteSavedRoute removes a route owned by userID, returning false if no
// matching row existed (either wrong id or wrong owner).
func (s *Store) DeleteSavedRoute(ctx context.Context, q Querier, id, userID string) (bool, error) {
	const sql = `DELETE FROM saved_routes WHERE id = $1 AND user_id = $2`
	tag, err := q.Exec(ctx, sql, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete saved route %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
