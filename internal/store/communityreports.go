package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ciprian87/roadpulse/internal/geo"
	"github.com/ciprian87/roadpulse/internal/model"
)

// CreateReport inserts a new community report with its type-dependent
// expiry already computed by the caller.
func (s *Store) CreateReport(ctx context.Context, q Querier, r *model.CommunityReport) (string, error) {
	wkt, err := geo.GeoJSONToWKT(r.LocationGeoJSON)
	if err != nil {
		return "", fmt.Errorf("report location: %w", err)
	}

	id := uuid.NewString()
	const sql = `
INSERT INTO community_reports (
	id, user_id, type, title, description, location, location_description,
	route_name, state, severity, upvotes, downvotes, moderation_status,
	is_active, expires_at, created_at
) VALUES (
	$1, $2, $3, $4, $5, ST_GeomFromText($6, 4326), $7,
	$8, $9, $10, 0, 0, $11,
	true, $12, now()
)
RETURNING id`
	row := q.QueryRow(ctx, sql,
		id, r.UserID, r.Type, r.Title, r.Description, wkt, r.LocationDesc,
		r.RouteName, r.State, r.Severity, model.ModerationPending,
		r.ExpiresAt,
	)
	var gotID string
	if err := row.Scan(&gotID); err != nil {
		return "", fmt.Errorf("create community report: %w", err)
	}
	return gotID, nil
}

// VoteOnReport toggles a user's vote on report under a row-level lock, per
// §4.7: no prior vote inserts and increments; same vote deletes and
// decrements (toggle off); opposite vote flips both counters. Must run
// inside a transaction since it issues SELECT ... FOR UPDATE followed by
// dependent writes.
func (s *Store) VoteOnReport(ctx context.Context, tx pgx.Tx, reportID, userID string, vote model.Vote) (*model.VoteResult, error) {
	const lockSQL = `SELECT upvotes, downvotes FROM community_reports WHERE id = $1 FOR UPDATE`
	var upvotes, downvotes int
	if err := tx.QueryRow(ctx, lockSQL, reportID).Scan(&upvotes, &downvotes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("report %s not found: %w", reportID, err)
		}
		return nil, fmt.Errorf("lock report %s: %w", reportID, err)
	}

	const existingVoteSQL = `SELECT vote FROM report_votes WHERE report_id = $1 AND user_id = $2`
	var existing string
	err := tx.QueryRow(ctx, existingVoteSQL, reportID, userID).Scan(&existing)
	hasExisting := err == nil
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("read existing vote: %w", err)
	}

	var userVote *model.Vote

	switch {
	case !hasExisting:
		if _, err := tx.Exec(ctx, `INSERT INTO report_votes (report_id, user_id, vote) VALUES ($1, $2, $3)`, reportID, userID, vote); err != nil {
			return nil, fmt.Errorf("insert vote: %w", err)
		}
		upvotes, downvotes = incrementFor(vote, upvotes, downvotes)
		v := vote
		userVote = &v

	case model.Vote(existing) == vote:
		if _, err := tx.Exec(ctx, `DELETE FROM report_votes WHERE report_id = $1 AND user_id = $2`, reportID, userID); err != nil {
			return nil, fmt.Errorf("delete vote: %w", err)
		}
		upvotes, downvotes = decrementFor(vote, upvotes, downvotes)
		userVote = nil

	default:
		if _, err := tx.Exec(ctx, `UPDATE report_votes SET vote = $3 WHERE report_id = $1 AND user_id = $2`, reportID, userID, vote); err != nil {
			return nil, fmt.Errorf("update vote: %w", err)
		}
		upvotes, downvotes = decrementFor(model.Vote(existing), upvotes, downvotes)
		upvotes, downvotes = incrementFor(vote, upvotes, downvotes)
		v := vote
		userVote = &v
	}

	const updateCountsSQL = `UPDATE community_reports SET upvotes = $2, downvotes = $3 WHERE id = $1`
	if _, err := tx.Exec(ctx, updateCountsSQL, reportID, upvotes, downvotes); err != nil {
		return nil, fmt.Errorf("update report counters: %w", err)
	}

	return &model.VoteResult{Upvotes: upvotes, Downvotes: downvotes, UserVote: userVote}, nil
}

func incrementFor(v model.Vote, up, down int) (int, int) {
	if v == model.VoteUp {
		return up + 1, down
	}
	return up, down + 1
}

func decrementFor(v model.Vote, up, down int) (int, int) {
	if v == model.VoteUp {
		return max(0, up-1), down
	}
	return up, max(0, down-1)
}

// ExpireOldReports deactivates reports whose expiry has passed, called by
// the scheduler on every tick.
func (s *Store) ExpireOldReports(ctx context.Context, q Querier) (int, error) {
	const sql = `UPDATE community_reports SET is_active = false WHERE is_active AND expires_at < now()`
	tag, err := q.Exec(ctx, sql)
	if err != nil {
		return 0, fmt.Errorf("expire old reports: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CommunityReportsInCorridor runs §4.6 query 3, excluding soft-moderated
// reports per §4.7 (score below -2, or explicitly removed).
func (s *Store) CommunityReportsInCorridor(ctx context.Context, q Querier, corridorWKT, routeWKT string) ([]model.CommunityReport, []float64, error) {
	const sql = `
SELECT id, user_id, type, title, description, ST_AsGeoJSON(location), location_description,
       route_name, state, severity, upvotes, downvotes, moderation_status,
       is_active, expires_at, created_at,
       ST_LineLocatePoint(ST_GeomFromText($2, 4326), ST_Centroid(location))
FROM community_reports
WHERE is_active
  AND (expires_at IS NULL OR expires_at > now())
  AND (upvotes - downvotes) >= -2
  AND moderation_status <> 'removed'
  AND ST_Intersects(location, ST_GeomFromText($1, 4326))
ORDER BY 17
LIMIT 100`
	rows, err := q.Query(ctx, sql, corridorWKT, routeWKT)
	if err != nil {
		return nil, nil, fmt.Errorf("query community reports in corridor: %w", err)
	}
	defer rows.Close()

	var reports []model.CommunityReport
	var positions []float64
	for rows.Next() {
		var r model.CommunityReport
		var pos float64
		if err := rows.Scan(&r.ID, &r.UserID, &r.Type, &r.Title, &r.Description, &r.LocationGeoJSON, &r.LocationDesc,
			&r.RouteName, &r.State, &r.Severity, &r.Upvotes, &r.Downvotes, &r.ModerationStatus,
			&r.IsActive, &r.ExpiresAt, &r.CreatedAt,
			&pos); err != nil {
			return nil, nil, fmt.Errorf("scan community report: %w", err)
		}
		reports = append(reports, r)
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate community reports: %w", err)
	}
	return reports, positions, nil
}

// ListReports backs the community-reports query surface, filtering only by
// the active flag (there is no bbox filter), and excludes soft-moderated
// rows exactly as CommunityReportsInCorridor does.
func (s *Store) ListReports(ctx context.Context, q Querier, activeOnly bool, limit, offset int) ([]model.CommunityReport, error) {
	sql := `
SELECT id, user_id, type, title, description, ST_AsGeoJSON(location), location_description,
       route_name, state, severity, upvotes, downvotes, moderation_status,
       is_active, expires_at, created_at
FROM community_reports
WHERE (upvotes - downvotes) >= -2
  AND moderation_status <> 'removed'`
	if activeOnly {
		sql += " AND is_active AND (expires_at IS NULL OR expires_at > now())"
	}
	sql += " ORDER BY created_at DESC LIMIT $1 OFFSET $2"

	rows, err := q.Query(ctx, sql, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []model.CommunityReport
	for rows.Next() {
		var r model.CommunityReport
		if err := rows.Scan(&r.ID, &r.UserID, &r.Type, &r.Title, &r.Description, &r.LocationGeoJSON, &r.LocationDesc,
			&r.RouteName, &r.State, &r.Severity, &r.Upvotes, &r.Downvotes, &r.ModerationStatus,
			&r.IsActive, &r.ExpiresAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
