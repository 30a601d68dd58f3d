package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ciprian87/roadpulse/internal/model"
)

// UpsertFeedStatusSuccess records a successful ingestion run, creating the
// feed_status row lazily on first use.
func (s *Store) UpsertFeedStatusSuccess(ctx context.Context, q Querier, feedName, feedURL, state string, recordCount int, fetchMs float64, refreshIntervalMins int) error {
	const sql = `
INSERT INTO feed_status (
	feed_name, feed_url, state, status, last_success_at, record_count,
	avg_fetch_ms, is_enabled, refresh_interval_mins, updated_at
) VALUES (
	$1, $2, $3, $4, now(), $5,
	$6, true, $7, now()
)
ON CONFLICT (feed_name) DO UPDATE SET
	feed_url = EXCLUDED.feed_url,
	state = EXCLUDED.state,
	status = EXCLUDED.status,
	last_success_at = now(),
	record_count = EXCLUDED.record_count,
	avg_fetch_ms = (COALESCE(feed_status.avg_fetch_ms, EXCLUDED.avg_fetch_ms) + EXCLUDED.avg_fetch_ms) / 2,
	refresh_interval_mins = EXCLUDED.refresh_interval_mins,
	updated_at = now()`
	if _, err := q.Exec(ctx, sql, feedName, feedURL, state, model.FeedHealthy, recordCount, fetchMs, refreshIntervalMins); err != nil {
		return fmt.Errorf("upsert feed status success %s: %w", feedName, err)
	}
	return nil
}

// UpsertFeedStatusFailure records a failed ingestion run with the given
// health. The ingestion engine passes FeedDown on every failure; no
// consecutive-failure count is kept.
func (s *Store) UpsertFeedStatusFailure(ctx context.Context, q Querier, feedName, feedURL, state string, health model.FeedHealth, errMsg string, refreshIntervalMins int) error {
	const sql = `
INSERT INTO feed_status (
	feed_name, feed_url, state, status, last_error_at, last_error_message,
	is_enabled, refresh_interval_mins, updated_at
) VALUES (
	$1, $2, $3, $4, now(), $5,
	true, $6, now()
)
ON CONFLICT (feed_name) DO UPDATE SET
	feed_url = EXCLUDED.feed_url,
	state = EXCLUDED.state,
	status = EXCLUDED.status,
	last_error_at = now(),
	last_error_message = EXCLUDED.last_error_message,
	refresh_interval_mins = EXCLUDED.refresh_interval_mins,
	updated_at = now()`
	if _, err := q.Exec(ctx, sql, feedName, feedURL, state, health, errMsg, refreshIntervalMins); err != nil {
		return fmt.Errorf("upsert feed status failure %s: %w", feedName, err)
	}
	return nil
}

// ListFeedStatuses backs the feed-health read API in §4.8.
func (s *Store) ListFeedStatuses(ctx context.Context, q Querier) ([]model.FeedStatus, error) {
	const sql = `
SELECT feed_name, feed_url, state, status, last_success_at, last_error_at,
       last_error_message, record_count, avg_fetch_ms, is_enabled,
       refresh_interval_mins, updated_at
FROM feed_status
ORDER BY feed_name`
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("list feed statuses: %w", err)
	}
	defer rows.Close()

	var out []model.FeedStatus
	for rows.Next() {
		var f model.FeedStatus
		if err := rows.Scan(&f.FeedName, &f.FeedURL, &f.State, &f.Status, &f.LastSuccessAt, &f.LastErrorAt,
			&f.LastErrorMessage, &f.RecordCount, &f.AvgFetchMs, &f.IsEnabled,
			&f.RefreshIntervalMins, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan feed status: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// StaleFeeds returns the names of enabled feeds whose last success is
// missing or older than maxAge. It changes no feed status itself.
func (s *Store) StaleFeeds(ctx context.Context, q Querier, maxAge time.Duration) ([]string, error) {
	const sql = `
SELECT feed_name
FROM feed_status
WHERE is_enabled
  AND (last_success_at IS NULL OR last_success_at < now() - $1::interval)`
	rows, err := q.Query(ctx, sql, maxAge.String())
	if err != nil {
		return nil, fmt.Errorf("query stale feeds: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan stale feed: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
