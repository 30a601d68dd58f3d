package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ciprian87/roadpulse/internal/model"
)

// AppendIngestionLog records one completed ingestion attempt. Append-only,
// never updated.
func (s *Store) AppendIngestionLog(ctx context.Context, q Querier, l *model.IngestionLog) error {
	id := uuid.NewString()
	const sql = `
INSERT INTO ingestion_logs (
	id, feed_name, started_at, duration_ms, inserted_count, updated_count,
	deactivated_count, success, error_message
) VALUES (
	$1, $2, $3, $4, $5, $6,
	$7, $8, $9
)`
	if _, err := q.Exec(ctx, sql,
		id, l.FeedName, l.StartedAt, l.DurationMs, l.InsertedCount, l.UpdatedCount,
		l.DeactivatedCount, l.Success, l.ErrorMessage,
	); err != nil {
		return fmt.Errorf("append ingestion log for %s: %w", l.FeedName, err)
	}
	return nil
}

// ListIngestionLogs returns the most recent log rows, optionally scoped to
// one feed, for the ingestion-history read API in §4.8.
func (s *Store) ListIngestionLogs(ctx context.Context, q Querier, feedName string, limit int) ([]model.IngestionLog, error) {
	var rows pgx.Rows
	var err error
	if feedName != "" {
		rows, err = q.Query(ctx, `
SELECT id, feed_name, started_at, duration_ms, inserted_count, updated_count,
       deactivated_count, success, error_message
FROM ingestion_logs
WHERE feed_name = $1
ORDER BY started_at DESC
LIMIT $2`, feedName, limit)
	} else {
		rows, err = q.Query(ctx, `
SELECT id, feed_name, started_at, duration_ms, inserted_count, updated_count,
       deactivated_count, success, error_message
FROM ingestion_logs
ORDER BY started_at DESC
LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list ingestion logs: %w", err)
	}
	defer rows.Close()

	var out []model.IngestionLog
	for rows.Next() {
		var l model.IngestionLog
		if err := rows.Scan(&l.ID, &l.FeedName, &l.StartedAt, &l.DurationMs, &l.InsertedCount, &l.UpdatedCount,
			&l.DeactivatedCount, &l.Success, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan ingestion log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// PurgeOldIngestionLogs trims log rows older than retention so the
// append-only table doesn't grow unbounded.
func (s *Store) PurgeOldIngestionLogs(ctx context.Context, q Querier, retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, nil
	}
	const sql = `DELETE FROM ingestion_logs WHERE started_at < now() - $1::interval`
	tag, err := q.Exec(ctx, sql, retention.String())
	if err != nil {
		return 0, fmt.Errorf("purge old ingestion logs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
