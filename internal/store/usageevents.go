package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ciprian87/roadpulse/internal/model"
)

// InsertUsageEventsBatch writes a batch of usage events in one round trip,
// the sink for the async drop-on-full usage writer. Empty input is a no-op.
func (s *Store) InsertUsageEventsBatch(ctx context.Context, q Querier, events []model.UsageEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := make([][]any, 0, len(events))
	for _, e := range events {
		meta, err := marshalJSON(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal usage event metadata: %w", err)
		}
		batch = append(batch, []any{uuid.NewString(), e.EventType, meta, e.UserID})
	}

	sql := `INSERT INTO usage_events (id, event_type, metadata, user_id, created_at) VALUES `
	args := make([]any, 0, len(batch)*4)
	for i, row := range batch {
		if i > 0 {
			sql += ", "
		}
		n := i * 4
		sql += fmt.Sprintf("($%d, $%d, $%d, $%d, now())", n+1, n+2, n+3, n+4)
		args = append(args, row...)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert usage events: %w", err)
	}
	return nil
}

// PurgeOldUsageEvents trims analytics rows older than retention.
func (s *Store) PurgeOldUsageEvents(ctx context.Context, q Querier, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	const sql = `DELETE FROM usage_events WHERE created_at < now() - ($1 || ' days')::interval`
	tag, err := q.Exec(ctx, sql, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("purge old usage events: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
