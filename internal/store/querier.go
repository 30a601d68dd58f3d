package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Querier is satisfied by *pgxpool.Pool, *pgxpool.Conn, and pgx.Tx. Every
// repository method in this package takes one explicitly rather than
// reaching into s.Pool directly, so the ingestion engine can scope a whole
// adapter run to one acquired connection (see the pool-starvation Open
// Question decision in DESIGN.md) while HTTP query handlers use the pool
// directly.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgx.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
