// Package store is the PostGIS-backed spatial store: road events, weather
// alerts, community reports, feed status, ingestion logs, usage events,
// parking facilities, and saved routes.
//
// Grounded on the pgxpool construction shown in other_examples'
// serroba-web-demo-go container.go; no full example repo carries real
// Postgres source, so the pool wiring style (context-scoped New, Ping on
// construction, Close on shutdown) is adapted from that reference and the
// pgx/v5 dependency named directly in jordigilh-kubernaut's go.mod.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pgxpool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}
