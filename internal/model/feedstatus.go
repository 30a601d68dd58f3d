package model

import "time"

type FeedHealth string

const (
	FeedHealthy   FeedHealth = "healthy"
	FeedDegraded  FeedHealth = "degraded"
	FeedDown      FeedHealth = "down"
	FeedUnknown   FeedHealth = "unknown"
)

// FeedStatus has exactly one row per registered feed, created lazily on
// first ingest.
type FeedStatus struct {
	FeedName            string
	FeedURL             string
	State               *string
	Status              FeedHealth
	LastSuccessAt       *time.Time
	LastErrorAt         *time.Time
	LastErrorMessage    *string
	RecordCount         *int
	AvgFetchMs          *float64
	IsEnabled           bool
	RefreshIntervalMins int
	UpdatedAt           time.Time
}

// IngestionLog is an append-only audit row for one ingestion attempt.
type IngestionLog struct {
	ID                string
	FeedName          string
	StartedAt         time.Time
	DurationMs        int64
	InsertedCount     int
	UpdatedCount      int
	DeactivatedCount  int
	Success           bool
	ErrorMessage      *string
}

// UsageEvent is an append-only analytics/health row.
type UsageEvent struct {
	ID        string
	EventType string
	Metadata  map[string]any
	UserID    *string
	CreatedAt time.Time
}
