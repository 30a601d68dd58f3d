// Package feed defines the Adapter contract every upstream feed (WZDx, NWS,
// TPIMS) implements, and the common normalized record shape the ingestion
// engine consumes. This is the interface §9 calls for in place of class
// inheritance: one parameterized adapter type per feed family, not a base
// class with 35 subtypes.
package feed

import (
	"context"
	"time"

	"github.com/ciprian87/roadpulse/internal/model"
)

// RecordKind discriminates which store a NormalizedRecord belongs in.
type RecordKind string

const (
	RecordRoadEvent RecordKind = "road_event"
	RecordWeather   RecordKind = "weather_alert"
	RecordParking   RecordKind = "parking_facility"
)

// NormalizedRecord is the common shape every adapter's Normalize emits.
// Exactly one of the typed payloads is set, matching Kind.
type NormalizedRecord struct {
	Kind      RecordKind
	RoadEvent *model.RoadEvent
	Weather   *model.WeatherAlert
	Parking   *model.ParkingFacility
}

// Adapter is the polymorphic contract over {identity, fetch, normalize}.
// Identity (Name/URL/State/TTL) is fixed at construction; Fetch and
// Normalize are the two operations the ingestion engine's template method
// calls.
type Adapter interface {
	Name() string
	URL() string
	State() string // 2-letter or "" for NWS / nationwide feeds
	CacheTTL() time.Duration

	// Kinds declares which record kinds this adapter can ever emit, so the
	// ingestion engine knows which reconciliation query to run even when a
	// fetch returns zero records (a feed going empty is a valid state that
	// must still deactivate all of its previously-seen rows).
	Kinds() []RecordKind

	// Fetch performs one HTTP GET bypassing any cache, timing out per the
	// caller's context, returning the raw payload bytes.
	Fetch(ctx context.Context) ([]byte, error)

	// Normalize parses raw and emits one NormalizedRecord per upstream
	// feature, skipping (not erroring on) features lacking geometry; the
	// NWS adapter is the exception and keeps alerts without geometry (empty
	// GeometryGeoJSON) so the engine can resolve their zone polygons. It
	// returns FETCH-unrelated errors only when the envelope itself is
	// unrecognizable.
	Normalize(ctx context.Context, raw []byte) ([]NormalizedRecord, error)
}
