package model

import "time"

// WeatherAlert is a normalized NWS active-alert record. Unique key: NWSID.
// If Geometry is empty at ingest time the engine resolves it by merging
// affected-zone polygons (internal/zone).
type WeatherAlert struct {
	ID              string
	NWSID           string
	Event           string
	Severity        WeatherSeverity
	Urgency         *string
	Certainty       *string
	Headline        *string
	Description     *string
	Instruction     *string
	AreaDescription string
	AffectedZones   []string // zone URLs
	GeometryGeoJSON string   // Polygon|MultiPolygon, may be empty until resolved
	Onset           *time.Time
	Expires         *time.Time
	LastUpdatedAt   time.Time
	SenderName      *string
	WindSpeed       *string
	SnowAmount      *string
	IsActive        bool
	Raw             []byte
	CreatedAt       time.Time
}
