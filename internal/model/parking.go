package model

import "time"

// ParkingFacility is a TPIMS static/dynamic truck-parking record. Unique
// key: (Source, SourceFacilityID).
type ParkingFacility struct {
	ID               string
	Source           string
	SourceFacilityID string
	Name             string
	State            string
	Highway          *string
	Direction        *string
	LocationGeoJSON  string // Point
	TotalSpaces      *int
	AvailableSpaces  *int
	Trend            *string
	Amenities        []string
	LastUpdatedAt    time.Time
	IsActive         bool
}

// SavedRoute is owned by a user; no HTTP surface is specified for it per
// the Non-goals, but the repository method exists to back the lifecycle
// note in the data model.
type SavedRoute struct {
	ID              string
	UserID          string
	OriginText      string
	OriginGeoJSON   string
	DestText        string
	DestGeoJSON     string
	CorridorMiles   float64
	CreatedAt       time.Time
}
