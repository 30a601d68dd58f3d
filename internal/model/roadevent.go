package model

import "time"

type RoadEventType string

const (
	RoadEventClosure        RoadEventType = "CLOSURE"
	RoadEventRestriction    RoadEventType = "RESTRICTION"
	RoadEventConstruction   RoadEventType = "CONSTRUCTION"
	RoadEventIncident       RoadEventType = "INCIDENT"
	RoadEventWeatherClosure RoadEventType = "WEATHER_CLOSURE"
	RoadEventChainLaw       RoadEventType = "CHAIN_LAW"
	RoadEventSpecialEvent   RoadEventType = "SPECIAL_EVENT"
)

type LaneImpact struct {
	VehicleImpact  string `json:"vehicle_impact"`
	WorkersPresent *bool  `json:"workers_present,omitempty"`
}

type VehicleRestriction struct {
	Type  string  `json:"type"`
	Value *string `json:"value,omitempty"`
	Unit  *string `json:"unit,omitempty"`
}

// RoadEvent is a normalized WZDx work-zone/restriction/incident record.
// Unique key: (Source, SourceEventID).
type RoadEvent struct {
	ID                 string
	Source             string
	SourceEventID      string
	State              string
	Type               RoadEventType
	Severity           Severity
	Title              string
	Description        *string
	Direction          *string
	RouteName          *string
	GeometryGeoJSON    string // Point|LineString|MultiLineString|MultiPoint
	LocationDesc       *string
	StartedAt          *time.Time
	ExpectedEndAt      *time.Time
	LastUpdatedAt       time.Time
	LaneImpact         *LaneImpact
	VehicleRestrictions []VehicleRestriction
	DetourDescription  *string
	SourceFeedURL      *string
	IsActive           bool
	Raw                []byte
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
