package model

import "time"

type ReportType string

const (
	ReportRoadHazard     ReportType = "ROAD_HAZARD"
	ReportClosureUpdate  ReportType = "CLOSURE_UPDATE"
	ReportWeatherCond    ReportType = "WEATHER_CONDITION"
	ReportWaitTime       ReportType = "WAIT_TIME"
	ReportParkingFull    ReportType = "PARKING_FULL"
	ReportOther          ReportType = "OTHER"
)

// ReportExpiryHours gives the type-dependent expiry window used when a
// report is created. Values chosen so time-sensitive reports (wait time,
// parking) expire fast and hazard/closure reports last longer.
var ReportExpiryHours = map[ReportType]int{
	ReportRoadHazard:    24,
	ReportClosureUpdate: 12,
	ReportWeatherCond:   6,
	ReportWaitTime:      2,
	ReportParkingFull:   4,
	ReportOther:         12,
}

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRemoved  ModerationStatus = "removed"
)

type Vote string

const (
	VoteUp   Vote = "up"
	VoteDown Vote = "down"
)

// CommunityReport is a crowdsourced hazard report. At most one vote per
// (report, user) is retained in the votes table.
type CommunityReport struct {
	ID               string
	UserID           *string
	Type             ReportType
	Title            string
	Description      *string
	LocationGeoJSON  string // Point
	LocationDesc     *string
	RouteName        *string
	State            *string
	Severity         Severity
	Upvotes          int
	Downvotes        int
	ModerationStatus ModerationStatus
	IsActive         bool
	ExpiresAt        time.Time
	CreatedAt        time.Time
}

// VoteResult is returned by community.VoteOnReport.
type VoteResult struct {
	Upvotes   int
	Downvotes int
	UserVote  *Vote
}
