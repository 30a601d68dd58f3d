package router

import (
	"encoding/json"
	"time"

	"github.com/ciprian87/roadpulse/internal/model"
	"github.com/ciprian87/roadpulse/internal/routecheck"
	"github.com/ciprian87/roadpulse/internal/scheduler"
)

// rawGeometry passes an already-serialized GeoJSON string through
// json.Marshal without re-escaping it as a string literal.
func rawGeometry(geojson string) json.RawMessage {
	if geojson == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(geojson)
}

type roadEventDTO struct {
	ID                  string                     `json:"id"`
	Source              string                     `json:"source"`
	SourceEventID       string                     `json:"sourceEventId"`
	State               string                     `json:"state"`
	Type                string                     `json:"type"`
	Severity            string                     `json:"severity"`
	Title               string                     `json:"title"`
	Description         *string                    `json:"description,omitempty"`
	Direction           *string                    `json:"direction,omitempty"`
	RouteName           *string                    `json:"routeName,omitempty"`
	Geometry            json.RawMessage            `json:"geometry"`
	LocationDescription *string                    `json:"locationDescription,omitempty"`
	StartedAt           *time.Time                 `json:"startedAt,omitempty"`
	ExpectedEndAt       *time.Time                 `json:"expectedEndAt,omitempty"`
	LastUpdatedAt       time.Time                  `json:"lastUpdatedAt"`
	LaneImpact          *model.LaneImpact          `json:"laneImpact,omitempty"`
	VehicleRestrictions []model.VehicleRestriction `json:"vehicleRestrictions,omitempty"`
	DetourDescription   *string                    `json:"detourDescription,omitempty"`
	IsActive            bool                       `json:"isActive"`
	CreatedAt           time.Time                  `json:"createdAt"`
	UpdatedAt           time.Time                  `json:"updatedAt"`
}

func toRoadEventDTO(e model.RoadEvent) roadEventDTO {
	return roadEventDTO{
		ID:                  e.ID,
		Source:              e.Source,
		SourceEventID:       e.SourceEventID,
		State:               e.State,
		Type:                string(e.Type),
		Severity:            string(e.Severity),
		Title:               e.Title,
		Description:         e.Description,
		Direction:           e.Direction,
		RouteName:           e.RouteName,
		Geometry:            rawGeometry(e.GeometryGeoJSON),
		LocationDescription: e.LocationDesc,
		StartedAt:           e.StartedAt,
		ExpectedEndAt:       e.ExpectedEndAt,
		LastUpdatedAt:       e.LastUpdatedAt,
		LaneImpact:          e.LaneImpact,
		VehicleRestrictions: e.VehicleRestrictions,
		DetourDescription:   e.DetourDescription,
		IsActive:            e.IsActive,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}

type weatherAlertDTO struct {
	ID              string          `json:"id"`
	NWSID           string          `json:"nwsId"`
	Event           string          `json:"event"`
	Severity        string          `json:"severity"`
	Urgency         *string         `json:"urgency,omitempty"`
	Certainty       *string         `json:"certainty,omitempty"`
	Headline        *string         `json:"headline,omitempty"`
	Description     *string         `json:"description,omitempty"`
	Instruction     *string         `json:"instruction,omitempty"`
	AreaDescription string          `json:"areaDescription"`
	Geometry        json.RawMessage `json:"geometry"`
	Onset           *time.Time      `json:"onset,omitempty"`
	Expires         *time.Time      `json:"expires,omitempty"`
	LastUpdatedAt   time.Time       `json:"lastUpdatedAt"`
	SenderName      *string         `json:"senderName,omitempty"`
	WindSpeed       *string         `json:"windSpeed,omitempty"`
	SnowAmount      *string         `json:"snowAmount,omitempty"`
	IsActive        bool            `json:"isActive"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func toWeatherAlertDTO(a model.WeatherAlert) weatherAlertDTO {
	return weatherAlertDTO{
		ID:              a.ID,
		NWSID:           a.NWSID,
		Event:           a.Event,
		Severity:        string(a.Severity),
		Urgency:         a.Urgency,
		Certainty:       a.Certainty,
		Headline:        a.Headline,
		Description:     a.Description,
		Instruction:     a.Instruction,
		AreaDescription: a.AreaDescription,
		Geometry:        rawGeometry(a.GeometryGeoJSON),
		Onset:           a.Onset,
		Expires:         a.Expires,
		LastUpdatedAt:   a.LastUpdatedAt,
		SenderName:      a.SenderName,
		WindSpeed:       a.WindSpeed,
		SnowAmount:      a.SnowAmount,
		IsActive:        a.IsActive,
		CreatedAt:       a.CreatedAt,
	}
}

type parkingDTO struct {
	ID               string          `json:"id"`
	Source           string          `json:"source"`
	SourceFacilityID string          `json:"sourceFacilityId"`
	Name             string          `json:"name"`
	State            string          `json:"state"`
	Highway          *string         `json:"highway,omitempty"`
	Direction        *string         `json:"direction,omitempty"`
	Location         json.RawMessage `json:"location"`
	TotalSpaces      *int            `json:"totalSpaces,omitempty"`
	AvailableSpaces  *int            `json:"availableSpaces,omitempty"`
	Trend            *string         `json:"trend,omitempty"`
	Amenities        []string        `json:"amenities,omitempty"`
	LastUpdatedAt    time.Time       `json:"lastUpdatedAt"`
	IsActive         bool            `json:"isActive"`
}

func toParkingDTO(p model.ParkingFacility) parkingDTO {
	return parkingDTO{
		ID:               p.ID,
		Source:           p.Source,
		SourceFacilityID: p.SourceFacilityID,
		Name:             p.Name,
		State:            p.State,
		Highway:          p.Highway,
		Direction:        p.Direction,
		Location:         rawGeometry(p.LocationGeoJSON),
		TotalSpaces:      p.TotalSpaces,
		AvailableSpaces:  p.AvailableSpaces,
		Trend:            p.Trend,
		Amenities:        p.Amenities,
		LastUpdatedAt:    p.LastUpdatedAt,
		IsActive:         p.IsActive,
	}
}

type reportDTO struct {
	ID                  string          `json:"id"`
	UserID              *string         `json:"userId,omitempty"`
	Type                string          `json:"type"`
	Title               string          `json:"title"`
	Description         *string         `json:"description,omitempty"`
	Location            json.RawMessage `json:"location"`
	LocationDescription *string         `json:"locationDescription,omitempty"`
	RouteName           *string         `json:"routeName,omitempty"`
	State               *string         `json:"state,omitempty"`
	Severity            string          `json:"severity"`
	Upvotes             int             `json:"upvotes"`
	Downvotes           int             `json:"downvotes"`
	ModerationStatus    string          `json:"moderationStatus"`
	IsActive            bool            `json:"isActive"`
	ExpiresAt           time.Time       `json:"expiresAt"`
	CreatedAt           time.Time       `json:"createdAt"`
}

func toReportDTO(r model.CommunityReport) reportDTO {
	return reportDTO{
		ID:                  r.ID,
		UserID:              r.UserID,
		Type:                string(r.Type),
		Title:               r.Title,
		Description:         r.Description,
		Location:            rawGeometry(r.LocationGeoJSON),
		LocationDescription: r.LocationDesc,
		RouteName:           r.RouteName,
		State:               r.State,
		Severity:            string(r.Severity),
		Upvotes:             r.Upvotes,
		Downvotes:           r.Downvotes,
		ModerationStatus:    string(r.ModerationStatus),
		IsActive:            r.IsActive,
		ExpiresAt:           r.ExpiresAt,
		CreatedAt:           r.CreatedAt,
	}
}

type hazardDTO struct {
	Kind            string           `json:"kind"`
	ID              string           `json:"id"`
	Severity        string           `json:"severity"`
	Title           string           `json:"title"`
	Geometry        json.RawMessage  `json:"geometry"`
	PositionAlong   float64          `json:"positionAlongRoute"`
	RoadEvent       *roadEventDTO    `json:"roadEvent,omitempty"`
	WeatherAlert    *weatherAlertDTO `json:"weatherAlert,omitempty"`
	CommunityReport *reportDTO       `json:"communityReport,omitempty"`
}

func toHazardDTO(h model.Hazard) hazardDTO {
	d := hazardDTO{
		Kind:          string(h.Kind),
		ID:            h.ID,
		Severity:      h.Severity,
		Title:         h.Title,
		Geometry:      rawGeometry(h.GeometryGeoJSON),
		PositionAlong: h.PositionAlong,
	}
	if h.RoadEvent != nil {
		dto := toRoadEventDTO(*h.RoadEvent)
		d.RoadEvent = &dto
	}
	if h.WeatherAlert != nil {
		dto := toWeatherAlertDTO(*h.WeatherAlert)
		d.WeatherAlert = &dto
	}
	if h.CommunityReport != nil {
		dto := toReportDTO(*h.CommunityReport)
		d.CommunityReport = &dto
	}
	return d
}

type endpointDTO struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type routeDTO struct {
	Origin           endpointDTO     `json:"origin"`
	Destination      endpointDTO     `json:"destination"`
	DistanceMeters   float64         `json:"distanceMeters"`
	DurationSeconds  float64         `json:"durationSeconds"`
	Geometry         json.RawMessage `json:"geometry"`
	CorridorGeometry json.RawMessage `json:"corridorGeometry"`
}

type summaryDTO struct {
	TotalHazards      int `json:"totalHazards"`
	CriticalCount     int `json:"criticalCount"`
	WarningCount      int `json:"warningCount"`
	AdvisoryCount     int `json:"advisoryCount"`
	InfoCount         int `json:"infoCount"`
	RoadEventCount    int `json:"roadEventCount"`
	WeatherAlertCount int `json:"weatherAlertCount"`
}

type routeCheckResponseDTO struct {
	Route     routeDTO    `json:"route"`
	Hazards   []hazardDTO `json:"hazards"`
	Summary   summaryDTO  `json:"summary"`
	CheckedAt time.Time   `json:"checkedAt"`
}

func toRouteCheckDTO(resp routecheck.Response) routeCheckResponseDTO {
	hazards := make([]hazardDTO, len(resp.Hazards))
	for i, h := range resp.Hazards {
		hazards[i] = toHazardDTO(h)
	}
	return routeCheckResponseDTO{
		Route: routeDTO{
			Origin:           endpointDTO{Address: resp.Origin.Address, Lat: resp.Origin.Lat, Lng: resp.Origin.Lng},
			Destination:      endpointDTO{Address: resp.Destination.Address, Lat: resp.Destination.Lat, Lng: resp.Destination.Lng},
			DistanceMeters:   resp.DistanceMeters,
			DurationSeconds:  resp.DurationSeconds,
			Geometry:         rawGeometry(resp.Geometry),
			CorridorGeometry: rawGeometry(resp.CorridorGeometry),
		},
		Hazards: hazards,
		Summary: summaryDTO{
			TotalHazards:      resp.Summary.TotalHazards,
			CriticalCount:     resp.Summary.CriticalCount,
			WarningCount:      resp.Summary.WarningCount,
			AdvisoryCount:     resp.Summary.AdvisoryCount,
			InfoCount:         resp.Summary.InfoCount,
			RoadEventCount:    resp.Summary.RoadEventCount,
			WeatherAlertCount: resp.Summary.WeatherAlertCount,
		},
	}
}

func toSchedulerStatusDTO(s scheduler.Status) schedulerStatusDTO {
	dto := schedulerStatusDTO{
		IsPaused:        s.IsPaused,
		IntervalMinutes: s.IntervalMinutes,
		ActiveCount:     s.ActiveCount,
		WaitingCount:    s.WaitingCount,
	}
	if s.NextRunAt != nil {
		dto.NextRunAt = s.NextRunAt.Format(time.RFC3339)
	}
	if s.LastRunAt != nil {
		dto.LastRunAt = s.LastRunAt.Format(time.RFC3339)
	}
	return dto
}
