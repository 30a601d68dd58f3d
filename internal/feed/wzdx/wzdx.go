// Package wzdx implements a single parameterized Adapter for the Work Zone
// Data Exchange feed family (v2-v4), configured per state DOT endpoint
// rather than modeled as 35 subtypes, per the spec's polymorphism note.
package wzdx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ciprian87/roadpulse/internal/feed"
	"github.com/ciprian87/roadpulse/internal/model"
	"github.com/ciprian87/roadpulse/internal/roaderr"
)

type Adapter struct {
	name       string
	url        string
	state      string
	cacheTTL   time.Duration
	httpClient *http.Client
}

func NewAdapter(name, url, state string, cacheTTL time.Duration, httpClient *http.Client) *Adapter {
	return &Adapter{name: name, url: url, state: strings.ToUpper(state), cacheTTL: cacheTTL, httpClient: httpClient}
}

func (a *Adapter) Name() string            { return a.name }
func (a *Adapter) URL() string             { return a.url }
func (a *Adapter) State() string           { return a.state }
func (a *Adapter) CacheTTL() time.Duration { return a.cacheTTL }
func (a *Adapter) Kinds() []feed.RecordKind { return []feed.RecordKind{feed.RecordRoadEvent} }

func (a *Adapter) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, roaderr.Wrap(roaderr.CodeFeedFetchError, "build wzdx request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, roaderr.Wrap(roaderr.CodeFeedFetchError, fmt.Sprintf("fetch %s", a.name), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, roaderr.New(roaderr.CodeFeedFetchError, fmt.Sprintf("%s returned status %d", a.name, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, roaderr.Wrap(roaderr.CodeFeedFetchError, "read wzdx body", err)
	}
	return body, nil
}

// feedEnvelope captures the version-detection fields shared across v2-v4.
type feedEnvelope struct {
	RoadEventFeedInfo *feedInfo       `json:"road_event_feed_info"`
	FeedInfo          *feedInfo       `json:"feed_info"`
	Type              string          `json:"type"`
	Features          json.RawMessage `json:"features"`
}

type feedInfo struct {
	Version string `json:"version"`
}

func (a *Adapter) Normalize(ctx context.Context, raw []byte) ([]feed.NormalizedRecord, error) {
	raw = unwrapDoubleEncoded(raw)

	// Some feeds return a bare feature array instead of a FeatureCollection.
	trimmed := strings.TrimSpace(string(raw))
	var featuresRaw json.RawMessage
	version := "v3"

	if strings.HasPrefix(trimmed, "[") {
		featuresRaw = raw
	} else {
		var env feedEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, roaderr.Wrap(roaderr.CodeFeedParseError, fmt.Sprintf("%s envelope unrecognizable", a.name), err)
		}
		if env.RoadEventFeedInfo != nil && env.RoadEventFeedInfo.Version != "" {
			version = majorVersion(env.RoadEventFeedInfo.Version)
		} else if env.FeedInfo != nil && env.FeedInfo.Version != "" {
			version = majorVersion(env.FeedInfo.Version)
		}
		if len(env.Features) == 0 {
			return nil, roaderr.New(roaderr.CodeFeedParseError, fmt.Sprintf("%s has no features array", a.name))
		}
		featuresRaw = env.Features
	}

	var rawFeatures []json.RawMessage
	if err := json.Unmarshal(featuresRaw, &rawFeatures); err != nil {
		return nil, roaderr.Wrap(roaderr.CodeFeedParseError, fmt.Sprintf("%s features not an array", a.name), err)
	}

	out := make([]feed.NormalizedRecord, 0, len(rawFeatures))
	for _, rf := range rawFeatures {
		rec, ok := a.normalizeFeature(rf, version)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// unwrapDoubleEncoded re-parses payloads that decode to a JSON string
// rather than an object/array, since some feeds double-encode their body.
func unwrapDoubleEncoded(raw []byte) []byte {
	trimmed := strings.TrimSpace(string(raw))
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return raw
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return raw
	}
	return []byte(inner)
}

func majorVersion(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "v")
	if idx := strings.Index(v, "."); idx >= 0 {
		v = v[:idx]
	}
	switch v {
	case "2", "3", "4":
		return "v" + v
	default:
		return "v3"
	}
}

type wzdxFeature struct {
	ID         string          `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

type wzdxProperties struct {
	CoreDetails *coreDetails `json:"core_details"`

	// v4: flattened onto properties directly
	RoadNamesV4 []string `json:"road_names"`
	StartDateV4 *string  `json:"start_date"`
	EndDateV4   *string  `json:"end_date"`
	VehicleImpactV4 *string `json:"vehicle_impact"`
	EventTypeV4     *string `json:"event_type"`

	// v2/v3 flat fallback (core_details absent despite version claim)
	RoadNameV2      *string `json:"road_name"`
	VehicleImpactV2 *string `json:"vehicle_impact_top"`
	EventTypeV2     *string `json:"event_type_top"`
	RoadEventIDV2   *string `json:"road_event_id"`

	DataSourceID   *string `json:"data_source_id"`
	Direction      *string `json:"direction"`
	Description    *string `json:"description"`
	LocationDesc   *string `json:"location_description"`
	DetourDesc     *string `json:"detour_description"`
	WorkersPresent *bool   `json:"workers_present"`
}

type coreDetails struct {
	DataSourceID  *string  `json:"data_source_id"`
	RoadNames     []string `json:"road_names"`
	Name          *string  `json:"name"` // v3 scalar alias for road_names
	Direction     *string  `json:"direction"`
	Description   *string  `json:"description"`
	EventType     *string  `json:"event_type"`
	StartDate     *string  `json:"start_date"`
	EndDate       *string  `json:"end_date"`
	VehicleImpact *string  `json:"vehicle_impact"`
}

func (a *Adapter) normalizeFeature(raw json.RawMessage, version string) (feed.NormalizedRecord, bool) {
	var f wzdxFeature
	if err := json.Unmarshal(raw, &f); err != nil {
		return feed.NormalizedRecord{}, false
	}
	if len(f.Geometry) == 0 || string(f.Geometry) == "null" {
		return feed.NormalizedRecord{}, false
	}

	var props wzdxProperties
	if len(f.Properties) > 0 {
		_ = json.Unmarshal(f.Properties, &props)
	}

	// v3 advertised but v2-style flat properties (core_details absent).
	usesV4Shape := version == "v4" || (props.CoreDetails == nil && props.RoadNamesV4 != nil)

	var (
		dataSourceID  string
		roadName      string
		direction     *string
		description   *string
		eventTypeRaw  string
		startDateRaw  string
		vehicleImpact string
	)

	if props.CoreDetails != nil {
		cd := props.CoreDetails
		if cd.DataSourceID != nil {
			dataSourceID = *cd.DataSourceID
		}
		if len(cd.RoadNames) > 0 {
			roadName = cd.RoadNames[0]
		} else if cd.Name != nil {
			roadName = *cd.Name
		}
		direction = cd.Direction
		description = cd.Description
		if cd.EventType != nil {
			eventTypeRaw = *cd.EventType
		}
		if usesV4Shape && props.StartDateV4 != nil {
			startDateRaw = *props.StartDateV4
		} else if cd.StartDate != nil {
			startDateRaw = *cd.StartDate
		}
		if cd.VehicleImpact != nil {
			vehicleImpact = *cd.VehicleImpact
		}
	} else {
		// flat v2/v3-compatible fallback
		if props.DataSourceID != nil {
			dataSourceID = *props.DataSourceID
		}
		if len(props.RoadNamesV4) > 0 {
			roadName = props.RoadNamesV4[0]
		} else if props.RoadNameV2 != nil {
			roadName = *props.RoadNameV2
		}
		direction = props.Direction
		description = props.Description
		if props.EventTypeV4 != nil {
			eventTypeRaw = *props.EventTypeV4
		} else if props.EventTypeV2 != nil {
			eventTypeRaw = *props.EventTypeV2
		}
		if props.StartDateV4 != nil {
			startDateRaw = *props.StartDateV4
		}
		if props.VehicleImpactV4 != nil {
			vehicleImpact = *props.VehicleImpactV4
		} else if props.VehicleImpactV2 != nil {
			vehicleImpact = *props.VehicleImpactV2
		}
	}

	sourceEventID := f.ID
	if sourceEventID == "" && props.RoadEventIDV2 != nil {
		sourceEventID = *props.RoadEventIDV2
	}
	if sourceEventID == "" {
		sourceEventID = fmt.Sprintf("%s:%s:%s", dataSourceID, roadName, startDateRaw)
	}

	var startedAt, expectedEndAt *time.Time
	if t, ok := parseTime(startDateRaw); ok {
		startedAt = &t
	}
	endDateRaw := ""
	if props.CoreDetails != nil && props.CoreDetails.EndDate != nil {
		endDateRaw = *props.CoreDetails.EndDate
	} else if props.EndDateV4 != nil {
		endDateRaw = *props.EndDateV4
	}
	if t, ok := parseTime(endDateRaw); ok {
		expectedEndAt = &t
	}

	re := &model.RoadEvent{
		Source:        a.name,
		SourceEventID: sourceEventID,
		State:         a.state,
		Type:          mapEventType(eventTypeRaw),
		Severity:      mapVehicleImpact(vehicleImpact),
		Title:         titleFor(roadName, eventTypeRaw),
		Description:   description,
		Direction:     direction,
		RouteName:     nonEmpty(roadName),
		GeometryGeoJSON: string(f.Geometry),
		LocationDesc:  props.LocationDesc,
		StartedAt:     startedAt,
		ExpectedEndAt: expectedEndAt,
		LastUpdatedAt: time.Now().UTC(),
		LaneImpact: &model.LaneImpact{
			VehicleImpact:  vehicleImpact,
			WorkersPresent: props.WorkersPresent,
		},
		DetourDescription: props.DetourDesc,
		SourceFeedURL:     &a.url,
		IsActive:          true,
		Raw:               raw,
	}

	return feed.NormalizedRecord{Kind: feed.RecordRoadEvent, RoadEvent: re}, true
}

// mapVehicleImpact implements the total, deterministic §4.1 mapping.
func mapVehicleImpact(vi string) model.Severity {
	switch vi {
	case "all-lanes-closed":
		return model.SeverityCritical
	case "some-lanes-closed", "alternating-one-way", "merge-left", "merge-right":
		return model.SeverityWarning
	case "shifting-left", "shifting-right", "reduced-speed-zone":
		return model.SeverityAdvisory
	default:
		return model.SeverityInfo
	}
}

func mapEventType(et string) model.RoadEventType {
	switch et {
	case "work-zone":
		return model.RoadEventConstruction
	case "restriction":
		return model.RoadEventRestriction
	case "incident":
		return model.RoadEventIncident
	case "event":
		return model.RoadEventSpecialEvent
	default:
		return model.RoadEventConstruction
	}
}

func titleFor(roadName, eventType string) string {
	roadName = strings.TrimSpace(roadName)
	if roadName == "" {
		roadName = "Unnamed road"
	}
	if eventType == "" {
		eventType = "work zone"
	}
	return fmt.Sprintf("%s: %s", roadName, eventType)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
