// Package nws implements the Adapter for the National Weather Service
// active-alerts feed, grounded on the CAP alert field shapes also seen in
// the corpus's nws-alert reference parser (other_examples).
package nws

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

const activeAlertsURL = "https://api.weather.gov/alerts/active"

// roadRelevantEvents filters NWS's broad alert catalog down to the subset
// a truck driver cares about: winter weather, wind, flooding, and fire
// conditions that affect roadway safety.
var roadRelevantEvents = map[string]bool{
	"Winter Storm Warning":      true,
	"Winter Weather Advisory":   true,
	"Ice Storm Warning":         true,
	"Blizzard Warning":          true,
	"High Wind Warning":         true,
	"Wind Advisory":             true,
	"Flood Warning":             true,
	"Flash Flood Warning":       true,
	"Dust Storm Warning":        true,
	"Dense Fog Advisory":        true,
	"Red Flag Warning":          true,
	"Tornado Warning":           true,
	"Severe Thunderstorm Warning": true,
	"Avalanche Warning":         true,
	"Extreme Cold Warning":      true,
}

type Adapter struct {
	name       string
	cacheTTL   time.Duration
	userAgent  string
	httpClient *http.Client
}

func NewAdapter(userAgent string, cacheTTL time.Duration, httpClient *http.Client) *Adapter {
	return &Adapter{name: "nws", cacheTTL: cacheTTL, userAgent: userAgent, httpClient: httpClient}
}

func (a *Adapter) Name() string            { return a.name }
func (a *Adapter) URL() string             { return activeAlertsURL }
func (a *Adapter) State() string           { return "" }
func (a *Adapter) CacheTTL() time.Duration { return a.cacheTTL }
func (a *Adapter) Kinds() []feed.RecordKind { return []feed.RecordKind{feed.RecordWeather} }

func (a *Adapter) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, activeAlertsURL, nil)
	if err != nil {
		return nil, roaderr.Wrap(roaderr.CodeFeedFetchError, "build nws request", err)
	}
	req.Header.Set("Accept", "application/geo+json")
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, roaderr.Wrap(roaderr.CodeFeedFetchError, "fetch nws alerts", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, roaderr.New(roaderr.CodeFeedFetchError, fmt.Sprintf("nws returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, roaderr.Wrap(roaderr.CodeFeedFetchError, "read nws body", err)
	}
	return body, nil
}

type alertFeature struct {
	ID         string          `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties alertProperties `json:"properties"`
}

type alertProperties struct {
	ID              string          `json:"id"`
	AreaDesc        string          `json:"areaDesc"`
	AffectedZones   []string        `json:"affectedZones"`
	Sent            string          `json:"sent"`
	Onset           *string         `json:"onset"`
	Expires         *string         `json:"expires"`
	Status          string          `json:"status"`
	MessageType     string          `json:"messageType"`
	Severity        string          `json:"severity"`
	Certainty       *string         `json:"certainty"`
	Urgency         *string         `json:"urgency"`
	Event           string          `json:"event"`
	SenderName      *string         `json:"senderName"`
	Headline        *string         `json:"headline"`
	Description     *string         `json:"description"`
	Instruction     *string         `json:"instruction"`
	Parameters      json.RawMessage `json:"parameters"`
}

type alertParameters struct {
	WindSpeed  []string `json:"windSpeed"`
	SnowAmount []string `json:"snowAmount"`
}

func (a *Adapter) Normalize(ctx context.Context, raw []byte) ([]feed.NormalizedRecord, error) {
	var fc struct {
		Type     string         `json:"type"`
		Features []alertFeature `json:"features"`
	}
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, roaderr.Wrap(roaderr.CodeFeedParseError, "nws envelope unrecognizable", err)
	}

	out := make([]feed.NormalizedRecord, 0, len(fc.Features))
	for _, f := range fc.Features {
		if !roadRelevantEvents[f.Properties.Event] {
			continue
		}
		rec, ok := a.normalizeFeature(f)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (a *Adapter) normalizeFeature(f alertFeature) (feed.NormalizedRecord, bool) {
	p := f.Properties
	nwsID := p.ID
	if nwsID == "" {
		nwsID = f.ID
	}
	if nwsID == "" {
		return feed.NormalizedRecord{}, false
	}

	var params alertParameters
	if len(p.Parameters) > 0 {
		_ = json.Unmarshal(p.Parameters, &params)
	}

	var windSpeed, snowAmount *string
	if len(params.WindSpeed) > 0 {
		windSpeed = &params.WindSpeed[0]
	}
	if len(params.SnowAmount) > 0 {
		snowAmount = &params.SnowAmount[0]
	}

	geomStr := ""
	if len(f.Geometry) > 0 && string(f.Geometry) != "null" {
		geomStr = string(f.Geometry)
	}

	var onset, expires *time.Time
	if p.Onset != nil {
		if t, ok := parseTime(*p.Onset); ok {
			onset = &t
		}
	}
	if p.Expires != nil {
		if t, ok := parseTime(*p.Expires); ok {
			expires = &t
		}
	}

	raw, _ := json.Marshal(f)

	wa := &model.WeatherAlert{
		NWSID:           nwsID,
		Event:           p.Event,
		Severity:        model.WeatherSeverity(orUnknown(p.Severity)),
		Urgency:         p.Urgency,
		Certainty:       p.Certainty,
		Headline:        p.Headline,
		Description:     p.Description,
		Instruction:     p.Instruction,
		AreaDescription: p.AreaDesc,
		AffectedZones:   p.AffectedZones,
		GeometryGeoJSON: geomStr,
		Onset:           onset,
		Expires:         expires,
		LastUpdatedAt:   time.Now().UTC(),
		SenderName:      p.SenderName,
		WindSpeed:       windSpeed,
		SnowAmount:      snowAmount,
		IsActive:        true,
		Raw:             raw,
	}

	return feed.NormalizedRecord{Kind: feed.RecordWeather, Weather: wa}, true
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return string(model.WeatherUnknown)
	}
	return s
}

func parseTime(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
