// Package tpims implements the Adapter for Truck Parking Information and
// Management System static+dynamic feeds, supplementing spec.md's
// ParkingFacility data model with an ingestion path (see SPEC_FULL.md
// "SUPPLEMENTED FEATURES"). Reconciliation for these records is scoped by
// (source, source_facility_id) rather than (source, source_event_id).
package tpims

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
func (a *Adapter) Kinds() []feed.RecordKind { return []feed.RecordKind{feed.RecordParking} }

func (a *Adapter) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, roaderr.Wrap(roaderr.CodeFeedFetchError, "build tpims request", err)
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
		return nil, roaderr.Wrap(roaderr.CodeFeedFetchError, "read tpims body", err)
	}
	return body, nil
}

type tpimsFeature struct {
	ID         string          `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties tpimsProperties `json:"properties"`
}

type tpimsProperties struct {
	SiteID          string   `json:"site_id"`
	Name            string   `json:"name"`
	State           string   `json:"state"`
	Highway         *string  `json:"highway"`
	Direction       *string  `json:"direction"`
	TotalSpaces     *int     `json:"capacity"`
	AvailableSpaces *int     `json:"available"`
	Trend           *string  `json:"trend"`
	Amenities       []string `json:"amenities"`
}

func (a *Adapter) Normalize(ctx context.Context, raw []byte) ([]feed.NormalizedRecord, error) {
	var fc struct {
		Type     string         `json:"type"`
		Features []tpimsFeature `json:"features"`
	}
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, roaderr.Wrap(roaderr.CodeFeedParseError, fmt.Sprintf("%s envelope unrecognizable", a.name), err)
	}

	out := make([]feed.NormalizedRecord, 0, len(fc.Features))
	for _, f := range fc.Features {
		if len(f.Geometry) == 0 || string(f.Geometry) == "null" {
			continue
		}
		id := f.Properties.SiteID
		if id == "" {
			id = f.ID
		}
		if id == "" {
			continue
		}
		state := strings.ToUpper(f.Properties.State)
		if state == "" {
			state = a.state
		}
		pf := &model.ParkingFacility{
			Source:           a.name,
			SourceFacilityID: id,
			Name:             f.Properties.Name,
			State:            state,
			Highway:          f.Properties.Highway,
			Direction:        f.Properties.Direction,
			LocationGeoJSON:  string(f.Geometry),
			TotalSpaces:      f.Properties.TotalSpaces,
			AvailableSpaces:  f.Properties.AvailableSpaces,
			Trend:            f.Properties.Trend,
			Amenities:        f.Properties.Amenities,
			LastUpdatedAt:    time.Now().UTC(),
			IsActive:         true,
		}
		out = append(out, feed.NormalizedRecord{Kind: feed.RecordParking, Parking: pf})
	}
	return out, nil
}
