// Package hazardquery runs the three concurrent corridor spatial queries
// of §4.6 and merges their hits into one position-ordered sequence.
// Clustering for the map view lives in the cluster subpackage.
package hazardquery

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ciprian87/roadpulse/internal/geo"
	"github.com/ciprian87/roadpulse/internal/model"
	"github.com/ciprian87/roadpulse/internal/store"
)

type Query struct {
	Store *store.Store
}

func New(st *store.Store) *Query {
	return &Query{Store: st}
}

// Summary tallies the merged hazard set by kind and by severity, returned
// by Run alongside the merged hazards.
type Summary struct {
	ByKind     map[string]int
	BySeverity map[string]int
}

func newSummary() Summary {
	return Summary{ByKind: map[string]int{}, BySeverity: map[string]int{}}
}

func (s Summary) add(h model.Hazard) {
	s.ByKind[string(h.Kind)]++
	s.BySeverity[h.Severity]++
}

// Run fans the three corridor queries out concurrently via errgroup,
// converts each repository row into the common Hazard shape, and returns
// them merged into one sequence ordered by position along the route.
func (q *Query) Run(ctx context.Context, conn store.Querier, corridorGeoJSON, routeWKT string) ([]model.Hazard, Summary, error) {
	corridorWKT, err := geo.GeoJSONToWKT(corridorGeoJSON)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("corridor geometry: %w", err)
	}

	var roadEvents []model.Hazard
	var weatherAlerts []model.Hazard
	var communityReports []model.Hazard

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events, positions, err := q.Store.RoadEventsInCorridor(gctx, conn, corridorWKT, routeWKT)
		if err != nil {
			return fmt.Errorf("road events in corridor: %w", err)
		}
		roadEvents = make([]model.Hazard, len(events))
		for i := range events {
			e := events[i]
			roadEvents[i] = model.Hazard{
				Kind: model.KindRoadEvent, ID: e.ID, Severity: string(e.Severity), Title: e.Title,
				GeometryGeoJSON: e.GeometryGeoJSON, PositionAlong: positions[i], CreatedAt: e.CreatedAt,
				RoadEvent: &e,
			}
		}
		return nil
	})

	g.Go(func() error {
		alerts, positions, err := q.Store.WeatherAlertsInCorridor(gctx, conn, corridorWKT, routeWKT)
		if err != nil {
			return fmt.Errorf("weather alerts in corridor: %w", err)
		}
		weatherAlerts = make([]model.Hazard, len(alerts))
		for i := range alerts {
			a := alerts[i]
			weatherAlerts[i] = model.Hazard{
				Kind: model.KindWeatherAlert, ID: a.ID, Severity: string(a.Severity), Title: a.Event,
				GeometryGeoJSON: a.GeometryGeoJSON, PositionAlong: positions[i], CreatedAt: a.CreatedAt,
				WeatherAlert: &a,
			}
		}
		return nil
	})

	g.Go(func() error {
		reports, positions, err := q.Store.CommunityReportsInCorridor(gctx, conn, corridorWKT, routeWKT)
		if err != nil {
			return fmt.Errorf("community reports in corridor: %w", err)
		}
		communityReports = make([]model.Hazard, len(reports))
		for i := range reports {
			r := reports[i]
			communityReports[i] = model.Hazard{
				Kind: model.KindCommunityReport, ID: r.ID, Severity: string(r.Severity), Title: r.Title,
				GeometryGeoJSON: r.LocationGeoJSON, PositionAlong: positions[i], CreatedAt: r.CreatedAt,
				CommunityReport: &r,
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}

	merged := MergeSorted(roadEvents, weatherAlerts, communityReports)
	summary := newSummary()
	for _, h := range merged {
		summary.add(h)
	}
	return merged, summary, nil
}
