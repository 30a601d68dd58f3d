// Package ingest implements the template-method ingestion engine shared by
// every feed adapter: cache-or-fetch, normalize, zone-resolve (NWS only),
// upsert, reconcile, and feed-status/ingestion-log bookkeeping.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ciprian87/roadpulse/internal/cache"
	"github.com/ciprian87/roadpulse/internal/core/observability"
	"github.com/ciprian87/roadpulse/internal/feed"
	"github.com/ciprian87/roadpulse/internal/logger"
	"github.com/ciprian87/roadpulse/internal/model"
	"github.com/ciprian87/roadpulse/internal/roaderr"
	"github.com/ciprian87/roadpulse/internal/store"
	"github.com/ciprian87/roadpulse/internal/zone"
)

// Result summarizes one adapter run, the element of the scheduler's
// "vector of {feed, result | error}".
type Result struct {
	Feed             string
	Success          bool
	InsertedCount    int
	UpdatedCount     int
	DeactivatedCount int
	DurationMs       int64
	Err              error
}

type Engine struct {
	Store *store.Store
	Cache cache.Interface
	Zones *zone.Resolver
	Log   zerolog.Logger
}

func New(s *store.Store, c cache.Interface, z *zone.Resolver, log zerolog.Logger) *Engine {
	return &Engine{Store: s, Cache: c, Zones: z, Log: log}
}

// Run executes the ingestion template method for one adapter, scoping the
// whole run to a single acquired pool connection per the pool-starvation
// Open Question decision, rather than borrowing/returning a connection per
// statement.
func (e *Engine) Run(ctx context.Context, a feed.Adapter) Result {
	start := time.Now()
	feedName := a.Name()
	ctx = logger.WithFeed(ctx, feedName)
	log := logger.FromContext(ctx, &e.Log)

	res := Result{Feed: feedName}

	conn, err := e.Store.Pool.Acquire(ctx)
	if err != nil {
		res.Err = fmt.Errorf("acquire connection for %s: %w", feedName, err)
		e.recordFailure(ctx, e.Store.Pool, a, res.Err, start)
		return res
	}
	defer conn.Release()

	if err := e.run(ctx, conn, a, &res); err != nil {
		res.Success = false
		res.Err = err
		res.DurationMs = time.Since(start).Milliseconds()
		e.recordFailure(ctx, conn, a, err, start)
		log.Error().Err(err).Msg("ingestion run failed")
		observability.ObserveIngestRun(feedName, false, time.Since(start), res.InsertedCount, res.UpdatedCount, res.DeactivatedCount)
		return res
	}

	res.Success = true
	res.DurationMs = time.Since(start).Milliseconds()
	log.Info().
		Int("inserted", res.InsertedCount).
		Int("updated", res.UpdatedCount).
		Int("deactivated", res.DeactivatedCount).
		Int64("duration_ms", res.DurationMs).
		Msg("ingestion run succeeded")
	observability.ObserveIngestRun(feedName, true, time.Since(start), res.InsertedCount, res.UpdatedCount, res.DeactivatedCount)
	return res
}

func (e *Engine) run(ctx context.Context, q store.Querier, a feed.Adapter, res *Result) error {
	start := time.Now()
	raw, err := e.fetchWithCache(ctx, a)
	if err != nil {
		return err
	}
	fetchMs := float64(time.Since(start).Milliseconds())

	records, err := a.Normalize(ctx, raw)
	if err != nil {
		return roaderr.Wrap(roaderr.CodeFeedParseError, "normalize feed payload", err)
	}

	weatherByNWSID := map[string]*model.WeatherAlert{}
	var seenRoadEventIDs, seenParkingIDs, seenNWSIDs []string

	for _, rec := range records {
		switch rec.Kind {
		case feed.RecordRoadEvent:
			if rec.RoadEvent == nil {
				continue
			}
			_, inserted, err := e.Store.UpsertRoadEvent(ctx, q, rec.RoadEvent)
			if err != nil {
				return fmt.Errorf("upsert road event: %w", err)
			}
			seenRoadEventIDs = append(seenRoadEventIDs, rec.RoadEvent.SourceEventID)
			countUpsert(res, inserted)
		case feed.RecordWeather:
			if rec.Weather == nil {
				continue
			}
			weatherByNWSID[rec.Weather.NWSID] = rec.Weather
			seenNWSIDs = append(seenNWSIDs, rec.Weather.NWSID)
		case feed.RecordParking:
			if rec.Parking == nil {
				continue
			}
			_, inserted, err := e.Store.UpsertParkingFacility(ctx, q, rec.Parking)
			if err != nil {
				return fmt.Errorf("upsert parking facility: %w", err)
			}
			seenParkingIDs = append(seenParkingIDs, rec.Parking.SourceFacilityID)
			countUpsert(res, inserted)
		}
	}

	if len(weatherByNWSID) > 0 {
		if err := e.upsertWeatherAlerts(ctx, q, weatherByNWSID, res); err != nil {
			return err
		}
	}

	deactivated, err := e.reconcile(ctx, q, a, seenRoadEventIDs, seenNWSIDs, seenParkingIDs)
	if err != nil {
		return err
	}
	res.DeactivatedCount = deactivated

	if err := e.Store.UpsertFeedStatusSuccess(ctx, q, a.Name(), a.URL(), a.State(), len(records), fetchMs, 15); err != nil {
		return fmt.Errorf("upsert feed status: %w", err)
	}

	if err := e.Store.AppendIngestionLog(ctx, q, &model.IngestionLog{
		FeedName:         a.Name(),
		StartedAt:        start,
		DurationMs:       time.Since(start).Milliseconds(),
		InsertedCount:    res.InsertedCount,
		UpdatedCount:     res.UpdatedCount,
		DeactivatedCount: res.DeactivatedCount,
		Success:          true,
	}); err != nil {
		return fmt.Errorf("append ingestion log: %w", err)
	}

	if err := e.Store.InsertUsageEventsBatch(ctx, q, []model.UsageEvent{{
		EventType: "FEED_INGEST",
		Metadata: map[string]any{
			"feed":       a.Name(),
			"record_cnt": len(records),
		},
	}}); err != nil {
		e.Log.Warn().Err(err).Str("feed", a.Name()).Msg("usage event write failed")
	}

	return nil
}

// fetchWithCache implements §4.2 step 2: read the raw cache entry, else
// fetch and write-through. A cache write failure is logged, not fatal.
func (e *Engine) fetchWithCache(ctx context.Context, a feed.Adapter) ([]byte, error) {
	key := cache.FeedRawKey(a.Name())
	if raw, found, err := e.Cache.Get(ctx, key); err == nil && found {
		return raw, nil
	}

	raw, err := a.Fetch(ctx)
	if err != nil {
		return nil, roaderr.Wrap(roaderr.CodeFeedFetchError, fmt.Sprintf("fetch %s", a.Name()), err)
	}

	if err := e.Cache.Set(ctx, key, raw, a.CacheTTL()); err != nil {
		e.Log.Warn().Err(err).Str("feed", a.Name()).Msg("raw feed cache write failed")
	}
	return raw, nil
}

// upsertWeatherAlerts implements §4.2 step 4/5 for NWS: resolve zone
// geometry for alerts lacking it, then upsert every alert.
func (e *Engine) upsertWeatherAlerts(ctx context.Context, q store.Querier, byID map[string]*model.WeatherAlert, res *Result) error {
	for _, alert := range byID {
		if alert.GeometryGeoJSON == "" && len(alert.AffectedZones) > 0 {
			resolved, err := e.Zones.Resolve(ctx, alert.AffectedZones)
			if err != nil {
				return fmt.Errorf("resolve zones for %s: %w", alert.NWSID, err)
			}
			geoms := make([]string, 0, len(resolved))
			for _, g := range resolved {
				geoms = append(geoms, g)
			}
			merged, err := zone.MergeToMultiPolygon(geoms)
			if err != nil {
				e.Log.Warn().Err(err).Str("nws_id", alert.NWSID).Msg("zone merge failed")
			} else {
				alert.GeometryGeoJSON = merged
			}
		}
		_, inserted, err := e.Store.UpsertWeatherAlert(ctx, q, alert)
		if err != nil {
			return fmt.Errorf("upsert weather alert %s: %w", alert.NWSID, err)
		}
		countUpsert(res, inserted)
	}
	return nil
}

func countUpsert(res *Result, inserted bool) {
	if inserted {
		res.InsertedCount++
	} else {
		res.UpdatedCount++
	}
}

// reconcile implements §4.2 step 6, scoped per the record kinds this
// adapter declares it can produce (not per the records actually seen this
// run, since a feed returning zero records is a valid state that must
// still deactivate every row it previously owned).
func (e *Engine) reconcile(ctx context.Context, q store.Querier, a feed.Adapter, roadEventIDs, nwsIDs, parkingIDs []string) (int, error) {
	var total int
	for _, kind := range a.Kinds() {
		switch kind {
		case feed.RecordRoadEvent:
			n, err := e.Store.ReconcileRoadEvents(ctx, q, a.Name(), roadEventIDs)
			if err != nil {
				return total, fmt.Errorf("reconcile road events: %w", err)
			}
			total += n
		case feed.RecordWeather:
			n, err := e.Store.ReconcileWeatherAlerts(ctx, q, nwsIDs)
			if err != nil {
				return total, fmt.Errorf("reconcile weather alerts: %w", err)
			}
			total += n
		case feed.RecordParking:
			n, err := e.Store.ReconcileParkingFacilities(ctx, q, a.Name(), parkingIDs)
			if err != nil {
				return total, fmt.Errorf("reconcile parking facilities: %w", err)
			}
			total += n
		}
	}
	return total, nil
}

// recordFailure persists the §4.2 failure path: feed status down, a failed
// ingestion log row, and a FEED_ERROR usage event. Best-effort: logging
// failures here never mask the original error returned to the caller.
func (e *Engine) recordFailure(ctx context.Context, q store.Querier, a feed.Adapter, cause error, start time.Time) {
	msg := cause.Error()
	if err := e.Store.UpsertFeedStatusFailure(ctx, q, a.Name(), a.URL(), a.State(), model.FeedDown, msg, 15); err != nil {
		e.Log.Warn().Err(err).Str("feed", a.Name()).Msg("feed status failure write failed")
	}
	if err := e.Store.AppendIngestionLog(ctx, q, &model.IngestionLog{
		FeedName:     a.Name(),
		StartedAt:    start,
		DurationMs:   time.Since(start).Milliseconds(),
		Success:      false,
		ErrorMessage: &msg,
	}); err != nil {
		e.Log.Warn().Err(err).Str("feed", a.Name()).Msg("ingestion log write failed")
	}
	if err := e.Store.InsertUsageEventsBatch(ctx, q, []model.UsageEvent{{
		EventType: "FEED_ERROR",
		Metadata:  map[string]any{"feed": a.Name(), "error": msg},
	}}); err != nil {
		e.Log.Warn().Err(err).Str("feed", a.Name()).Msg("usage event write failed")
	}
}
