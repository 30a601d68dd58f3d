// Package scheduler runs the durable repeating ingestion job: one tick
// drives every registered feed adapter sequentially, then sweeps expired
// community reports. The lifecycle (Start/Stop, an internal cancel func, a
// WaitGroup-tracked goroutine) follows the same shape as a long-lived
// background consumer runner, swapping the consumer group for a
// time.Ticker.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ciprian87/roadpulse/internal/feed"
	"github.com/ciprian87/roadpulse/internal/ingest"
	"github.com/ciprian87/roadpulse/internal/store"
)

// Status is the observable snapshot exposed on the admin surface.
type Status struct {
	IsPaused        bool
	NextRunAt       *time.Time
	LastRunAt       *time.Time
	IntervalMinutes int
	ActiveCount     int
	WaitingCount    int
}

// Scheduler owns the Idle/Running/Paused state machine driving the
// ingestion adapters. At most one repeating schedule exists at a time;
// SetInterval replaces it rather than layering another ticker on top.
type Scheduler struct {
	log zerolog.Logger

	engine   *ingest.Engine
	store    *store.Store
	adapters []feed.Adapter

	mu              sync.Mutex
	paused          bool
	intervalMinutes int
	ticker          *time.Ticker
	lastRunAt       *time.Time
	nextRunAt       *time.Time

	running   atomic.Bool
	triggerCh chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(engine *ingest.Engine, st *store.Store, adapters []feed.Adapter, intervalMinutes int, log zerolog.Logger) *Scheduler {
	if intervalMinutes <= 0 {
		intervalMinutes = 15
	}
	return &Scheduler{
		log:             log,
		engine:          engine,
		store:           st,
		adapters:        adapters,
		intervalMinutes: intervalMinutes,
		triggerCh:       make(chan struct{}, 1),
	}
}

// Start installs the repeating schedule and begins the background loop.
// Calling Start twice on the same Scheduler is not supported.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.mu.Lock()
	s.ticker = time.NewTicker(time.Duration(s.intervalMinutes) * time.Minute)
	next := time.Now().Add(time.Duration(s.intervalMinutes) * time.Minute)
	s.nextRunAt = &next
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)
	s.log.Info().Int("interval_minutes", s.intervalMinutes).Msg("scheduler started")
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.mu.Lock()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.mu.Unlock()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	s.mu.Lock()
	tickC := s.ticker.C
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return

		case <-tickC:
			s.mu.Lock()
			paused := s.paused
			interval := s.intervalMinutes
			s.mu.Unlock()
			if paused {
				continue
			}
			s.runOnce(ctx, "scheduled")
			s.mu.Lock()
			next := time.Now().Add(time.Duration(interval) * time.Minute)
			s.nextRunAt = &next
			s.mu.Unlock()

		case <-s.triggerCh:
			// A trigger arriving while runOnce is already executing simply
			// sits in this buffered channel until the select loop comes
			// back around, which is exactly the "waits in queue, runs once
			// the current one finishes" rule.
			s.runOnce(ctx, "manual")
		}
	}
}

// runOnce drives every adapter sequentially (never in parallel, to avoid
// exhausting the store's connection pool) plus the report-expiry sweep,
// recording one feed's failure without aborting the rest of the batch.
func (s *Scheduler) runOnce(ctx context.Context, trigger string) []ingest.Result {
	s.running.Store(true)
	defer s.running.Store(false)

	start := time.Now()
	results := make([]ingest.Result, 0, len(s.adapters))
	for _, a := range s.adapters {
		res := s.engine.Run(ctx, a)
		results = append(results, res)
		if !res.Success {
			s.log.Warn().Str("feed", a.Name()).Err(res.Err).Msg("scheduled ingestion run failed")
		}
	}

	if n, err := s.store.ExpireOldReports(ctx, s.store.Pool); err != nil {
		s.log.Warn().Err(err).Msg("expire old reports failed")
	} else if n > 0 {
		s.log.Info().Int("expired", n).Msg("expired stale community reports")
	}

	now := time.Now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	s.log.Info().
		Str("trigger", trigger).
		Dur("duration", time.Since(start)).
		Int("feeds", len(results)).
		Msg("scheduler run complete")
	return results
}

// TriggerNow enqueues an immediate run. Redundant triggers while one is
// already queued are dropped, not stacked.
func (s *Scheduler) TriggerNow() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

func (s *Scheduler) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

// SetInterval replaces the repeating schedule. A reset made mid-run only
// affects the ticker's next future fire, never the run already underway.
func (s *Scheduler) SetInterval(minutes int) {
	if minutes <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intervalMinutes = minutes
	if s.ticker != nil {
		s.ticker.Reset(time.Duration(minutes) * time.Minute)
		next := time.Now().Add(time.Duration(minutes) * time.Minute)
		s.nextRunAt = &next
	}
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := 0
	if s.running.Load() {
		active = 1
	}
	return Status{
		IsPaused:        s.paused,
		NextRunAt:       s.nextRunAt,
		LastRunAt:       s.lastRunAt,
		IntervalMinutes: s.intervalMinutes,
		ActiveCount:     active,
		WaitingCount:    len(s.triggerCh),
	}
}
