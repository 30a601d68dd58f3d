package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestScheduler() *Scheduler {
	return New(nil, nil, nil, 15, zerolog.Nop())
}

func TestNewDefaultsInvalidInterval(t *testing.T) {
	s := New(nil, nil, nil, 0, zerolog.Nop())
	if s.intervalMinutes != 15 {
		t.Fatalf("intervalMinutes = %d, want 15", s.intervalMinutes)
	}
}

func TestPauseResume(t *testing.T) {
	s := newTestScheduler()
	s.Pause()
	if !s.Status().IsPaused {
		t.Fatal("expected IsPaused true after Pause")
	}
	s.Resume()
	if s.Status().IsPaused {
		t.Fatal("expected IsPaused false after Resume")
	}
}

func TestTriggerNowCoalesces(t *testing.T) {
	s := newTestScheduler()
	s.TriggerNow()
	s.TriggerNow()
	s.TriggerNow()
	if got := s.Status().WaitingCount; got != 1 {
		t.Fatalf("WaitingCount = %d, want 1 (redundant triggers must not stack)", got)
	}
}

func TestSetIntervalIgnoresNonPositive(t *testing.T) {
	s := newTestScheduler()
	s.SetInterval(30)
	if got := s.Status().IntervalMinutes; got != 30 {
		t.Fatalf("IntervalMinutes = %d, want 30", got)
	}
	s.SetInterval(0)
	s.SetInterval(-5)
	if got := s.Status().IntervalMinutes; got != 30 {
		t.Fatalf("IntervalMinutes = %d after invalid SetInterval calls, want unchanged 30", got)
	}
}

func TestSetIntervalBeforeStartDoesNotPanic(t *testing.T) {
	s := newTestScheduler()
	// No ticker exists yet since Start hasn't run; SetInterval must still
	// be safe to call and must update the recorded interval.
	s.SetInterval(5)
	if got := s.Status().IntervalMinutes; got != 5 {
		t.Fatalf("IntervalMinutes = %d, want 5", got)
	}
	if s.Status().NextRunAt != nil {
		t.Fatal("NextRunAt should remain nil until Start installs a ticker")
	}
}

func TestStatusActiveCountReflectsRunning(t *testing.T) {
	s := newTestScheduler()
	if s.Status().ActiveCount != 0 {
		t.Fatal("ActiveCount should be 0 before any run")
	}
	s.running.Store(true)
	if s.Status().ActiveCount != 1 {
		t.Fatal("ActiveCount should be 1 while a run is in flight")
	}
	s.running.Store(false)
}

func TestStartStopLifecycle(t *testing.T) {
	s := New(nil, nil, nil, 1, zerolog.Nop())
	s.Pause() // keep the ticker from ever calling into the nil engine/store
	s.Start(context.Background())
	time.Sleep(5 * time.Millisecond)
	s.Stop()
}
