package usage

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ciprian87/roadpulse/internal/model"
)

func TestPublishDropsWhenQueueFull(t *testing.T) {
	w := &Writer{
		log:           zerolog.Nop(),
		flushInterval: time.Hour,
		batchSize:     defaultBatchSize,
		events:        make(chan model.UsageEvent, 1),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	// No background goroutine running, so the one slot fills immediately
	// and the second Publish must drop rather than block.
	w.Publish(model.UsageEvent{EventType: "a"})
	done := make(chan struct{})
	go func() {
		w.Publish(model.UsageEvent{EventType: "b"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue instead of dropping")
	}
}

func TestCloseFlushesAndStops(t *testing.T) {
	w := NewWriter(nil, 8, zerolog.Nop())
	done := make(chan struct{})
	go func() {
		w.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
}
