// Package usage provides a non-blocking analytics event sink, modeled on
// the teacher's internal/hitevents.Publisher: a buffered channel plus one
// background goroutine, with the Kafka producer swapped for a batched
// pgx insert since usage events land in the same spatial store as
// everything else rather than a separate stream.
package usage

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ciprian87/roadpulse/internal/model"
	"github.com/ciprian87/roadpulse/internal/store"
)

const defaultFlushInterval = 5 * time.Second
const defaultBatchSize = 100

// Writer batches usage events and flushes them to the store on a timer or
// when the batch fills, whichever comes first.
type Writer struct {
	log   zerolog.Logger
	store *store.Store

	flushInterval time.Duration
	batchSize     int

	events  chan model.UsageEvent
	stopCh  chan struct{}
	stopped chan struct{}
}

func NewWriter(st *store.Store, queueSize int, log zerolog.Logger) *Writer {
	if queueSize <= 0 {
		queueSize = 1024
	}
	w := &Writer{
		log:           log,
		store:         st,
		flushInterval: defaultFlushInterval,
		batchSize:     defaultBatchSize,
		events:        make(chan model.UsageEvent, queueSize),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go w.run()
	return w
}

// Publish enqueues an event, dropping it silently if the buffer is full
// rather than blocking the request path it's called from.
func (w *Writer) Publish(ev model.UsageEvent) {
	select {
	case w.events <- ev:
	default:
	}
}

func (w *Writer) run() {
	defer close(w.stopped)

	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	buf := make([]model.UsageEvent, 0, w.batchSize)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		if err := w.store.InsertUsageEventsBatch(context.Background(), w.store.Pool, buf); err != nil {
			w.log.Warn().Err(err).Int("count", len(buf)).Msg("usage event flush failed")
		}
		buf = buf[:0]
	}

	for {
		select {
		case ev, ok := <-w.events:
			if !ok {
				flush()
				return
			}
			buf = append(buf, ev)
			if len(buf) >= w.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-w.stopCh:
			for drained := false; !drained; {
				select {
				case ev := <-w.events:
					buf = append(buf, ev)
				default:
					drained = true
				}
			}
			flush()
			return
		}
	}
}

// Close drains any buffered events with a final flush and stops the
// background goroutine.
func (w *Writer) Close() {
	close(w.stopCh)
	<-w.stopped
}
