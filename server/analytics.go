package main

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Stat event kinds
const (
	EventJoin  = "join"
	EventLeave = "leave"
	EventKill  = "kill"
	EventDeath = "death"
)

// StatEvent is a single trackable gameplay event
type StatEvent struct {
	Kind       string
	PlayerID   string
	PlayerName string
	At         time.Time
}

// Analytics journals stat events with batched background writes, keeping
// the database entirely off the game loop's hot path.
type Analytics struct {
	db     *DB
	events chan StatEvent
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewAnalytics creates and starts the background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan StatEvent, 1024),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence. Non-blocking, and a nil
// receiver is a no-op so tests can run the game without a journal.
func (a *Analytics) Track(ev StatEvent) {
	if a == nil {
		return
	}
	select {
	case a.events <- ev:
	default:
		// full buffer loses the event, never the tick
	}
}

// Stop flushes what remains and shuts the writer down
func (a *Analytics) Stop() {
	if a == nil {
		return
	}
	close(a.stop)
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]StatEvent, 0, 64)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev := <-a.events:
			batch = append(batch, ev)
			if len(batch) >= 50 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			// drain whatever Track managed to enqueue before Stop
			close(a.events)
			for ev := range a.events {
				batch = append(batch, ev)
			}
			if len(batch) > 0 {
				a.flush(batch)
			}
			return
		}
	}
}

// flush writes a batch through the journal store
func (a *Analytics) flush(events []StatEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	if err := a.db.ApplyEvents(events); err != nil {
		log.Error().Err(err).Int("batch", len(events)).Msg("stats flush failed")
	}
}
