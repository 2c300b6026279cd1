package main

import (
	"testing"
	"time"
)

func TestAnalyticsFlushOnStop(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)

	a.Track(StatEvent{Kind: EventJoin, PlayerID: "p1", PlayerName: "Alice", At: time.Now()})
	a.Track(StatEvent{Kind: EventKill, PlayerID: "p1", PlayerName: "Alice", At: time.Now()})
	a.Track(StatEvent{Kind: EventLeave, PlayerID: "p1", PlayerName: "Alice", At: time.Now()})

	// Stop drains the queue, so everything lands before Wait returns
	a.Stop()

	n, err := db.EventCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3 journaled events after stop, got %d", n)
	}

	row, err := db.Score("p1")
	if err != nil {
		t.Fatal(err)
	}
	if row == nil || row.Kills != 1 {
		t.Errorf("unexpected scoreboard row: %+v", row)
	}
}

func TestAnalyticsNilSafety(t *testing.T) {
	var a *Analytics
	a.Track(StatEvent{Kind: EventJoin, PlayerID: "x"}) // must not panic
	a.Stop()
}
