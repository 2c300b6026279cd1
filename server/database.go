package main

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DB is the match-stats journal: a scoreboard per player plus an append-only
// event log. The default DSN is ":memory:", so nothing outlives the process
// unless an operator points it at a file.
type DB struct {
	conn *sql.DB
}

// ScoreRow is one player's accumulated scoreboard record
type ScoreRow struct {
	PlayerID string
	Name     string
	Kills    int
	Deaths   int
	LastSeen time.Time
}

// LeaderboardEntry is one row served by /leaderboard
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Kills  int    `json:"kills"`
	Deaths int    `json:"deaths"`
}

// OpenDB opens (or creates) the stats database. The pool is pinned to a
// single connection: with an in-memory DSN every pooled connection would
// otherwise get its own empty database.
func OpenDB(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate applies the idempotent schema
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scoreboard (
		player_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		joined_at DATETIME NOT NULL,
		last_seen DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		player_id TEXT NOT NULL,
		player_name TEXT NOT NULL DEFAULT '',
		at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_player ON events(player_id);
	CREATE INDEX IF NOT EXISTS idx_scoreboard_kills ON scoreboard(kills);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// ApplyEvents journals a batch in one transaction, updating the scoreboard
// as it goes. Called only from the analytics writer goroutine.
func (db *DB) ApplyEvents(events []StatEvent) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ev := range events {
		if _, err := tx.Exec(
			"INSERT INTO events (kind, player_id, player_name, at) VALUES (?, ?, ?, ?)",
			ev.Kind, ev.PlayerID, ev.PlayerName, ev.At,
		); err != nil {
			return err
		}

		switch ev.Kind {
		case EventJoin:
			if _, err := tx.Exec(`
				INSERT INTO scoreboard (player_id, name, joined_at, last_seen)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(player_id) DO UPDATE SET name = excluded.name, last_seen = excluded.last_seen`,
				ev.PlayerID, ev.PlayerName, ev.At, ev.At,
			); err != nil {
				return err
			}
		case EventLeave:
			if _, err := tx.Exec(
				"UPDATE scoreboard SET last_seen = ? WHERE player_id = ?",
				ev.At, ev.PlayerID,
			); err != nil {
				return err
			}
		case EventKill:
			if _, err := tx.Exec(
				"UPDATE scoreboard SET kills = kills + 1, last_seen = ? WHERE player_id = ?",
				ev.At, ev.PlayerID,
			); err != nil {
				return err
			}
		case EventDeath:
			if _, err := tx.Exec(
				"UPDATE scoreboard SET deaths = deaths + 1, last_seen = ? WHERE player_id = ?",
				ev.At, ev.PlayerID,
			); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Leaderboard returns top players sorted by the given field
func (db *DB) Leaderboard(orderBy string, limit int) ([]LeaderboardEntry, error) {
	// orderBy is client input and never reaches the query text directly
	validCols := map[string]string{
		"kills":  "kills",
		"deaths": "deaths",
		"kd":     "CASE WHEN deaths > 0 THEN CAST(kills AS REAL)/deaths ELSE kills END",
	}
	col, ok := validCols[orderBy]
	if !ok {
		col = "kills"
	}

	query := `SELECT name, kills, deaths FROM scoreboard
		ORDER BY ` + col + ` DESC, name ASC LIMIT ?`

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Name, &e.Kills, &e.Deaths); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// Score returns one player's scoreboard row, or nil if absent
func (db *DB) Score(playerID string) (*ScoreRow, error) {
	row := db.conn.QueryRow(
		"SELECT player_id, name, kills, deaths, last_seen FROM scoreboard WHERE player_id = ?",
		playerID,
	)
	s := &ScoreRow{}
	err := row.Scan(&s.PlayerID, &s.Name, &s.Kills, &s.Deaths, &s.LastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// EventCount reports how many events have been journaled
func (db *DB) EventCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM events").Scan(&count)
	return count, err
}
