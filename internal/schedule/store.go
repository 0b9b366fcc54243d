// internal/schedule/store.go
package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"hicompanion/internal/gateway"
)

const (
	queryTimeout = 30 * time.Second

	createTableStmt = `
		CREATE TABLE IF NOT EXISTS events (
			event_id    TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			start_time  INTEGER NOT NULL,
			end_time    INTEGER NOT NULL,
			event_type  TEXT NOT NULL DEFAULT '',
			points      INTEGER NOT NULL DEFAULT 0,
			is_async    INTEGER NOT NULL DEFAULT 0,
			cached_at   TEXT NOT NULL
		)`
)

// Store is the on-device cache of the event schedule, so the schedule stays
// browsable without connectivity. One row per event; every refresh replaces
// the whole table, mirroring the wholesale-replace semantics of the catalog.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening schedule database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging schedule database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTableStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating events table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceAll swaps the cached schedule for the given events in a single
// transaction.
func (s *Store) ReplaceAll(ctx context.Context, events []gateway.Event) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schedule replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("clearing cached events: %w", err)
	}

	const insertStmt = `
		INSERT INTO events (
			event_id, name, description, start_time, end_time, event_type, points, is_async, cached_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	cachedAt := time.Now().UTC().Format(time.RFC3339)
	for _, ev := range events {
		_, err := tx.ExecContext(ctx, insertStmt,
			ev.EventID, ev.Name, ev.Description, ev.StartTime, ev.EndTime,
			ev.EventType, ev.Points, boolToInt(ev.IsAsync), cachedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting event %s: %w", ev.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schedule replace: %w", err)
	}
	return nil
}

// List returns all cached events ordered by start time.
func (s *Store) List(ctx context.Context) ([]gateway.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const stmt = `
		SELECT event_id, name, description, start_time, end_time, event_type, points, is_async
		FROM events
		ORDER BY start_time, name`

	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("querying cached events: %w", err)
	}
	defer rows.Close()

	var events []gateway.Event
	for rows.Next() {
		var ev gateway.Event
		var isAsync int
		err := rows.Scan(&ev.EventID, &ev.Name, &ev.Description, &ev.StartTime,
			&ev.EndTime, &ev.EventType, &ev.Points, &isAsync)
		if err != nil {
			return nil, fmt.Errorf("scanning cached event: %w", err)
		}
		ev.IsAsync = isAsync != 0
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cached events: %w", err)
	}
	return events, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
