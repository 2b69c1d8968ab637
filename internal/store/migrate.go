package store

import (
	"context"
	"fmt"
	"strings"
)

// migrate runs database migrations. Safe to run on every start.
func (s *Store) migrate(ctx context.Context) error {
	if err := s.createPlayersTable(ctx); err != nil {
		return err
	}
	if err := s.createPerformanceTable(ctx); err != nil {
		return err
	}
	if err := s.createPlayerEventsTable(ctx); err != nil {
		return err
	}
	if err := s.createMetadataTable(ctx); err != nil {
		return err
	}
	return nil
}

func (s *Store) createPlayersTable(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS players (
		uuid                   TEXT PRIMARY KEY,
		name                   TEXT NOT NULL,
		online                 INTEGER DEFAULT 0,
		last_login             TEXT,
		last_logout            TEXT,
		world                  TEXT,
		total_playtime_seconds INTEGER DEFAULT 0
	);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create players table: %w", err)
	}
	return nil
}

func (s *Store) createPerformanceTable(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS performance (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp      TEXT NOT NULL,
		tps            INTEGER,
		cpu_percent    REAL,
		ram_mb         REAL,
		ram_percent    REAL,
		view_radius    INTEGER,
		players_online INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_perf_ts ON performance(timestamp);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create performance table: %w", err)
	}

	// Databases created before view_radius existed need the column added.
	if _, err := s.db.ExecContext(ctx, `ALTER TABLE performance ADD COLUMN view_radius INTEGER`); err != nil {
		if !strings.Contains(err.Error(), "duplicate column name") {
			return fmt.Errorf("add view_radius column: %w", err)
		}
	}
	return nil
}

func (s *Store) createPlayerEventsTable(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS player_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp  TEXT NOT NULL,
		uuid       TEXT NOT NULL,
		name       TEXT NOT NULL,
		event_type TEXT NOT NULL,
		world      TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_events_ts ON player_events(timestamp);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create player_events table: %w", err)
	}
	return nil
}

func (s *Store) createMetadataTable(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS metadata (
		key   TEXT PRIMARY KEY,
		value TEXT
	);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create metadata table: %w", err)
	}
	return nil
}
