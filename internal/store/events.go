package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/graaaaa/hytale-companion/internal/event"
)

// ApplyEvent merges one event into the players table and appends it to the
// player_events audit log, atomically.
//
// A join upserts the player record last-write-wins; a leave for an unknown
// player updates nothing but is still logged. Re-applying an identical
// event sets the same fields again, so the merge is idempotent and safe
// under at-least-once delivery from the checkpoint scanner.
func (s *Store) ApplyEvent(ctx context.Context, e event.Event) error {
	if e.Timestamp == "" || e.PlayerID == "" {
		return fmt.Errorf("%w: missing timestamp or player id", ErrInvalidEvent)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	switch e.Kind {
	case event.KindJoin:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO players (uuid, name, online, last_login, world)
			VALUES (?, ?, 1, ?, ?)
			ON CONFLICT(uuid) DO UPDATE SET
				name = excluded.name,
				online = 1,
				last_login = excluded.last_login,
				world = excluded.world`,
			e.PlayerID, e.Name, e.Timestamp, e.World,
		)
	case event.KindLeave:
		// Clears online regardless of prior state; a leave for a player
		// with no record is a no-op here, not an error.
		_, err = tx.ExecContext(ctx, `
			UPDATE players SET online = 0, last_logout = ? WHERE uuid = ?`,
			e.Timestamp, e.PlayerID,
		)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	if err != nil {
		return fmt.Errorf("merge %s: %w", e.Kind, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO player_events (timestamp, uuid, name, event_type, world)
		VALUES (?, ?, ?, ?, ?)`,
		e.Timestamp, e.PlayerID, e.Name, e.Kind, nullIfEmpty(e.World),
	); err != nil {
		return fmt.Errorf("append event log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CountEvents returns the total number of logged player events.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM player_events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// PruneEventsBefore deletes logged events older than cutoff and returns
// the number of rows removed. Event timestamps come from journald in local
// time, so the cutoff is formatted in local time to match.
func (s *Store) PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM player_events WHERE timestamp < ?`,
		cutoff.Format(cutoffFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("prune player events: %w", err)
	}
	return result.RowsAffected()
}

// nullIfEmpty maps the empty string to SQL NULL.
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
