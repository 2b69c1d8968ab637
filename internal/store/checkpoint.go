package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// metadataKeyCheckpoint is the singleton ingestion cursor: the source
// timestamp of the last merged event.
const metadataKeyCheckpoint = "last_event_ts"

// Checkpoint returns the timestamp of the last merged event, or "" if no
// event has been merged yet.
func (s *Store) Checkpoint(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE key = ?`, metadataKeyCheckpoint,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read checkpoint: %w", err)
	}
	return value, nil
}

// SetCheckpoint records the timestamp of the last merged event.
func (s *Store) SetCheckpoint(ctx context.Context, ts string) error {
	if ts == "" {
		return fmt.Errorf("checkpoint timestamp is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metadataKeyCheckpoint, ts,
	)
	if err != nil {
		return fmt.Errorf("set checkpoint: %w", err)
	}
	return nil
}
