package store

import (
	"context"
	"fmt"
)

// Compact asks SQLite to fold the WAL back into the main database file and
// truncate it. Best effort; callers run it only after deleting rows.
func (s *Store) Compact(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}
