package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Sample is one performance reading. Nil fields mean the value could not
// be collected on that tick, which the schema keeps distinct from zero.
type Sample struct {
	Timestamp     time.Time
	TPS           *int
	CPUPercent    *float64
	RAMMB         *float64
	RAMPercent    *float64
	ViewRadius    *int
	PlayersOnline int
}

// InsertSample appends one performance sample. Samples are immutable;
// nothing ever updates them in place.
func (s *Store) InsertSample(ctx context.Context, smp Sample) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO performance (timestamp, tps, cpu_percent, ram_mb, ram_percent, view_radius, players_online)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		smp.Timestamp.UTC().Format(TimeFormat),
		smp.TPS, smp.CPUPercent, smp.RAMMB, smp.RAMPercent, smp.ViewRadius,
		smp.PlayersOnline,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// LatestSample returns the most recent performance sample, or nil if none
// exists.
func (s *Store) LatestSample(ctx context.Context) (*Sample, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT timestamp, tps, cpu_percent, ram_mb, ram_percent, view_radius, players_online
		FROM performance ORDER BY id DESC LIMIT 1`)

	var (
		smp Sample
		ts  string
	)
	err := row.Scan(&ts, &smp.TPS, &smp.CPUPercent, &smp.RAMMB, &smp.RAMPercent, &smp.ViewRadius, &smp.PlayersOnline)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest sample: %w", err)
	}

	t, err := time.Parse(TimeFormat, ts)
	if err != nil {
		return nil, fmt.Errorf("parse sample timestamp %q: %w", ts, err)
	}
	smp.Timestamp = t
	return &smp, nil
}

// CountSamples returns the total number of performance samples.
func (s *Store) CountSamples(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM performance`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return count, nil
}

// PruneSamplesBefore deletes samples older than cutoff and returns the
// number of rows removed.
func (s *Store) PruneSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM performance WHERE timestamp < ?`,
		cutoff.UTC().Format(cutoffFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("prune samples: %w", err)
	}
	return result.RowsAffected()
}
