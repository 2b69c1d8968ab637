// Package reconcile merges journal events into durable player state.
//
// The reconciler pulls a window of log lines starting at the stored
// checkpoint, merges each extracted event, then advances the checkpoint to
// the last event's source timestamp. Because every merge is idempotent,
// a crash between merging and advancing only causes benign re-processing
// on the next tick.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/graaaaa/hytale-companion/internal/event"
	"github.com/graaaaa/hytale-companion/internal/extract"
	"github.com/graaaaa/hytale-companion/internal/journal"
	"github.com/graaaaa/hytale-companion/internal/store"
)

// sinceFormat is the absolute-time form handed to journalctl --since.
// journald interprets it in local time, matching its short-iso output.
const sinceFormat = "2006-01-02 15:04:05"

// EventStore defines store operations needed by the Reconciler.
type EventStore interface {
	Checkpoint(ctx context.Context) (string, error)
	SetCheckpoint(ctx context.Context, ts string) error
	ApplyEvent(ctx context.Context, e event.Event) error
	SyncPlayer(ctx context.Context, p store.Player) error
}

// Reconciler drives incremental event ingestion.
type Reconciler struct {
	journal  journal.Querier
	store    EventStore
	logger   *slog.Logger
	lookback time.Duration
	now      func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger for the Reconciler.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = logger }
}

// WithNow sets the time source (for testing).
func WithNow(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// New creates a Reconciler. lookback bounds the scan window on the first
// ever tick, before any checkpoint exists.
func New(q journal.Querier, st EventStore, lookback time.Duration, opts ...Option) *Reconciler {
	r := &Reconciler{
		journal:  q,
		store:    st,
		logger:   slog.Default(),
		lookback: lookback,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tick performs one incremental scan-and-merge pass. A failed journal
// query skips the tick; a storage failure abandons it, leaving the
// checkpoint where it was so the next tick retries the same window.
func (r *Reconciler) Tick(ctx context.Context) error {
	since, err := r.store.Checkpoint(ctx)
	if err != nil {
		return fmt.Errorf("read checkpoint: %w", err)
	}
	if since == "" {
		since = r.now().Add(-r.lookback).Format(sinceFormat)
	}

	lines, err := r.journal.Since(ctx, since)
	if err != nil {
		var qe *journal.QueryError
		if errors.As(err, &qe) {
			r.logger.Warn("journal query failed, skipping tick", "error", err)
			return nil
		}
		return err
	}

	events := extract.Events(lines)
	if len(events) == 0 {
		// No spurious checkpoint advancement on empty ticks.
		return nil
	}

	for _, e := range events {
		if err := r.store.ApplyEvent(ctx, e); err != nil {
			return fmt.Errorf("apply %s for %s: %w", e.Kind, e.PlayerID, err)
		}
	}

	// Advance to the last event in extraction order. Events are never
	// re-sorted by timestamp; journald emission order is the authority.
	last := events[len(events)-1].Timestamp
	if err := r.store.SetCheckpoint(ctx, last); err != nil {
		return fmt.Errorf("advance checkpoint: %w", err)
	}

	r.logger.Info("merged player events", "count", len(events), "checkpoint", last)
	return nil
}

// Backfill performs the one-time wide-window startup scan. The window's
// events are folded into one record per player in memory and written with
// COALESCE semantics, so re-running after a partial write never blanks a
// field that an earlier run populated.
//
// The checkpoint is left untouched: the first steady-state tick rescans
// the tail of the window and re-merging is idempotent.
func (r *Reconciler) Backfill(ctx context.Context, window time.Duration) error {
	since := r.now().Add(-window).Format(sinceFormat)

	lines, err := r.journal.Since(ctx, since)
	if err != nil {
		var qe *journal.QueryError
		if errors.As(err, &qe) {
			r.logger.Warn("backfill query failed, continuing without initial sync", "error", err)
			return nil
		}
		return err
	}

	events := extract.Events(lines)

	players := make(map[string]*store.Player)
	var order []string
	for _, e := range events {
		p := players[e.PlayerID]
		if p == nil {
			p = &store.Player{UUID: e.PlayerID, Name: e.Name}
			players[e.PlayerID] = p
			order = append(order, e.PlayerID)
		}
		switch e.Kind {
		case event.KindJoin:
			ts, world := e.Timestamp, e.World
			p.Online = true
			p.Name = e.Name
			p.LastLogin = &ts
			p.World = &world
		case event.KindLeave:
			ts := e.Timestamp
			p.Online = false
			p.LastLogout = &ts
		}
	}

	for _, id := range order {
		if err := r.store.SyncPlayer(ctx, *players[id]); err != nil {
			return fmt.Errorf("sync player %s: %w", id, err)
		}
	}

	r.logger.Info("initial player sync complete", "players", len(players), "events", len(events))
	return nil
}
