// Package prune deletes aged-out history rows to keep the database small.
package prune

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// PruneStore defines store operations needed by the Pruner.
type PruneStore interface {
	PruneSamplesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Compact(ctx context.Context) error
}

// Pruner removes performance samples and event log rows past their
// retention horizons.
type Pruner struct {
	store          PruneStore
	perfRetention  time.Duration
	eventRetention time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// Option configures a Pruner.
type Option func(*Pruner)

// WithLogger sets the logger for the Pruner.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pruner) { p.logger = logger }
}

// WithNow sets the time source (for testing).
func WithNow(now func() time.Time) Option {
	return func(p *Pruner) { p.now = now }
}

// New creates a Pruner with the given retention horizons.
func New(st PruneStore, perfRetention, eventRetention time.Duration, opts ...Option) *Pruner {
	p := &Pruner{
		store:          st,
		perfRetention:  perfRetention,
		eventRetention: eventRetention,
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tick runs both bounded deletes independently, then hints compaction if
// anything was removed. The compaction hint is best effort and skipped
// entirely when nothing was deleted.
func (p *Pruner) Tick(ctx context.Context) error {
	now := p.now()

	perfDeleted, perfErr := p.store.PruneSamplesBefore(ctx, now.Add(-p.perfRetention))
	eventsDeleted, eventsErr := p.store.PruneEventsBefore(ctx, now.Add(-p.eventRetention))

	if perfDeleted > 0 || eventsDeleted > 0 {
		p.logger.Info("cleanup removed aged rows",
			"performance", perfDeleted,
			"events", eventsDeleted,
		)
		if err := p.store.Compact(ctx); err != nil {
			p.logger.Warn("compaction hint failed", "error", err)
		}
	}

	return errors.Join(perfErr, eventsErr)
}
