// Package sample builds performance samples from the journal tail and
// /proc.
//
// Unlike the reconciler, the sampler deliberately rescans overlapping log
// data every tick: it wants the current TPS and view radius, not
// historical deltas, so a bounded tail of recent lines is enough.
package sample

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/graaaaa/hytale-companion/internal/extract"
	"github.com/graaaaa/hytale-companion/internal/journal"
	"github.com/graaaaa/hytale-companion/internal/procwatch"
	"github.com/graaaaa/hytale-companion/internal/store"
)

// DefaultTailLines is how many recent journal lines the metric scan reads.
const DefaultTailLines = 200

// SampleStore defines store operations needed by the Sampler.
type SampleStore interface {
	CountOnline(ctx context.Context) (int, error)
	InsertSample(ctx context.Context, smp store.Sample) error
}

// Sampler composes one performance sample per tick.
type Sampler struct {
	journal   journal.Querier
	resolver  procwatch.Resolver
	prober    procwatch.Prober
	store     SampleStore
	logger    *slog.Logger
	tailLines int
	now       func() time.Time
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithLogger sets the logger for the Sampler.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sampler) { s.logger = logger }
}

// WithTailLines sets how many recent journal lines the metric scan reads.
func WithTailLines(n int) Option {
	return func(s *Sampler) { s.tailLines = n }
}

// WithNow sets the time source (for testing).
func WithNow(now func() time.Time) Option {
	return func(s *Sampler) { s.now = now }
}

// New creates a Sampler.
func New(q journal.Querier, r procwatch.Resolver, p procwatch.Prober, st SampleStore, opts ...Option) *Sampler {
	s := &Sampler{
		journal:   q,
		resolver:  r,
		prober:    p,
		store:     st,
		logger:    slog.Default(),
		tailLines: DefaultTailLines,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tick collects and inserts one performance sample. A failed log scan or
// resource probe nulls the affected fields rather than failing the tick;
// only a storage failure is returned.
func (s *Sampler) Tick(ctx context.Context) error {
	smp := store.Sample{Timestamp: s.now().UTC()}

	lines, err := s.journal.Tail(ctx, s.tailLines)
	if err != nil {
		s.logger.Warn("metric log scan failed", "error", err)
	} else {
		m := extract.LatestMetrics(lines)
		smp.TPS = m.TPS
		smp.ViewRadius = m.ViewRadius
	}

	if pid, ok := s.resolver.Resolve(ctx); ok {
		usage, err := s.prober.Sample(pid)
		if err != nil {
			s.logger.Warn("resource probe failed", "pid", pid, "error", err)
		} else {
			cpu, ramMB, ramPct := usage.CPUPercent, usage.RAMMB, usage.RAMPercent
			smp.CPUPercent = &cpu
			smp.RAMMB = &ramMB
			smp.RAMPercent = &ramPct
		}
	}

	online, err := s.store.CountOnline(ctx)
	if err != nil {
		return fmt.Errorf("count online players: %w", err)
	}
	smp.PlayersOnline = online

	if err := s.store.InsertSample(ctx, smp); err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}
