package prune

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	perfDeleted   int64
	eventsDeleted int64
	perfErr       error
	eventsErr     error

	perfCutoff   time.Time
	eventsCutoff time.Time
	compacted    int
}

func (f *fakeStore) PruneSamplesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.perfCutoff = cutoff
	return f.perfDeleted, f.perfErr
}

func (f *fakeStore) PruneEventsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.eventsCutoff = cutoff
	return f.eventsDeleted, f.eventsErr
}

func (f *fakeStore) Compact(context.Context) error {
	f.compacted++
	return nil
}

func TestTick_CutoffsFromRetention(t *testing.T) {
	fixed := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	st := &fakeStore{}
	p := New(st, 24*time.Hour, 7*24*time.Hour, WithNow(func() time.Time { return fixed }))

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if want := fixed.Add(-24 * time.Hour); !st.perfCutoff.Equal(want) {
		t.Errorf("perf cutoff = %v, want %v", st.perfCutoff, want)
	}
	if want := fixed.Add(-7 * 24 * time.Hour); !st.eventsCutoff.Equal(want) {
		t.Errorf("events cutoff = %v, want %v", st.eventsCutoff, want)
	}
}

func TestTick_CompactionSkippedWhenNothingDeleted(t *testing.T) {
	st := &fakeStore{}
	p := New(st, 24*time.Hour, 7*24*time.Hour)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if st.compacted != 0 {
		t.Errorf("compacted %d times, want 0", st.compacted)
	}
}

func TestTick_CompactionRunsAfterDeletes(t *testing.T) {
	st := &fakeStore{perfDeleted: 12}
	p := New(st, 24*time.Hour, 7*24*time.Hour)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if st.compacted != 1 {
		t.Errorf("compacted %d times, want 1", st.compacted)
	}
}

func TestTick_BothDeletesRunDespiteError(t *testing.T) {
	st := &fakeStore{perfErr: errors.New("locked")}
	p := New(st, 24*time.Hour, 7*24*time.Hour)

	err := p.Tick(context.Background())
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if st.eventsCutoff.IsZero() {
		t.Error("events prune should still run after a samples prune error")
	}
}
