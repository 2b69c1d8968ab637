package store

import (
	"context"
	"testing"
	"time"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestInsertSample_NullsAreDistinctFromZero(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Probe failed this tick: resource fields are absent, not zero.
	smp := Sample{
		Timestamp:     time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		TPS:           intPtr(20),
		PlayersOnline: 3,
	}
	if err := s.InsertSample(ctx, smp); err != nil {
		t.Fatalf("InsertSample: %v", err)
	}

	got, err := s.LatestSample(ctx)
	if err != nil {
		t.Fatalf("LatestSample: %v", err)
	}
	if got == nil {
		t.Fatal("no sample read back")
	}
	if got.TPS == nil || *got.TPS != 20 {
		t.Errorf("tps = %v, want 20", got.TPS)
	}
	if got.CPUPercent != nil {
		t.Errorf("cpu_percent = %v, want nil", *got.CPUPercent)
	}
	if got.RAMMB != nil || got.RAMPercent != nil || got.ViewRadius != nil {
		t.Error("absent fields should read back as nil")
	}
	if got.PlayersOnline != 3 {
		t.Errorf("players_online = %d, want 3", got.PlayersOnline)
	}
	if !got.Timestamp.Equal(smp.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, smp.Timestamp)
	}
}

func TestInsertSample_FullReading(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	smp := Sample{
		Timestamp:     time.Now().UTC(),
		TPS:           intPtr(20),
		CPUPercent:    floatPtr(42.5),
		RAMMB:         floatPtr(2048.0),
		RAMPercent:    floatPtr(25.0),
		ViewRadius:    intPtr(12),
		PlayersOnline: 1,
	}
	if err := s.InsertSample(ctx, smp); err != nil {
		t.Fatalf("InsertSample: %v", err)
	}

	got, err := s.LatestSample(ctx)
	if err != nil {
		t.Fatalf("LatestSample: %v", err)
	}
	if got.CPUPercent == nil || *got.CPUPercent != 42.5 {
		t.Errorf("cpu_percent = %v, want 42.5", got.CPUPercent)
	}
	if got.ViewRadius == nil || *got.ViewRadius != 12 {
		t.Errorf("view_radius = %v, want 12", got.ViewRadius)
	}
}

func TestPruneSamplesBefore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	old := Sample{Timestamp: now.Add(-48 * time.Hour)}
	young := Sample{Timestamp: now.Add(-1 * time.Hour)}
	for _, smp := range []Sample{old, young} {
		if err := s.InsertSample(ctx, smp); err != nil {
			t.Fatalf("InsertSample: %v", err)
		}
	}

	deleted, err := s.PruneSamplesBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneSamplesBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	count, err := s.CountSamples(ctx)
	if err != nil {
		t.Fatalf("CountSamples: %v", err)
	}
	if count != 1 {
		t.Errorf("remaining samples = %d, want 1", count)
	}

	// Pruning again deletes nothing.
	deleted, err = s.PruneSamplesBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("second prune: %v", err)
	}
	if deleted != 0 {
		t.Errorf("second prune deleted = %d, want 0", deleted)
	}
}
