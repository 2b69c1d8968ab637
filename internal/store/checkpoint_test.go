package store

import (
	"context"
	"testing"
)

func TestCheckpoint_DefaultEmpty(t *testing.T) {
	s := openTestStore(t)

	ts, err := s.Checkpoint(context.Background())
	if err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}
	if ts != "" {
		t.Errorf("checkpoint = %q, want empty", ts)
	}
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SetCheckpoint(ctx, "2024-01-01T10:00:00+0000"); err != nil {
		t.Fatalf("SetCheckpoint: %v", err)
	}
	if err := s.SetCheckpoint(ctx, "2024-01-02T10:00:00+0000"); err != nil {
		t.Fatalf("SetCheckpoint (overwrite): %v", err)
	}

	ts, err := s.Checkpoint(ctx)
	if err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}
	if ts != "2024-01-02T10:00:00+0000" {
		t.Errorf("checkpoint = %q, want latest value", ts)
	}
}

func TestSetCheckpoint_RejectsEmpty(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetCheckpoint(context.Background(), ""); err == nil {
		t.Error("expected error for empty checkpoint")
	}
}
