package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/graaaaa/hytale-companion/internal/event"
)

func joinEvent(ts, id, name, world string) event.Event {
	return event.Event{Timestamp: ts, PlayerID: id, Name: name, World: world, Kind: event.KindJoin}
}

func leaveEvent(ts, id, name string) event.Event {
	return event.Event{Timestamp: ts, PlayerID: id, Name: name, Kind: event.KindLeave}
}

func samePlayer(a, b *Player) bool {
	strEq := func(x, y *string) bool {
		if x == nil || y == nil {
			return x == y
		}
		return *x == *y
	}
	return a.UUID == b.UUID &&
		a.Name == b.Name &&
		a.Online == b.Online &&
		strEq(a.LastLogin, b.LastLogin) &&
		strEq(a.LastLogout, b.LastLogout) &&
		strEq(a.World, b.World) &&
		a.TotalPlaytimeSeconds == b.TotalPlaytimeSeconds
}

func TestApplyEvent_JoinCreatesPlayer(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := joinEvent("2024-01-01T10:00:00+0000", "abc-123", "Alice", "Overworld")
	if err := s.ApplyEvent(ctx, e); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}

	p, err := s.Player(ctx, "abc-123")
	if err != nil {
		t.Fatalf("Player: %v", err)
	}
	if p == nil {
		t.Fatal("player record not created")
	}
	if !p.Online {
		t.Error("player should be online after join")
	}
	if p.LastLogin == nil || *p.LastLogin != e.Timestamp {
		t.Errorf("last_login = %v, want %q", p.LastLogin, e.Timestamp)
	}
	if p.World == nil || *p.World != "Overworld" {
		t.Errorf("world = %v, want Overworld", p.World)
	}

	count, err := s.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if count != 1 {
		t.Errorf("event log count = %d, want 1", count)
	}
}

func TestApplyEvent_IdempotentMerge(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	batch := []event.Event{
		joinEvent("2024-01-01T10:00:00+0000", "abc-123", "Alice", "Overworld"),
		leaveEvent("2024-01-01T11:00:00+0000", "abc-123", "Alice"),
		joinEvent("2024-01-01T12:00:00+0000", "abc-123", "Alice", "Nether"),
	}

	apply := func() {
		for _, e := range batch {
			if err := s.ApplyEvent(ctx, e); err != nil {
				t.Fatalf("ApplyEvent: %v", err)
			}
		}
	}

	apply()
	first, err := s.Player(ctx, "abc-123")
	if err != nil {
		t.Fatalf("Player: %v", err)
	}

	// Re-merging the identical batch must leave the record unchanged.
	apply()
	second, err := s.Player(ctx, "abc-123")
	if err != nil {
		t.Fatalf("Player: %v", err)
	}

	if !samePlayer(first, second) {
		t.Errorf("re-merge changed player state: %+v vs %+v", *first, *second)
	}
	if !second.Online {
		t.Error("player should be online after final join")
	}
	if second.LastLogin == nil || *second.LastLogin != "2024-01-01T12:00:00+0000" {
		t.Errorf("last_login = %v, want final join timestamp", second.LastLogin)
	}
}

func TestApplyEvent_LeaveClearsOnline(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.ApplyEvent(ctx, joinEvent("2024-01-01T10:00:00+0000", "abc-123", "Alice", "Overworld")); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := s.ApplyEvent(ctx, leaveEvent("2024-01-01T11:00:00+0000", "abc-123", "Alice")); err != nil {
		t.Fatalf("leave: %v", err)
	}

	p, err := s.Player(ctx, "abc-123")
	if err != nil {
		t.Fatalf("Player: %v", err)
	}
	if p.Online {
		t.Error("player should be offline after leave")
	}
	if p.LastLogout == nil || *p.LastLogout != "2024-01-01T11:00:00+0000" {
		t.Errorf("last_logout = %v, want leave timestamp", p.LastLogout)
	}
	// A duplicate leave is a no-op.
	if err := s.ApplyEvent(ctx, leaveEvent("2024-01-01T11:00:00+0000", "abc-123", "Alice")); err != nil {
		t.Fatalf("duplicate leave: %v", err)
	}
}

func TestApplyEvent_UnknownPlayerLeave(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.ApplyEvent(ctx, leaveEvent("2024-01-01T11:00:00+0000", "ghost-1", "Ghost")); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}

	// No player record is created...
	p, err := s.Player(ctx, "ghost-1")
	if err != nil {
		t.Fatalf("Player: %v", err)
	}
	if p != nil {
		t.Errorf("unexpected player record: %+v", *p)
	}

	// ...but the event is still logged.
	count, err := s.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if count != 1 {
		t.Errorf("event log count = %d, want 1", count)
	}
}

func TestApplyEvent_RejectsInvalid(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.ApplyEvent(ctx, event.Event{Timestamp: "2024-01-01T10:00:00+0000", PlayerID: "x", Kind: "teleport"})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("unknown kind: got %v, want ErrInvalidEvent", err)
	}

	err = s.ApplyEvent(ctx, event.Event{Kind: event.KindJoin})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("missing fields: got %v, want ErrInvalidEvent", err)
	}
}

func TestPruneEventsBefore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := joinEvent("2024-01-01T10:00:00+0000", "abc-123", "Alice", "Overworld")
	young := joinEvent("2024-03-01T10:00:00+0000", "abc-123", "Alice", "Overworld")
	for _, e := range []event.Event{old, young} {
		if err := s.ApplyEvent(ctx, e); err != nil {
			t.Fatalf("ApplyEvent: %v", err)
		}
	}

	cutoff := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	deleted, err := s.PruneEventsBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("PruneEventsBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	count, err := s.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if count != 1 {
		t.Errorf("remaining events = %d, want 1", count)
	}
}
