package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Player is the durable per-player record derived from join/leave events.
// Optional fields are pointers so "never observed" stays distinct from an
// empty value.
type Player struct {
	UUID                 string
	Name                 string
	Online               bool
	LastLogin            *string
	LastLogout           *string
	World                *string
	TotalPlaytimeSeconds int64
}

// SyncPlayer upserts a player record built by the startup backfill.
// Fields already set on an existing row are not blanked by a null in the
// incoming record (COALESCE semantics).
func (s *Store) SyncPlayer(ctx context.Context, p Player) error {
	if p.UUID == "" {
		return fmt.Errorf("player uuid is required")
	}

	online := 0
	if p.Online {
		online = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (uuid, name, online, last_login, last_logout, world)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			name = excluded.name,
			online = excluded.online,
			last_login = COALESCE(excluded.last_login, players.last_login),
			last_logout = COALESCE(excluded.last_logout, players.last_logout),
			world = COALESCE(excluded.world, players.world)`,
		p.UUID, p.Name, online, p.LastLogin, p.LastLogout, p.World,
	)
	if err != nil {
		return fmt.Errorf("sync player %s: %w", p.UUID, err)
	}
	return nil
}

// Player returns the record for the given UUID, or nil if none exists.
func (s *Store) Player(ctx context.Context, uuid string) (*Player, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT uuid, name, online, last_login, last_logout, world, total_playtime_seconds
		FROM players WHERE uuid = ?`, uuid)

	var (
		p      Player
		online int
	)
	err := row.Scan(&p.UUID, &p.Name, &online, &p.LastLogin, &p.LastLogout, &p.World, &p.TotalPlaytimeSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get player %s: %w", uuid, err)
	}
	p.Online = online != 0
	return &p, nil
}

// CountOnline returns the number of players currently marked online.
func (s *Store) CountOnline(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players WHERE online = 1`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count online players: %w", err)
	}
	return count, nil
}

// CountPlayers returns the total number of known players.
func (s *Store) CountPlayers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return count, nil
}
