package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reflexduel/backend/internal/models"
)

// Lobby codes are short and human-shareable; the alphabet avoids characters
// players confuse when reading a code aloud.
const (
	lobbyCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	lobbyCodeLength   = 6

	// GlobalLobbyCode is the fixed share code of the shared waiting room.
	// The unique index on code guarantees at most one such lobby exists,
	// whichever node races to create it first.
	GlobalLobbyCode = "GLOBAL"
)

// LobbyFilter narrows a quick-match query. Only open, unlocked, public
// lobbies with a free slot are ever returned.
type LobbyFilter struct {
	GameType models.GameType
	Limit    int
}

// CreateLobbyParams carries the validated inputs for a new lobby.
type CreateLobbyParams struct {
	Name       string
	MaxPlayers int
	Private    bool
	Locked     bool
	Host       models.PlayerProfile
	GameType   models.GameType
	Tags       []string
}

// LobbyDirectory owns all lobby records. Join paths run inside a
// transaction holding a row lock on the lobby, so concurrent joins can
// never claim more seats than MaxPlayers.
type LobbyDirectory struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewLobbyDirectory(db *gorm.DB, log zerolog.Logger) *LobbyDirectory {
	return &LobbyDirectory{db: db, log: log.With().Str("component", "lobby_directory").Logger()}
}

// CreateLobby registers a new lobby with the host seated.
func (d *LobbyDirectory) CreateLobby(ctx context.Context, p CreateLobbyParams) (*models.Lobby, error) {
	if p.MaxPlayers < 2 {
		return nil, fmt.Errorf("%w: maxPlayers must be at least 2", ErrInvalidLobby)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidLobby)
	}
	if p.Host.ID == "" {
		return nil, fmt.Errorf("%w: host id is required", ErrInvalidLobby)
	}

	code, err := gonanoid.Generate(lobbyCodeAlphabet, lobbyCodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate lobby code: %w", err)
	}

	lobby := &models.Lobby{
		Code:       code,
		Name:       p.Name,
		HostID:     p.Host.ID,
		GameType:   p.GameType,
		MaxPlayers: p.MaxPlayers,
		Locked:     p.Locked,
		Private:    p.Private,
		Tags:       p.Tags,
		Players: []models.LobbyPlayer{
			{PlayerID: p.Host.ID, DisplayName: p.Host.DisplayName},
		},
	}

	if err := d.db.WithContext(ctx).Create(lobby).Error; err != nil {
		return nil, fmt.Errorf("create lobby: %w", err)
	}

	d.log.Info().Str("lobby_id", lobby.ID).Str("code", lobby.Code).
		Str("host_id", p.Host.ID).Msg("lobby created")
	return lobby, nil
}

// JoinByCode seats the player in the lobby addressed by its share code.
func (d *LobbyDirectory) JoinByCode(ctx context.Context, code string, p models.PlayerProfile) (*models.Lobby, error) {
	return d.join(ctx, "code = ?", code, p)
}

// JoinByID seats the player in the lobby addressed by its opaque id.
func (d *LobbyDirectory) JoinByID(ctx context.Context, id string, p models.PlayerProfile) (*models.Lobby, error) {
	return d.join(ctx, "id = ?", id, p)
}

func (d *LobbyDirectory) join(ctx context.Context, cond string, arg string, p models.PlayerProfile) (*models.Lobby, error) {
	var lobby models.Lobby

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// FOR UPDATE on the lobby row serializes all seat changes for this
		// lobby; the member count below cannot go stale before the insert.
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(cond, arg).First(&lobby).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLobbyNotFound
		}
		if err != nil {
			return fmt.Errorf("load lobby: %w", err)
		}
		var seats []models.LobbyPlayer
		if err := tx.Where("lobby_id = ?", lobby.ID).Find(&seats).Error; err != nil {
			return fmt.Errorf("load lobby members: %w", err)
		}
		for _, s := range seats {
			if s.PlayerID == p.ID {
				// Rejoin of a seated player is a no-op, even once the
				// lobby has locked for a running match.
				lobby.Players = seats
				return nil
			}
		}

		if lobby.Locked {
			return ErrLobbyLocked
		}
		if len(seats) >= lobby.MaxPlayers {
			return ErrLobbyFull
		}

		seat := models.LobbyPlayer{LobbyID: lobby.ID, PlayerID: p.ID, DisplayName: p.DisplayName}
		if err := tx.Create(&seat).Error; err != nil {
			return fmt.Errorf("seat player: %w", err)
		}
		lobby.Players = append(seats, seat)
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.log.Info().Str("lobby_id", lobby.ID).Str("player_id", p.ID).
		Int("player_count", len(lobby.Players)).Msg("player joined lobby")
	return &lobby, nil
}

// GetByCode loads a lobby and its members without mutating anything.
func (d *LobbyDirectory) GetByCode(ctx context.Context, code string) (*models.Lobby, error) {
	var lobby models.Lobby
	err := d.db.WithContext(ctx).Preload("Players").
		Where("code = ?", code).First(&lobby).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLobbyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load lobby: %w", err)
	}
	return &lobby, nil
}

// Query returns open lobbies matching the filter, oldest first so the
// longest-waiting host gets paired before newer ones. Locked, private and
// full lobbies are never returned.
func (d *LobbyDirectory) Query(ctx context.Context, f LobbyFilter) ([]models.Lobby, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}

	var lobbies []models.Lobby
	q := d.db.WithContext(ctx).Preload("Players").
		Where("locked = ? AND private = ?", false, false).
		Where("(SELECT COUNT(*) FROM lobby_players lp WHERE lp.lobby_id = lobbies.id) < lobbies.max_players").
		Order("created_at asc").
		Limit(limit)
	if f.GameType != "" {
		q = q.Where("game_type = ?", f.GameType)
	}
	if err := q.Find(&lobbies).Error; err != nil {
		return nil, fmt.Errorf("query lobbies: %w", err)
	}
	return lobbies, nil
}

// RemovePlayer frees the player's seat. Idempotent: removing an absent
// player is a no-op, and an emptied lobby is left in place for the janitor.
func (d *LobbyDirectory) RemovePlayer(ctx context.Context, lobbyID, playerID string) error {
	err := d.db.WithContext(ctx).
		Where("lobby_id = ? AND player_id = ?", lobbyID, playerID).
		Delete(&models.LobbyPlayer{}).Error
	if err != nil {
		return fmt.Errorf("remove player: %w", err)
	}
	d.log.Info().Str("lobby_id", lobbyID).Str("player_id", playerID).Msg("player removed from lobby")
	return nil
}

// JoinGlobal seats the player in the shared waiting room, creating it on
// first use. Find-or-create races through the unique index on code: a
// concurrent creator that loses the insert gets gorm.ErrDuplicatedKey and
// joins the winner's lobby on the next pass.
func (d *LobbyDirectory) JoinGlobal(ctx context.Context, name string, capacity int, p models.PlayerProfile) (*models.Lobby, error) {
	for attempt := 0; attempt < 2; attempt++ {
		var lobby models.Lobby
		err := d.db.WithContext(ctx).Where("code = ?", GlobalLobbyCode).First(&lobby).Error
		if err == nil {
			return d.JoinByID(ctx, lobby.ID, p)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load global lobby: %w", err)
		}

		created := &models.Lobby{
			Code:       GlobalLobbyCode,
			Name:       name,
			HostID:     p.ID,
			GameType:   models.GameTypeReflex,
			MaxPlayers: capacity,
			Tags:       []string{"global"},
			Players: []models.LobbyPlayer{
				{PlayerID: p.ID, DisplayName: p.DisplayName},
			},
		}
		cerr := d.db.WithContext(ctx).Create(created).Error
		if cerr == nil {
			d.log.Info().Str("lobby_id", created.ID).Msg("global lobby created")
			return created, nil
		}
		if !errors.Is(cerr, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create global lobby: %w", cerr)
		}
		// Lost the creation race; retry the lookup against the winner.
	}
	return nil, fmt.Errorf("load global lobby: %w", ErrLobbyNotFound)
}

// DeleteEmptyBefore removes lobbies with no seated players created before
// the cutoff. This is the external cleanup policy; nothing in the join or
// leave paths deletes lobbies.
func (d *LobbyDirectory) DeleteEmptyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := d.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Where("NOT EXISTS (SELECT 1 FROM lobby_players lp WHERE lp.lobby_id = lobbies.id)").
		Delete(&models.Lobby{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete empty lobbies: %w", res.Error)
	}
	return res.RowsAffected, nil
}
