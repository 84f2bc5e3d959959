package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Lobby is a joinable matchmaking room with a capacity and a shareable code.
type Lobby struct {
	// ID is the opaque lobby identifier (UUID).
	ID string `gorm:"primaryKey" json:"id"`
	// Code is the short human-shareable join code.
	Code string `gorm:"uniqueIndex" json:"code"`
	// Name is the display name, e.g. "Alice's Duel".
	Name string `json:"name"`
	// HostID is the id of the creating player; it never changes.
	HostID string `json:"hostId"`
	// GameType tags the lobby for quick-match filtering.
	GameType GameType `gorm:"index" json:"gameType"`
	// MaxPlayers is 2 for direct duels, higher for the global waiting room.
	MaxPlayers int `json:"maxPlayers"`
	// Locked lobbies accept no new joins.
	Locked  bool           `json:"locked"`
	Private bool           `json:"private"`
	Tags    pq.StringArray `gorm:"type:text[]" json:"tags"`

	Players []LobbyPlayer `gorm:"foreignKey:LobbyID" json:"players"`

	CreatedAt time.Time `json:"createdAt"`
}

// BeforeCreate assigns a UUID if the caller did not set one.
func (l *Lobby) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// AvailableSlots is derived from capacity minus current members.
func (l *Lobby) AvailableSlots() int {
	return l.MaxPlayers - len(l.Players)
}

// HasPlayer reports whether playerID already holds a seat.
func (l *Lobby) HasPlayer(playerID string) bool {
	for _, p := range l.Players {
		if p.PlayerID == playerID {
			return true
		}
	}
	return false
}

// LobbyPlayer is one seat in a lobby: a lobby-scoped, ephemeral profile,
// not a durable account.
type LobbyPlayer struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	LobbyID     string `gorm:"index:idx_lobby_seat,unique" json:"-"`
	PlayerID    string `gorm:"index:idx_lobby_seat,unique" json:"playerId"`
	DisplayName string `json:"displayName"`

	JoinedAt time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

// PlayerProfile identifies a caller when joining a lobby.
type PlayerProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}
