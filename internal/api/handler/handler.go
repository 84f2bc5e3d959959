package handler

import (
	"errors"

	"github.com/rs/zerolog"

	"reflexduel/backend/internal/duel"
	"reflexduel/backend/internal/hub"
	"reflexduel/backend/internal/storage"
)

// Handler exposes the matchmaking coordinator and push hub over HTTP.
type Handler struct {
	Coordinator *duel.Coordinator
	Hub         *hub.Manager
	JWTSecret   []byte
	Log         zerolog.Logger
}

func NewHandler(coord *duel.Coordinator, m *hub.Manager, jwtSecret []byte, log zerolog.Logger) *Handler {
	return &Handler{
		Coordinator: coord,
		Hub:         m,
		JWTSecret:   jwtSecret,
		Log:         log.With().Str("component", "handler").Logger(),
	}
}

// lobbyResponse is the shared response shape for every lobby entry flow.
// Consumers check Success before reading anything else; on failure the
// remaining fields are zeroed and Error names the taxonomy category.
type lobbyResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	LobbyID     string `json:"lobbyId,omitempty"`
	LobbyCode   string `json:"lobbyCode,omitempty"`
	LobbyName   string `json:"lobbyName,omitempty"`
	Session     string `json:"session,omitempty"`
	IsHost      bool   `json:"isHost"`
	PlayerCount int    `json:"playerCount"`
}

func lobbySuccess(info *duel.MatchInfo) lobbyResponse {
	return lobbyResponse{
		Success:     true,
		LobbyID:     info.LobbyID,
		LobbyCode:   info.LobbyCode,
		LobbyName:   info.LobbyName,
		Session:     info.SessionKey,
		IsHost:      info.IsHost,
		PlayerCount: info.PlayerCount,
	}
}

func lobbyFailure(err error) lobbyResponse {
	return lobbyResponse{Error: errorCategory(err)}
}

// errorCategory maps an operation error onto the client-facing taxonomy.
func errorCategory(err error) string {
	switch {
	case errors.Is(err, storage.ErrLobbyNotFound), errors.Is(err, storage.ErrSessionNotFound):
		return "notFound"
	case errors.Is(err, storage.ErrLobbyFull):
		return "full"
	case errors.Is(err, storage.ErrLobbyLocked):
		return "locked"
	case errors.Is(err, duel.ErrSessionFull):
		return "sessionFull"
	case errors.Is(err, storage.ErrInvalidLobby):
		return "creationError"
	default:
		return "storeUnavailable"
	}
}
