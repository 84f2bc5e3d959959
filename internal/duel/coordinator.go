package duel

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"reflexduel/backend/internal/models"
	"reflexduel/backend/internal/storage"
)

// LobbyDirectory is the queryable registry of open lobbies. The directory
// is responsible for slot atomicity; the coordinator never locks.
type LobbyDirectory interface {
	CreateLobby(ctx context.Context, p storage.CreateLobbyParams) (*models.Lobby, error)
	JoinByCode(ctx context.Context, code string, p models.PlayerProfile) (*models.Lobby, error)
	JoinByID(ctx context.Context, id string, p models.PlayerProfile) (*models.Lobby, error)
	JoinGlobal(ctx context.Context, name string, capacity int, p models.PlayerProfile) (*models.Lobby, error)
	GetByCode(ctx context.Context, code string) (*models.Lobby, error)
	Query(ctx context.Context, f storage.LobbyFilter) ([]models.Lobby, error)
	RemovePlayer(ctx context.Context, lobbyID, playerID string) error
}

// SessionStore is key-value persistence for match sessions. Update is the
// compare-and-swap path used for result submission.
type SessionStore interface {
	Get(ctx context.Context, key string) (*models.MatchSession, error)
	Set(ctx context.Context, key string, sess *models.MatchSession) error
	Update(ctx context.Context, key string, mutate func(*models.MatchSession) error) (*models.MatchSession, error)
}

// Dispatcher delivers one push message to one player, best effort.
type Dispatcher interface {
	SendToPlayer(ctx context.Context, playerID string, msg models.PushMessage) error
}

// MatchInfo describes the lobby a caller ended up in.
type MatchInfo struct {
	LobbyID     string
	LobbyCode   string
	LobbyName   string
	SessionKey  string
	IsHost      bool
	PlayerCount int
}

// DispatchOutcome records one recipient's delivery result. Failures are
// logged, never surfaced as the primary operation's error.
type DispatchOutcome struct {
	PlayerID string
	Err      error
}

// Coordinator orchestrates the host, join, quick-match and result
// submission flows. All collaborators are injected; it holds no state of
// its own beyond them.
type Coordinator struct {
	lobbies  LobbyDirectory
	sessions SessionStore
	push     Dispatcher
	log      zerolog.Logger

	globalName     string
	globalCapacity int
}

func NewCoordinator(lobbies LobbyDirectory, sessions SessionStore, push Dispatcher, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		lobbies:        lobbies,
		sessions:       sessions,
		push:           push,
		log:            log.With().Str("component", "coordinator").Logger(),
		globalName:     "Global Lobby",
		globalCapacity: 50,
	}
}

// SetGlobalLobby overrides the shared waiting room's name and capacity.
func (c *Coordinator) SetGlobalLobby(name string, capacity int) {
	c.globalName = name
	c.globalCapacity = capacity
}

// Host creates a two-seat lobby and initializes its session to empty.
func (c *Coordinator) Host(ctx context.Context, caller models.PlayerProfile, gt models.GameType) (*MatchInfo, error) {
	lobby, err := c.lobbies.CreateLobby(ctx, storage.CreateLobbyParams{
		Name:       fmt.Sprintf("%s's Duel", caller.DisplayName),
		MaxPlayers: 2,
		Host:       caller,
		GameType:   gt,
	})
	if err != nil {
		return nil, err
	}

	if err := c.initSession(ctx, lobby.Code, gt); err != nil {
		return nil, err
	}
	return c.matchInfo(lobby, true), nil
}

// JoinByCode seats the caller in an existing lobby and announces them to
// the members already there.
func (c *Coordinator) JoinByCode(ctx context.Context, caller models.PlayerProfile, code string) (*MatchInfo, error) {
	lobby, err := c.lobbies.JoinByCode(ctx, code, caller)
	if err != nil {
		return nil, err
	}

	// The host normally initialized the session; recreate it only if the
	// record is genuinely absent.
	if err := c.ensureSession(ctx, lobby.Code, lobby.GameType); err != nil {
		return nil, err
	}

	c.announceJoin(ctx, lobby, caller)
	return c.matchInfo(lobby, lobby.HostID == caller.ID), nil
}

// QuickMatch pairs the caller into the oldest open lobby for the game
// type, or creates a fresh one to wait in. The caller's wait timeout is
// their own context; a join or create that commits after the caller gives
// up stays committed.
func (c *Coordinator) QuickMatch(ctx context.Context, caller models.PlayerProfile, gt models.GameType) (*MatchInfo, error) {
	lobbies, err := c.lobbies.Query(ctx, storage.LobbyFilter{GameType: gt})
	if err != nil {
		return nil, err
	}

	for _, candidate := range lobbies {
		if candidate.HasPlayer(caller.ID) {
			continue
		}
		lobby, jerr := c.lobbies.JoinByID(ctx, candidate.ID, caller)
		if jerr != nil {
			// Someone else took the last seat between query and join;
			// fall through to the next candidate.
			c.log.Debug().Err(jerr).Str("lobby_id", candidate.ID).Msg("quick-match candidate unavailable")
			continue
		}
		if err := c.ensureSession(ctx, lobby.Code, gt); err != nil {
			return nil, err
		}
		c.announceJoin(ctx, lobby, caller)
		return c.matchInfo(lobby, false), nil
	}

	lobby, err := c.lobbies.CreateLobby(ctx, storage.CreateLobbyParams{
		Name:       fmt.Sprintf("%s's Duel", caller.DisplayName),
		MaxPlayers: 2,
		Host:       caller,
		GameType:   gt,
		Tags:       []string{gt.String(), "quickmatch"},
	})
	if err != nil {
		return nil, err
	}
	if err := c.initSession(ctx, lobby.Code, gt); err != nil {
		return nil, err
	}
	return c.matchInfo(lobby, true), nil
}

// JoinGlobal seats the caller in the shared high-capacity waiting room.
func (c *Coordinator) JoinGlobal(ctx context.Context, caller models.PlayerProfile) (*MatchInfo, error) {
	lobby, err := c.lobbies.JoinGlobal(ctx, c.globalName, c.globalCapacity, caller)
	if err != nil {
		return nil, err
	}
	c.announceJoin(ctx, lobby, caller)
	return c.matchInfo(lobby, lobby.HostID == caller.ID), nil
}

// Leave frees the caller's seat. The lobby record stays behind for the
// janitor; sessions are never explicitly deleted.
func (c *Coordinator) Leave(ctx context.Context, lobbyID, playerID string) error {
	return c.lobbies.RemovePlayer(ctx, lobbyID, playerID)
}

// SubmitResult records the caller's reaction time and arbitrates the match
// once both times are in. The returned outcome is the caller's view; the
// opponent receives theirs role-reversed on the push channel.
func (c *Coordinator) SubmitResult(ctx context.Context, caller models.PlayerProfile, sessionKey string, reactionTimeMs int) (*Outcome, error) {
	if reactionTimeMs <= 0 {
		return nil, fmt.Errorf("reaction time must be positive, got %d", reactionTimeMs)
	}

	sess, err := c.sessions.Update(ctx, sessionKey, func(s *models.MatchSession) error {
		return applyResult(s, caller.ID, reactionTimeMs)
	})
	if err != nil {
		return nil, err
	}

	outcome := outcomeFor(sess, caller.ID)
	if outcome.GameOver {
		c.dispatchResult(ctx, sess, caller.ID)
	} else {
		c.dispatchScoreUpdate(ctx, sessionKey, caller, reactionTimeMs)
	}

	c.log.Info().Str("session_key", sessionKey).Str("player_id", caller.ID).
		Int("reaction_ms", reactionTimeMs).Bool("game_over", outcome.GameOver).
		Msg("result recorded")
	return &outcome, nil
}

// ensureSession recreates the session only when the record is missing.
// Any other Get failure is the store being unavailable; overwriting on
// that signal would wipe results already submitted, so it propagates.
func (c *Coordinator) ensureSession(ctx context.Context, lobbyCode string, gt models.GameType) error {
	_, err := c.sessions.Get(ctx, models.SessionKey(lobbyCode))
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrSessionNotFound) {
		return err
	}
	return c.initSession(ctx, lobbyCode, gt)
}

func (c *Coordinator) initSession(ctx context.Context, lobbyCode string, gt models.GameType) error {
	sess, err := models.NewMatchSession(gt)
	if err != nil {
		return err
	}
	return c.sessions.Set(ctx, models.SessionKey(lobbyCode), sess)
}

func (c *Coordinator) matchInfo(lobby *models.Lobby, isHost bool) *MatchInfo {
	return &MatchInfo{
		LobbyID:     lobby.ID,
		LobbyCode:   lobby.Code,
		LobbyName:   lobby.Name,
		SessionKey:  models.SessionKey(lobby.Code),
		IsHost:      isHost,
		PlayerCount: len(lobby.Players),
	}
}

// announceJoin pushes playerJoined to every member already seated.
func (c *Coordinator) announceJoin(ctx context.Context, lobby *models.Lobby, joined models.PlayerProfile) {
	msg, err := models.NewPushMessage(models.PlayerJoined{
		PlayerID:   joined.ID,
		PlayerName: joined.DisplayName,
		GameType:   lobby.GameType,
	})
	if err != nil {
		c.log.Error().Err(err).Msg("failed to build playerJoined message")
		return
	}

	var recipients []string
	for _, p := range lobby.Players {
		if p.PlayerID != joined.ID {
			recipients = append(recipients, p.PlayerID)
		}
	}
	c.notifyAll(ctx, recipients, msg)
}

// dispatchResult pushes the terminal outcome to the opponent, with winner
// flipped to their perspective and the times swapped to match.
func (c *Coordinator) dispatchResult(ctx context.Context, sess *models.MatchSession, callerID string) {
	opponentID := sess.OpponentOf(callerID)
	if opponentID == "" {
		return
	}

	opponentView := outcomeFor(sess, opponentID)
	msg, err := models.NewPushMessage(models.GameResult{
		Winner:       opponentView.Winner,
		YourTime:     opponentView.YourTime,
		OpponentTime: opponentView.OpponentTime,
		GameOver:     true,
	})
	if err != nil {
		c.log.Error().Err(err).Msg("failed to build gameResult message")
		return
	}
	c.notifyAll(ctx, []string{opponentID}, msg)
}

// dispatchScoreUpdate announces a non-terminal submission to the other
// seated lobby members. The session may not know the opponent yet, so the
// recipients come from the lobby correlated by the session key.
func (c *Coordinator) dispatchScoreUpdate(ctx context.Context, sessionKey string, caller models.PlayerProfile, reactionTimeMs int) {
	code := models.LobbyCodeFromSessionKey(sessionKey)
	if code == "" {
		return
	}
	lobby, err := c.lobbies.GetByCode(ctx, code)
	if err != nil {
		c.log.Debug().Err(err).Str("code", code).Msg("no lobby for score update")
		return
	}

	msg, err := models.NewPushMessage(models.ScoreUpdate{
		PlayerID:       caller.ID,
		PlayerName:     caller.DisplayName,
		ReactionTimeMs: reactionTimeMs,
	})
	if err != nil {
		c.log.Error().Err(err).Msg("failed to build reflexScoreUpdate message")
		return
	}

	var recipients []string
	for _, p := range lobby.Players {
		if p.PlayerID != caller.ID {
			recipients = append(recipients, p.PlayerID)
		}
	}
	c.notifyAll(ctx, recipients, msg)
}

// notifyAll fires the message to every recipient, collecting per-recipient
// outcomes. One failed send never blocks the others or the caller's
// primary operation.
func (c *Coordinator) notifyAll(ctx context.Context, playerIDs []string, msg models.PushMessage) []DispatchOutcome {
	outcomes := make([]DispatchOutcome, 0, len(playerIDs))
	for _, id := range playerIDs {
		err := c.push.SendToPlayer(ctx, id, msg)
		outcomes = append(outcomes, DispatchOutcome{PlayerID: id, Err: err})
		if err != nil {
			c.log.Warn().Err(err).Str("player_id", id).Str("type", string(msg.Type)).
				Msg("push dispatch failed")
		}
	}
	return outcomes
}
