package models

import "strings"

// SessionKeyPrefix correlates a MatchSession with the lobby it belongs to.
// Any component can derive the key from a lobby code without holding the
// lobby record itself.
const SessionKeyPrefix = "SESSION_"

// SessionKey derives the session store key for a lobby code.
func SessionKey(lobbyCode string) string {
	return SessionKeyPrefix + lobbyCode
}

// LobbyCodeFromSessionKey recovers the lobby code a session key was derived
// from. Returns "" if the key does not carry the prefix.
func LobbyCodeFromSessionKey(key string) string {
	if !strings.HasPrefix(key, SessionKeyPrefix) {
		return ""
	}
	return strings.TrimPrefix(key, SessionKeyPrefix)
}

// SessionState describes how far a match session has progressed.
type SessionState string

const (
	SessionEmpty                SessionState = "empty"
	SessionAwaitingFirstResult  SessionState = "awaitingFirstResult"
	SessionAwaitingSecondResult SessionState = "awaitingSecondResult"
	SessionResolved             SessionState = "resolved"
)

// MatchSession is the durable record of one duel, stored as JSON in the
// session store under SessionKey(code). A time of 0 means "not submitted";
// player ids are assigned on first submission and never reassigned.
type MatchSession struct {
	Player1ID   string   `json:"player1Id"`
	Player2ID   string   `json:"player2Id"`
	Player1Time int      `json:"player1Time"`
	Player2Time int      `json:"player2Time"`
	GameType    GameType `json:"gameType"`
}

// State reports the session's position in the Empty -> AwaitingFirstResult ->
// AwaitingSecondResult -> Resolved lifecycle.
func (s *MatchSession) State() SessionState {
	switch {
	case s.Player1ID == "" && s.Player2ID == "":
		return SessionEmpty
	case s.Player1Time > 0 && s.Player2Time > 0:
		return SessionResolved
	case s.Player1Time > 0 || s.Player2Time > 0:
		return SessionAwaitingSecondResult
	default:
		return SessionAwaitingFirstResult
	}
}

// Resolved reports whether both players have submitted a positive time.
func (s *MatchSession) Resolved() bool {
	return s.Player1Time > 0 && s.Player2Time > 0
}

// OpponentOf returns the other player's id, or "" if the opponent has not
// submitted yet or playerID is not part of the session.
func (s *MatchSession) OpponentOf(playerID string) string {
	switch playerID {
	case s.Player1ID:
		return s.Player2ID
	case s.Player2ID:
		return s.Player1ID
	}
	return ""
}

// TimeOf returns the recorded reaction time for playerID, 0 if none.
func (s *MatchSession) TimeOf(playerID string) int {
	switch playerID {
	case s.Player1ID:
		return s.Player1Time
	case s.Player2ID:
		return s.Player2Time
	}
	return 0
}
