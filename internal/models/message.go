package models

import (
	"encoding/json"
	"fmt"
)

// MessageType tags a push message variant on the wire.
type MessageType string

const (
	MessagePlayerJoined MessageType = "playerJoined"
	MessageScoreUpdate  MessageType = "reflexScoreUpdate"
	MessageGameResult   MessageType = "gameResult"
)

// PushMessage is the wire envelope for point-to-point push delivery. The
// payload is one of the variants below, selected by Type; Decode resolves
// it back into the concrete struct at the boundary.
type PushMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// PlayerJoined announces a new participant to existing lobby members.
type PlayerJoined struct {
	PlayerID   string   `json:"playerId"`
	PlayerName string   `json:"playerName"`
	GameType   GameType `json:"gameType"`
}

// ScoreUpdate announces one player's submitted time before resolution.
type ScoreUpdate struct {
	PlayerID       string `json:"playerId"`
	PlayerName     string `json:"playerName"`
	ReactionTimeMs int    `json:"reactionTimeMs"`
}

// GameResult announces the final arbitration to the opponent. Winner is
// relative to the recipient: "you", "opponent" or "tie".
type GameResult struct {
	Winner       string `json:"winner"`
	YourTime     int    `json:"yourTime"`
	OpponentTime int    `json:"opponentTime"`
	GameOver     bool   `json:"gameOver"`
}

// NewPushMessage wraps a known variant into its envelope.
func NewPushMessage(v any) (PushMessage, error) {
	var t MessageType
	switch v.(type) {
	case PlayerJoined:
		t = MessagePlayerJoined
	case ScoreUpdate:
		t = MessageScoreUpdate
	case GameResult:
		t = MessageGameResult
	default:
		return PushMessage{}, fmt.Errorf("unknown push message variant %T", v)
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return PushMessage{}, err
	}
	return PushMessage{Type: t, Payload: payload}, nil
}

// Decode resolves the envelope into its concrete variant.
func (m PushMessage) Decode() (any, error) {
	switch m.Type {
	case MessagePlayerJoined:
		var v PlayerJoined
		return v, json.Unmarshal(m.Payload, &v)
	case MessageScoreUpdate:
		var v ScoreUpdate
		return v, json.Unmarshal(m.Payload, &v)
	case MessageGameResult:
		var v GameResult
		return v, json.Unmarshal(m.Payload, &v)
	}
	return nil, fmt.Errorf("unknown push message type %q", m.Type)
}
