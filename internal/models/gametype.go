package models

import "fmt"

// GameType enumerates the duel variants the backend can arbitrate.
// Each variant has its own session initializer in NewMatchSession, so an
// unhandled variant is a compile-visible gap instead of a missing map entry.
type GameType string

const (
	GameTypeReflex GameType = "reflex"
)

// ParseGameType validates a client-supplied game type string.
func ParseGameType(s string) (GameType, error) {
	switch GameType(s) {
	case GameTypeReflex:
		return GameTypeReflex, nil
	}
	return "", fmt.Errorf("unknown game type %q", s)
}

func (g GameType) String() string { return string(g) }

// NewMatchSession returns the initial session record for the given variant.
func NewMatchSession(gt GameType) (*MatchSession, error) {
	switch gt {
	case GameTypeReflex:
		return &MatchSession{GameType: GameTypeReflex}, nil
	}
	return nil, fmt.Errorf("no session initializer for game type %q", gt)
}
