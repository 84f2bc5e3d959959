package storage

import "errors"

// Sentinel errors for the join/lookup taxonomy. Callers branch with
// errors.Is; anything else is a store failure and aborts the operation.
var (
	ErrLobbyNotFound   = errors.New("lobby not found")
	ErrLobbyFull       = errors.New("lobby is full")
	ErrLobbyLocked     = errors.New("lobby is locked")
	ErrInvalidLobby    = errors.New("invalid lobby parameters")
	ErrSessionNotFound = errors.New("session not found")
	ErrUpdateConflict  = errors.New("session update conflict")
)
