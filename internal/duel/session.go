package duel

import (
	"errors"

	"reflexduel/backend/internal/models"
)

// ErrSessionFull is returned when a third distinct player submits a result
// to a session that already has both seats assigned.
var ErrSessionFull = errors.New("session already has two players")

// Winner labels, always relative to whoever receives the outcome.
const (
	WinnerYou      = "you"
	WinnerOpponent = "opponent"
	WinnerTie      = "tie"
	WinnerWaiting  = "waiting"
)

// Outcome is one player's view of the session after a submission.
type Outcome struct {
	Winner       string `json:"winner"`
	YourTime     int    `json:"yourTime"`
	OpponentTime int    `json:"opponentTime"`
	GameOver     bool   `json:"gameOver"`
}

// applyResult records playerID's reaction time on the session. Seats are
// claimed in submission order and a seat, once claimed, is never
// reassigned; a player resubmitting overwrites only their own time.
func applyResult(sess *models.MatchSession, playerID string, reactionTimeMs int) error {
	switch {
	case sess.Player1ID == "":
		sess.Player1ID = playerID
		sess.Player1Time = reactionTimeMs
	case sess.Player1ID == playerID:
		sess.Player1Time = reactionTimeMs
	case sess.Player2ID == "":
		sess.Player2ID = playerID
		sess.Player2Time = reactionTimeMs
	case sess.Player2ID == playerID:
		sess.Player2Time = reactionTimeMs
	default:
		return ErrSessionFull
	}
	return nil
}

// outcomeFor computes callerID's view of the session. Before both times are
// in, the outcome is non-terminal: winner "waiting" and no opponent time.
// Once resolved, the strictly lower time wins and equal times tie.
func outcomeFor(sess *models.MatchSession, callerID string) Outcome {
	if !sess.Resolved() {
		return Outcome{
			Winner:   WinnerWaiting,
			YourTime: sess.TimeOf(callerID),
		}
	}

	winner := WinnerTie
	if sess.Player1Time < sess.Player2Time {
		winner = relativeWinner(sess.Player1ID, callerID)
	} else if sess.Player2Time < sess.Player1Time {
		winner = relativeWinner(sess.Player2ID, callerID)
	}

	return Outcome{
		Winner:       winner,
		YourTime:     sess.TimeOf(callerID),
		OpponentTime: sess.TimeOf(sess.OpponentOf(callerID)),
		GameOver:     true,
	}
}

func relativeWinner(winnerID, callerID string) string {
	if winnerID == callerID {
		return WinnerYou
	}
	return WinnerOpponent
}
