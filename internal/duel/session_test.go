package duel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflexduel/backend/internal/models"
)

func TestApplyResultSeatsPlayersInOrder(t *testing.T) {
	sess := &models.MatchSession{GameType: models.GameTypeReflex}
	assert.Equal(t, models.SessionEmpty, sess.State())

	require.NoError(t, applyResult(sess, "alice", 120))
	assert.Equal(t, "alice", sess.Player1ID)
	assert.Equal(t, 120, sess.Player1Time)
	assert.Equal(t, models.SessionAwaitingSecondResult, sess.State())

	require.NoError(t, applyResult(sess, "bob", 90))
	assert.Equal(t, "bob", sess.Player2ID)
	assert.Equal(t, 90, sess.Player2Time)
	assert.Equal(t, models.SessionResolved, sess.State())
}

func TestApplyResultResubmissionOverwritesOwnTimeOnly(t *testing.T) {
	sess := &models.MatchSession{GameType: models.GameTypeReflex}
	require.NoError(t, applyResult(sess, "alice", 120))
	require.NoError(t, applyResult(sess, "alice", 95))

	assert.Equal(t, "alice", sess.Player1ID)
	assert.Equal(t, 95, sess.Player1Time)
	assert.Empty(t, sess.Player2ID, "resubmission must not claim the second seat")
	assert.Equal(t, models.SessionAwaitingSecondResult, sess.State())
}

func TestApplyResultRejectsThirdPlayer(t *testing.T) {
	sess := &models.MatchSession{GameType: models.GameTypeReflex}
	require.NoError(t, applyResult(sess, "alice", 120))
	require.NoError(t, applyResult(sess, "bob", 90))

	err := applyResult(sess, "carol", 50)
	assert.ErrorIs(t, err, ErrSessionFull)
	assert.Equal(t, "alice", sess.Player1ID)
	assert.Equal(t, "bob", sess.Player2ID)
}

func TestOutcomeLowerTimeWins(t *testing.T) {
	sess := &models.MatchSession{
		Player1ID: "host", Player1Time: 10,
		Player2ID: "joiner", Player2Time: 20,
		GameType: models.GameTypeReflex,
	}

	hostView := outcomeFor(sess, "host")
	assert.Equal(t, WinnerYou, hostView.Winner)
	assert.Equal(t, 10, hostView.YourTime)
	assert.Equal(t, 20, hostView.OpponentTime)
	assert.True(t, hostView.GameOver)

	joinerView := outcomeFor(sess, "joiner")
	assert.Equal(t, WinnerOpponent, joinerView.Winner)
	assert.Equal(t, 20, joinerView.YourTime)
	assert.Equal(t, 10, joinerView.OpponentTime)
	assert.True(t, joinerView.GameOver)
}

func TestOutcomeEqualTimesTieForBoth(t *testing.T) {
	sess := &models.MatchSession{
		Player1ID: "host", Player1Time: 15,
		Player2ID: "joiner", Player2Time: 15,
		GameType: models.GameTypeReflex,
	}

	assert.Equal(t, WinnerTie, outcomeFor(sess, "host").Winner)
	assert.Equal(t, WinnerTie, outcomeFor(sess, "joiner").Winner)
}

func TestOutcomeWaitingBeforeBothSubmitted(t *testing.T) {
	sess := &models.MatchSession{
		Player1ID: "host", Player1Time: 120,
		GameType: models.GameTypeReflex,
	}

	view := outcomeFor(sess, "host")
	assert.Equal(t, WinnerWaiting, view.Winner)
	assert.Equal(t, 120, view.YourTime)
	assert.Equal(t, 0, view.OpponentTime)
	assert.False(t, view.GameOver)
}
