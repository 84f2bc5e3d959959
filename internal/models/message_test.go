package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflexduel/backend/internal/models"
)

func TestPushMessageVariants(t *testing.T) {
	cases := []struct {
		name     string
		variant  any
		wantType models.MessageType
	}{
		{"playerJoined", models.PlayerJoined{PlayerID: "p1", PlayerName: "Alice", GameType: models.GameTypeReflex}, models.MessagePlayerJoined},
		{"scoreUpdate", models.ScoreUpdate{PlayerID: "p1", PlayerName: "Alice", ReactionTimeMs: 140}, models.MessageScoreUpdate},
		{"gameResult", models.GameResult{Winner: "you", YourTime: 90, OpponentTime: 120, GameOver: true}, models.MessageGameResult},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := models.NewPushMessage(tc.variant)
			require.NoError(t, err)
			assert.Equal(t, tc.wantType, msg.Type)

			decoded, err := msg.Decode()
			require.NoError(t, err)
			assert.Equal(t, tc.variant, decoded)
		})
	}
}

func TestPushMessageRejectsUnknownVariant(t *testing.T) {
	_, err := models.NewPushMessage(struct{ X int }{1})
	assert.Error(t, err)

	_, err = models.PushMessage{Type: "mystery"}.Decode()
	assert.Error(t, err)
}

func TestParseGameType(t *testing.T) {
	gt, err := models.ParseGameType("reflex")
	require.NoError(t, err)
	assert.Equal(t, models.GameTypeReflex, gt)

	_, err = models.ParseGameType("chess")
	assert.Error(t, err)
}

func TestNewMatchSessionStartsEmpty(t *testing.T) {
	sess, err := models.NewMatchSession(models.GameTypeReflex)
	require.NoError(t, err)
	assert.Equal(t, models.SessionEmpty, sess.State())
	assert.Equal(t, models.GameTypeReflex, sess.GameType)
}
