package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reflexduel/backend/internal/models"
)

type submitRequest struct {
	Session        string `json:"session" binding:"required"`
	ReactionTimeMs int    `json:"reactionTimeMs" binding:"required"`
	PlayerName     string `json:"playerName"`
}

type submitResponse struct {
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	Winner       string `json:"winner,omitempty"`
	YourTime     int    `json:"yourTime"`
	OpponentTime int    `json:"opponentTime"`
	GameOver     bool   `json:"gameOver"`
}

// SubmitReflexResult records the caller's reaction time. The body carries
// the caller's view of the outcome; the opponent learns theirs over the
// push channel (gameResult once resolved, reflexScoreUpdate before that).
func (h *Handler) SubmitReflexResult(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ReactionTimeMs <= 0 {
		c.JSON(http.StatusOK, submitResponse{Error: "creationError"})
		return
	}

	caller := models.PlayerProfile{ID: callerID(c), DisplayName: req.PlayerName}
	outcome, err := h.Coordinator.SubmitResult(c.Request.Context(), caller, req.Session, req.ReactionTimeMs)
	if err != nil {
		h.Log.Warn().Err(err).Str("player_id", caller.ID).Str("session", req.Session).Msg("submit result failed")
		c.JSON(http.StatusOK, submitResponse{Error: errorCategory(err)})
		return
	}

	c.JSON(http.StatusOK, submitResponse{
		Success:      true,
		Winner:       outcome.Winner,
		YourTime:     outcome.YourTime,
		OpponentTime: outcome.OpponentTime,
		GameOver:     outcome.GameOver,
	})
}
