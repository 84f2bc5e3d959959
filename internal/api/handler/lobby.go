package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reflexduel/backend/internal/models"
)

type hostRequest struct {
	GameType string `json:"gameType" binding:"required"`
	UserName string `json:"userName" binding:"required"`
}

type joinRequest struct {
	LobbyCode string `json:"lobbyCode" binding:"required"`
	UserName  string `json:"userName" binding:"required"`
}

type globalRequest struct {
	UserName string `json:"userName" binding:"required"`
}

type leaveRequest struct {
	LobbyID string `json:"lobbyId" binding:"required"`
}

// HostLobby creates a two-seat duel lobby with the caller as host.
func (h *Handler) HostLobby(c *gin.Context) {
	var req hostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, lobbyResponse{Error: "creationError"})
		return
	}
	gt, err := models.ParseGameType(req.GameType)
	if err != nil {
		c.JSON(http.StatusOK, lobbyResponse{Error: "creationError"})
		return
	}

	caller := models.PlayerProfile{ID: callerID(c), DisplayName: req.UserName}
	info, err := h.Coordinator.Host(c.Request.Context(), caller, gt)
	if err != nil {
		h.Log.Error().Err(err).Str("player_id", caller.ID).Msg("host lobby failed")
		c.JSON(http.StatusOK, lobbyFailure(err))
		return
	}
	c.JSON(http.StatusOK, lobbySuccess(info))
}

// JoinLobby seats the caller in the lobby addressed by its share code.
func (h *Handler) JoinLobby(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, lobbyResponse{Error: "creationError"})
		return
	}

	caller := models.PlayerProfile{ID: callerID(c), DisplayName: req.UserName}
	info, err := h.Coordinator.JoinByCode(c.Request.Context(), caller, req.LobbyCode)
	if err != nil {
		h.Log.Warn().Err(err).Str("player_id", caller.ID).Str("code", req.LobbyCode).Msg("join lobby failed")
		c.JSON(http.StatusOK, lobbyFailure(err))
		return
	}
	c.JSON(http.StatusOK, lobbySuccess(info))
}

// QuickMatch joins the oldest compatible open lobby or creates one to wait in.
func (h *Handler) QuickMatch(c *gin.Context) {
	var req hostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, lobbyResponse{Error: "creationError"})
		return
	}
	gt, err := models.ParseGameType(req.GameType)
	if err != nil {
		c.JSON(http.StatusOK, lobbyResponse{Error: "creationError"})
		return
	}

	caller := models.PlayerProfile{ID: callerID(c), DisplayName: req.UserName}
	info, err := h.Coordinator.QuickMatch(c.Request.Context(), caller, gt)
	if err != nil {
		h.Log.Error().Err(err).Str("player_id", caller.ID).Msg("quick match failed")
		c.JSON(http.StatusOK, lobbyFailure(err))
		return
	}
	c.JSON(http.StatusOK, lobbySuccess(info))
}

// JoinGlobalLobby seats the caller in the shared waiting room.
func (h *Handler) JoinGlobalLobby(c *gin.Context) {
	var req globalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, lobbyResponse{Error: "creationError"})
		return
	}

	caller := models.PlayerProfile{ID: callerID(c), DisplayName: req.UserName}
	info, err := h.Coordinator.JoinGlobal(c.Request.Context(), caller)
	if err != nil {
		h.Log.Error().Err(err).Str("player_id", caller.ID).Msg("join global lobby failed")
		c.JSON(http.StatusOK, lobbyFailure(err))
		return
	}
	c.JSON(http.StatusOK, lobbySuccess(info))
}

// LeaveLobby frees the caller's seat.
func (h *Handler) LeaveLobby(c *gin.Context) {
	var req leaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "creationError"})
		return
	}

	if err := h.Coordinator.Leave(c.Request.Context(), req.LobbyID, callerID(c)); err != nil {
		h.Log.Error().Err(err).Str("lobby_id", req.LobbyID).Msg("leave lobby failed")
		c.JSON(http.StatusOK, gin.H{"success": false, "error": errorCategory(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
