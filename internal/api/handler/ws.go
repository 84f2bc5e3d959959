package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"reflexduel/backend/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Game clients connect from arbitrary origins; tighten in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and registers it as the caller's
// push client. A reconnect for the same player id replaces the old socket.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	playerID, errMsg := h.playerIDFromRequest(c)
	if errMsg != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMsg})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := hub.NewWebSocketClient(playerID, conn, h.Hub, h.Log)
	if err := h.Hub.Register(c.Request.Context(), client); err != nil {
		// Hub already stopped (shutdown in progress) or the caller went
		// away mid-upgrade; there is nobody to push to.
		h.Log.Warn().Err(err).Str("player_id", playerID).Msg("push client registration refused")
		conn.Close()
		return
	}
	client.Run()
}
