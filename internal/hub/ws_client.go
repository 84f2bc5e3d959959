package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"reflexduel/backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	// SendBufferSize is the per-client queue of undelivered pushes.
	SendBufferSize = 256
)

// WebSocketClient implements hub.Client over a gorilla websocket. The push
// channel is one-way: the server writes game events, the read pump only
// watches for pings and disconnects.
type WebSocketClient struct {
	PlayerID string
	Conn     *websocket.Conn
	Hub      *Manager
	SendCh   chan models.PushMessage
	Log      zerolog.Logger

	closeOnce sync.Once
}

func NewWebSocketClient(playerID string, conn *websocket.Conn, m *Manager, log zerolog.Logger) *WebSocketClient {
	return &WebSocketClient{
		PlayerID: playerID,
		Conn:     conn,
		Hub:      m,
		SendCh:   make(chan models.PushMessage, SendBufferSize),
		Log:      log.With().Str("component", "ws_client").Str("player_id", playerID).Logger(),
	}
}

func (c *WebSocketClient) GetPlayerID() string                       { return c.PlayerID }
func (c *WebSocketClient) GetSendChannel() chan<- models.PushMessage { return c.SendCh }

func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close ends the write pump; the read pump ends when the connection drops.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.SendCh) })
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Game operations arrive over HTTP; inbound frames are only
		// keepalive traffic and are discarded.
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.SendCh:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				c.Log.Error().Err(err).Msg("failed to encode push message")
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
