package hub_test

import (
	"sync"

	"reflexduel/backend/internal/models"
)

// mockClient is a test double for the hub.Client interface.
type mockClient struct {
	playerID string
	send     chan models.PushMessage

	mu     sync.Mutex
	closed bool
}

func newMockClient(playerID string, buffer int) *mockClient {
	return &mockClient{
		playerID: playerID,
		send:     make(chan models.PushMessage, buffer),
	}
}

func (c *mockClient) GetPlayerID() string                       { return c.playerID }
func (c *mockClient) GetSendChannel() chan<- models.PushMessage { return c.send }
func (c *mockClient) Run()                                      {}

func (c *mockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *mockClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *mockClient) received() []models.PushMessage {
	var out []models.PushMessage
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

// closingClient actually closes its send channel on Close, the way the
// websocket client does, so tests cover delivery racing connection teardown.
type closingClient struct {
	playerID string
	send     chan models.PushMessage
	once     sync.Once
}

func newClosingClient(playerID string, buffer int) *closingClient {
	return &closingClient{
		playerID: playerID,
		send:     make(chan models.PushMessage, buffer),
	}
}

func (c *closingClient) GetPlayerID() string                       { return c.playerID }
func (c *closingClient) GetSendChannel() chan<- models.PushMessage { return c.send }
func (c *closingClient) Run()                                      {}
func (c *closingClient) Close()                                    { c.once.Do(func() { close(c.send) }) }
