package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"reflexduel/backend/internal/models"
)

// pushChannelPrefix namespaces the per-player redis pub/sub channels that
// relay pushes to whichever node holds the player's connection.
const pushChannelPrefix = "push:"

func pushChannel(playerID string) string { return pushChannelPrefix + playerID }

// ErrHubStopped is returned for register/unregister attempts after the
// Run loop has exited.
var ErrHubStopped = errors.New("push hub stopped")

// Manager tracks active push clients and delivers point-to-point messages.
// Delivery is best-effort: a message for a player without a local
// connection is published on their redis channel for other nodes; if nobody
// holds the connection the message is dropped, never an error for the
// caller's primary operation.
//
// mu orders deliveries against client closure: sends happen under the read
// lock and a client is only ever closed under the write lock, after it has
// been removed from the registry. A push can therefore never land on a
// closed send channel.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	done         chan struct{}

	rdb *redis.Client
	log zerolog.Logger
}

func NewManager(rdb *redis.Client, log zerolog.Logger) *Manager {
	return &Manager{
		clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		done:         make(chan struct{}),
		rdb:          rdb,
		log:          log.With().Str("component", "hub").Logger(),
	}
}

// Run owns the client registry lifecycle and the pub/sub relay. Meant to
// run as a goroutine for the life of the process.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)

	pubsub := m.rdb.PSubscribe(ctx, pushChannelPrefix+"*")
	defer pubsub.Close()
	ch := pubsub.Channel()

	for {
		select {
		case client := <-m.RegisterCh:
			m.register(client)
		case client := <-m.UnregisterCh:
			m.unregister(client)
		case msg, ok := <-ch:
			if !ok {
				return
			}
			m.relay(msg)
		case <-ctx.Done():
			return
		}
	}
}

// Register hands a client to the Run loop without blocking past shutdown.
func (m *Manager) Register(ctx context.Context, client Client) error {
	select {
	case m.RegisterCh <- client:
		return nil
	case <-m.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unregister removes a client, safe to call after shutdown.
func (m *Manager) Unregister(client Client) {
	select {
	case m.UnregisterCh <- client:
	case <-m.done:
	}
}

// register seats the client, replacing any previous connection for the same
// player so a reconnect wins over a stale socket. The replaced client is
// closed under the write lock, after no delivery can still reach it.
func (m *Manager) register(client Client) {
	m.mu.Lock()
	prev, had := m.clients[client.GetPlayerID()]
	m.clients[client.GetPlayerID()] = client
	if had {
		prev.Close()
	}
	m.mu.Unlock()

	if had {
		m.log.Debug().Str("player_id", client.GetPlayerID()).Msg("replaced stale push client")
	}
	m.log.Info().Str("player_id", client.GetPlayerID()).Msg("push client registered")
}

func (m *Manager) unregister(client Client) {
	m.mu.Lock()
	current, ok := m.clients[client.GetPlayerID()]
	if ok && current == client {
		delete(m.clients, client.GetPlayerID())
		client.Close()
	}
	m.mu.Unlock()

	if ok && current == client {
		m.log.Info().Str("player_id", client.GetPlayerID()).Msg("push client unregistered")
	}
}

// relay delivers a message that arrived over redis from another node.
func (m *Manager) relay(msg *redis.Message) {
	playerID := strings.TrimPrefix(msg.Channel, pushChannelPrefix)

	var push models.PushMessage
	if err := json.Unmarshal([]byte(msg.Payload), &push); err != nil {
		m.log.Error().Err(err).Str("channel", msg.Channel).Msg("bad push payload from pub/sub")
		return
	}
	if err := m.deliverLocal(playerID, push); err != nil {
		m.log.Debug().Str("player_id", playerID).Msg("relayed push had no local client")
	}
}

// SendToPlayer enqueues a push for the player. If the player's connection
// lives on this node it is delivered directly; otherwise the envelope is
// published on the player's channel for the node that has it.
func (m *Manager) SendToPlayer(ctx context.Context, playerID string, msg models.PushMessage) error {
	if err := m.deliverLocal(playerID, msg); err == nil {
		return nil
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode push for %s: %w", playerID, err)
	}
	if err := m.rdb.Publish(ctx, pushChannel(playerID), raw).Err(); err != nil {
		return fmt.Errorf("publish push for %s: %w", playerID, err)
	}
	return nil
}

// deliverLocal enqueues on the client's channel while still holding the
// read lock, so closure (which needs the write lock) cannot interleave.
// The send itself is non-blocking, so the lock is held only briefly.
func (m *Manager) deliverLocal(playerID string, msg models.PushMessage) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, ok := m.clients[playerID]
	if !ok {
		return fmt.Errorf("no local client for %s", playerID)
	}

	select {
	case client.GetSendChannel() <- msg:
		return nil
	default:
		// Slow consumer: drop the connection rather than block dispatch.
		// Handed off asynchronously because deliverLocal can run on the
		// same goroutine that drains UnregisterCh.
		m.log.Warn().Str("player_id", playerID).Msg("push client send buffer full, dropping client")
		go m.Unregister(client)
		return fmt.Errorf("push client %s not accepting messages", playerID)
	}
}

// HasClient reports whether this node holds a live connection for the player.
func (m *Manager) HasClient(playerID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.clients[playerID]
	return ok
}
