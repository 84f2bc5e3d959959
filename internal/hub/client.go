package hub

import "reflexduel/backend/internal/models"

// Client is one player's active push connection. It abstracts the
// underlying transport so the Manager can treat every connection uniformly.
type Client interface {
	// GetPlayerID returns the stable player id this connection belongs to.
	GetPlayerID() string

	// GetSendChannel returns the channel the Manager enqueues push
	// messages on for this client.
	GetSendChannel() chan<- models.PushMessage

	// Run starts the connection's read and write pumps.
	Run()
	// Close shuts the connection down and releases its channels.
	Close()
}
