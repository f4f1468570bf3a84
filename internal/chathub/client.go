package chathub

import "seogaeum/backend/internal/models"

// Client is one live connection watching a trade room.
type Client interface {
	// GetID identifies the connection. A user may hold several.
	GetID() string
	GetUserID() string
	// GetRoomID returns the room whose events the client receives.
	GetRoomID() string

	// GetSendChannel returns the channel the hub pushes room events into.
	GetSendChannel() chan<- models.TradeEvent

	// Run starts the client's read and write pumps.
	Run()
	// Close stops the write pump. It is safe to call more than once.
	Close()
}
