package chathub_test

import (
	"seogaeum/backend/internal/models"
	"sync"
)

type MockClient struct {
	id          string
	userID      string
	roomID      string
	RecvChannel chan models.TradeEvent

	mu     sync.Mutex
	closed bool
}

func newMockClient(id, roomID string, buffer int) *MockClient {
	return &MockClient{
		id:          id,
		userID:      "user_" + id,
		roomID:      roomID,
		RecvChannel: make(chan models.TradeEvent, buffer),
	}
}

func (c *MockClient) GetID() string {
	return c.id
}

func (c *MockClient) GetUserID() string {
	return c.userID
}

func (c *MockClient) GetRoomID() string {
	return c.roomID
}

func (c *MockClient) GetSendChannel() chan<- models.TradeEvent {
	return c.RecvChannel
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
