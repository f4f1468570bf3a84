package chathub

import (
	"seogaeum/backend/internal/models"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// WebSocketClient streams one room's events over a WebSocket connection.
// The feed is one-way; inbound frames other than control frames are
// discarded.
type WebSocketClient struct {
	ID     string
	UserID string
	RoomID string
	Conn   *websocket.Conn
	Hub    *ManagerService
	Send   chan models.TradeEvent

	logger    *zap.Logger
	closeOnce sync.Once
}

func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, userID, roomID string, logger *zap.Logger) *WebSocketClient {
	return &WebSocketClient{
		ID:     uuid.New().String(),
		UserID: userID,
		RoomID: roomID,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan models.TradeEvent, sendBuffer),
		logger: logger,
	}
}

func (c *WebSocketClient) GetID() string                            { return c.ID }
func (c *WebSocketClient) GetUserID() string                        { return c.UserID }
func (c *WebSocketClient) GetRoomID() string                        { return c.RoomID }
func (c *WebSocketClient) GetSendChannel() chan<- models.TradeEvent { return c.Send }

func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes Send, which makes writePump say goodbye and close the
// connection.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}
