package handler

import (
	"net/http"
	"seogaeum/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The mobile app and the web client are served from different origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket streams the room's events to one of its participants.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	roomID := c.Param("id")
	userID := currentUser(c)
	if err := h.Trades.Authorize(c.Request.Context(), roomID, userID); err != nil {
		h.respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, userID, roomID, h.logger)
	if !h.Hub.Register(client) {
		conn.Close()
		return
	}
	client.Run()
}
