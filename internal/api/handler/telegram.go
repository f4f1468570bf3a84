package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IssueTelegramLink returns a single-use code the caller sends to the bot
// as "/start <code>" to receive trade notifications in Telegram.
func (h *Handler) IssueTelegramLink(c *gin.Context) {
	link, err := h.Links.Issue(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}
