// Package handler exposes the trade, book and library APIs over gin.
package handler

import (
	"context"
	"net/http"
	"seogaeum/backend/internal/books"
	"seogaeum/backend/internal/chathub"
	"seogaeum/backend/internal/library"
	"seogaeum/backend/internal/models"
	"seogaeum/backend/internal/trade"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// StatusAggregator answers library availability questions for a book.
type StatusAggregator interface {
	GetStatus(ctx context.Context, isbn string, userLat, userLon *float64, favoriteNames string) ([]library.LibraryStatus, error)
}

// UserLookup loads the authenticated user's profile.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// LinkIssuer hands out codes that link a Telegram chat to the caller.
type LinkIssuer interface {
	Issue(ctx context.Context, userID string) (*models.TelegramLink, error)
}

// Handler holds the services behind the HTTP API.
type Handler struct {
	Trades    *trade.Service
	Books     *books.Service
	Libraries StatusAggregator
	Users     UserLookup
	Links     LinkIssuer
	Hub       *chathub.ManagerService

	jwtSecret []byte
	logger    *zap.Logger
}

func NewHandler(trades *trade.Service, bookSvc *books.Service, libs StatusAggregator, users UserLookup,
	links LinkIssuer, hub *chathub.ManagerService, jwtSecret string, logger *zap.Logger) *Handler {
	useJSONFieldNames()
	return &Handler{
		Trades:    trades,
		Books:     bookSvc,
		Libraries: libs,
		Users:     users,
		Links:     links,
		Hub:       hub,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", h.AuthMiddleware())

	trades := api.Group("/trades")
	trades.POST("", h.CreateRoom)
	trades.GET("", h.ListRooms)
	trades.GET("/:id", h.GetRoom)
	trades.POST("/:id/approve", h.ApproveRoom)
	trades.POST("/:id/requests", h.ProposeTransition)
	trades.POST("/:id/requests/:requestId", h.ResolveRequest)
	trades.POST("/:id/receipt", h.CompleteReceipt)
	trades.PUT("/:id/location", h.UpdateLocation)
	trades.POST("/:id/messages", h.PostMessage)
	trades.GET("/:id/messages", h.ListMessages)
	trades.GET("/:id/ws", h.ServeWebSocket)

	api.POST("/telegram/link", h.IssueTelegramLink)

	bks := api.Group("/books/:isbn", h.requireISBN)
	bks.GET("/libraries", h.LibraryStatus)
	bks.GET("/seller", h.GetSeller)
	bks.POST("/ownership", h.RegisterOwnership)
	bks.DELETE("/ownership", h.RemoveOwnership)
	bks.POST("/wish", h.ToggleWish)
	bks.GET("/messages", h.ListBookMessages)
	bks.POST("/messages", h.PostBookMessage)
}
