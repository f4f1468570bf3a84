package handler

import (
	"net/http"
	"seogaeum/backend/internal/models"
	"seogaeum/backend/internal/trade"

	"github.com/gin-gonic/gin"
)

type createRoomRequest struct {
	ISBN string `json:"isbn" binding:"required,len=13,numeric"`
}

type proposeRequest struct {
	TargetStatus models.TradeStatus `json:"target_status" binding:"required"`
}

type resolveRequest struct {
	Decision trade.Decision `json:"decision" binding:"required,oneof=accept reject"`
}

type locationRequest struct {
	Location     *string `json:"location" binding:"omitempty,max=200"`
	LockerNumber *string `json:"locker_number" binding:"omitempty,max=20"`
}

type messageRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}

// CreateRoom opens (or reopens) the caller's trade room for a book.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	room, created, err := h.Trades.GetOrCreateRoom(c.Request.Context(), req.ISBN, currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, room)
}

func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.Trades.ListRoomsForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *Handler) GetRoom(c *gin.Context) {
	detail, err := h.Trades.GetRoom(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) ApproveRoom(c *gin.Context) {
	room, err := h.Trades.SellerApprove(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handler) ProposeTransition(c *gin.Context) {
	var req proposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	scr, err := h.Trades.ProposeTransition(c.Request.Context(), c.Param("id"), currentUser(c), req.TargetStatus)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scr)
}

func (h *Handler) ResolveRequest(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	scr, err := h.Trades.ResolveRequest(c.Request.Context(), c.Param("id"), c.Param("requestId"), currentUser(c), req.Decision)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scr)
}

func (h *Handler) CompleteReceipt(c *gin.Context) {
	room, err := h.Trades.BuyerCompleteReceipt(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handler) UpdateLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	room, err := h.Trades.UpdateLocation(c.Request.Context(), c.Param("id"), currentUser(c), req.Location, req.LockerNumber)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handler) PostMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	msg, err := h.Trades.PostMessage(c.Request.Context(), c.Param("id"), currentUser(c), req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.Trades.ListMessages(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
