package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var paramValidator = validator.New()

type ownershipRequest struct {
	Price decimal.Decimal `json:"price"`
}

type bookMessageRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}

// requireISBN rejects paths whose :isbn is not a 13-digit ISBN.
func (h *Handler) requireISBN(c *gin.Context) {
	err := paramValidator.Var(c.Param("isbn"), "len=13,numeric")
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  "invalid request",
			"code":   "validation",
			"fields": gin.H{"isbn": verrs[0].Tag()},
		})
		return
	}
	c.Next()
}

func (h *Handler) GetSeller(c *gin.Context) {
	o, err := h.Books.FindSeller(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) RegisterOwnership(c *gin.Context) {
	var req ownershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.Books.RegisterOwnership(c.Request.Context(), c.Param("isbn"), currentUser(c), req.Price)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) RemoveOwnership(c *gin.Context) {
	if err := h.Books.RemoveOwnership(c.Request.Context(), c.Param("isbn"), currentUser(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ToggleWish(c *gin.Context) {
	wished, err := h.Books.ToggleWish(c.Request.Context(), c.Param("isbn"), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wished": wished})
}

func (h *Handler) ListBookMessages(c *gin.Context) {
	msgs, err := h.Books.ListMessages(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handler) PostBookMessage(c *gin.Context) {
	var req bookMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	msg, err := h.Books.PostMessage(c.Request.Context(), c.Param("isbn"), currentUser(c), req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
