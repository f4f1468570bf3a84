package handler

import (
	"errors"
	"math"
	"net/http"
	"seogaeum/backend/internal/models"
	"seogaeum/backend/internal/storage"
	"strconv"

	"github.com/gin-gonic/gin"
)

// LibraryStatus lists up to five libraries for the book: the caller's
// favorites first, then the nearest ones. lat and lon query parameters
// override the coordinates stored in the caller's profile.
func (h *Handler) LibraryStatus(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.Users.GetUserByID(ctx, currentUser(c))
	if errors.Is(err, storage.ErrNotFound) {
		user = &models.User{ID: currentUser(c)}
	} else if err != nil {
		h.respondError(c, err)
		return
	}

	lat, latOK := coordinateQuery(c, "lat", 90)
	lon, lonOK := coordinateQuery(c, "lon", 180)
	if !latOK || !lonOK || (lat == nil) != (lon == nil) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "lat and lon must be given together as degrees within range",
			"code":  "validation",
		})
		return
	}
	if lat == nil {
		lat, lon = user.Latitude, user.Longitude
	}

	statuses, err := h.Libraries.GetStatus(ctx, c.Param("isbn"), lat, lon, user.FavoriteLibraries)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isbn": c.Param("isbn"), "libraries": statuses})
}

// coordinateQuery parses an optional coordinate query parameter. Values
// that are not finite or lie outside [-limit, limit] are rejected.
func coordinateQuery(c *gin.Context, name string, limit float64) (*float64, bool) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.Abs(v) > limit {
		return nil, false
	}
	return &v, true
}
