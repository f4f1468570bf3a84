package handler

import (
	"errors"
	"net/http"
	"reflect"
	"seogaeum/backend/internal/trade"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var jsonFieldNames sync.Once

// useJSONFieldNames makes validation errors name fields as clients send
// them.
func useJSONFieldNames() {
	jsonFieldNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

var kindStatus = map[trade.Kind]int{
	trade.KindValidation:    http.StatusBadRequest,
	trade.KindAuthorization: http.StatusForbidden,
	trade.KindConflict:      http.StatusConflict,
	trade.KindNotFound:      http.StatusNotFound,
}

var kindCode = map[trade.Kind]string{
	trade.KindValidation:    "validation",
	trade.KindAuthorization: "forbidden",
	trade.KindConflict:      "conflict",
	trade.KindNotFound:      "not_found",
}

// respondError writes err with the status of its kind. Unknown errors are
// logged and hidden behind a 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	kind := trade.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("user_id", currentUser(c)),
			zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": kindCode[kind]})
}

// respondBindError reports a malformed request body, naming each invalid
// field and the rule it broke.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request", "code": "validation", "fields": fields})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed request body", "code": "validation"})
}
