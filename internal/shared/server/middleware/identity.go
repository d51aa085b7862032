package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pathpilot-backend/internal/shared/server/respond"
)

const (
	userIDKey     = "userId"
	userHeader    = "X-User-Id"
	resourceIDKey = "resourceId"
	transitionKey = "statusTransition"
)

// FixedUser stores the configured owner on every request. There is no
// login; in dev and local an X-User-Id header may select another owner.
func FixedUser(defaultID int64, env string) gin.HandlerFunc {
	allowOverride := env == "dev" || env == "local"
	return func(c *gin.Context) {
		id := defaultID
		if raw := strings.TrimSpace(c.GetHeader(userHeader)); raw != "" && allowOverride {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed <= 0 {
				respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "X-User-Id must be a positive integer", nil)
				return
			}
			id = parsed
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// UserIDFromContext fetches the owner stored by FixedUser.
func UserIDFromContext(c *gin.Context) int64 {
	if c == nil {
		return 0
	}
	return c.GetInt64(userIDKey)
}

// SetResource records the artifact a request touched for the access log.
func SetResource(c *gin.Context, id string) {
	c.Set(resourceIDKey, id)
}

// SetTransition records a status change for the access log.
func SetTransition(c *gin.Context, from, to string) {
	c.Set(transitionKey, from+"->"+to)
}
