// Package params parses query string values for handlers.
package params

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Int parses key as an integer clamped to [min, max]. Missing or malformed
// values yield def.
func Int(c *gin.Context, key string, def, min, max int) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// String returns the trimmed query value.
func String(c *gin.Context, key string) string {
	return strings.TrimSpace(c.Query(key))
}
