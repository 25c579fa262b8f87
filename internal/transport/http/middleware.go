package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAPIKey rejects requests whose x-api-key header does not match the
// configured key. An empty configured key disables the check, which keeps
// local development broker-and-key free.
func RequireAPIKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		if c.GetHeader("x-api-key") != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}
