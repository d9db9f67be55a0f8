package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/auth"
	"github.com/playmatatu/billiards/internal/config"
)

// BearerToken extracts the token from an Authorization header, falling
// back to the ?token= query parameter used by websocket clients.
func BearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}

// RequireTableToken only lets through requests carrying a player token
// issued for the table named by the :token path parameter.
func RequireTableToken(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		signed := BearerToken(c)
		if signed == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing player token"})
			return
		}

		tableToken := c.Param("token")
		if err := auth.AuthorizeTable(cfg.JWTSecret, signed, tableToken); err != nil {
			status := http.StatusUnauthorized
			if err == auth.ErrWrongTable {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}

		c.Set("table_token", tableToken)
		c.Next()
	}
}
