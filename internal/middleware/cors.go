package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/config"
)

const productionOrigin = "https://billiards.playmatatu.com"

// CORSMiddleware lets the table client call the API with the admin cookie.
// Development accepts any localhost port so renderers can run side by side.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	log.Printf("[CORS] Environment: %s, FrontendURL: %s", cfg.Environment, cfg.FrontendURL)
	if cfg.Environment != "development" {
		log.Printf("[CORS] Production allowed origins: %v", productionOrigins(cfg))
	}

	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return originAllowed(cfg, origin)
		},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Authorization",
			"X-Table-Token", "Accept", "Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// WebSocketCORSCheck rejects websocket upgrades from unknown origins.
// Plain HTTP requests pass through untouched.
func WebSocketCORSCheck(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.EqualFold(c.GetHeader("Connection"), "upgrade") ||
			!strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "WebSocket origin required"})
			return
		}
		if !originAllowed(cfg, origin) {
			log.Printf("[CORS] Rejected websocket origin %s", origin)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "WebSocket origin not allowed"})
			return
		}

		c.Next()
	}
}

func originAllowed(cfg *config.Config, origin string) bool {
	if cfg.Environment == "development" {
		return strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:")
	}
	for _, allowed := range productionOrigins(cfg) {
		if origin == allowed {
			return true
		}
	}
	return false
}

func productionOrigins(cfg *config.Config) []string {
	origins := []string{productionOrigin}
	if cfg.FrontendURL != "" && cfg.FrontendURL != productionOrigin {
		origins = append(origins, cfg.FrontendURL)
	}
	return origins
}
