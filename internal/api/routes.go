package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/billiards/internal/api/handlers"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/middleware"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/config", handlers.GetConfig(cfg))

		// Table endpoints
		tables := v1.Group("/tables")
		{
			tables.POST("", handlers.CreateTable(db, rdb, cfg))
			tables.GET("/:token", handlers.GetTable())
			tables.GET("/:token/shots", handlers.GetTableShots(db))
			tables.GET("/:token/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleTableWebSocket(db, rdb, cfg))

			// Cue input needs the player token issued at creation
			player := tables.Group("/:token", middleware.RequireTableToken(cfg))
			{
				player.POST("/aim", handlers.AimTable())
				player.POST("/charge", handlers.ChargeTable())
				player.POST("/shoot", handlers.ShootTable())
				player.POST("/rack", handlers.RackTable())
			}
		}

		// Admin endpoints
		adminGroup := v1.Group("/admin")
		{
			adminGroup.POST("/login", handlers.AdminLogin(db, rdb, cfg))
			adminGroup.POST("/logout", handlers.AdminLogout(rdb))

			authed := adminGroup.Group("", handlers.AdminSessionMiddleware(rdb))
			{
				authed.GET("/me", handlers.AdminMe())
				authed.GET("/stats", handlers.GetAdminStats(db))
				authed.GET("/tables", handlers.GetAdminTables(db))
				authed.DELETE("/tables/:token", handlers.CloseAdminTable(db))
				authed.GET("/audit", handlers.GetAdminAuditLogs(db))
				authed.GET("/config", handlers.GetAdminRuntimeConfig(db, cfg))
				authed.PUT("/config/:key", handlers.UpdateAdminRuntimeConfig(db, cfg))
			}
		}
	}
}
