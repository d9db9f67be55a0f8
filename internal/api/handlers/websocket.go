package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/ws"
	"github.com/redis/go-redis/v9"
)

// HandleTableWebSocket streams frames for one table
func HandleTableWebSocket(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return ws.HandleWebSocket(cfg)
}
