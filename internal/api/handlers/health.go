package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/game"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status
func HealthCheck(c *gin.Context) {
	tables := 0
	if game.Manager != nil {
		tables = game.Manager.GetActiveTableCount()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"service":       "billiards-api",
		"version":       version,
		"uptime":        time.Since(startTime).String(),
		"active_tables": tables,
	})
}
