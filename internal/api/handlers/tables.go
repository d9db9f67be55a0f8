package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/billiards/internal/auth"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/models"
	"github.com/playmatatu/billiards/internal/ws"
	"github.com/redis/go-redis/v9"
)

// CreateTable racks a new table and hands back a player token for it
func CreateTable(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if game.Manager == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Tables unavailable"})
			return
		}

		t, err := game.Manager.CreateTable()
		if err != nil {
			log.Printf("[TABLE] Failed to create table: %v", err)
			respondTableError(c, err)
			return
		}

		ttl := time.Duration(cfg.TableTokenTTLMinutes) * time.Minute
		playerToken, expiresAt, err := auth.IssueTableToken(cfg.JWTSecret, t.Token, ttl)
		if err != nil {
			log.Printf("[TABLE] Failed to issue player token for %s: %v", t.Token, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue player token"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"table":        t.Snapshot(),
			"player_token": playerToken,
			"expires_at":   expiresAt.Format(time.RFC3339),
			"ws_path":      "/api/v1/tables/" + t.Token + "/ws",
		})
	}
}

// GetTable returns the current snapshot of a table
func GetTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := loadTable(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"table": t.Snapshot()})
	}
}

// AimTable points the cue by angle, or at a table position when x/z are given
func AimTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Angle *float64 `json:"angle"`
			X     *float64 `json:"x"`
			Z     *float64 `json:"z"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		t, ok := loadTable(c)
		if !ok {
			return
		}

		var err error
		switch {
		case req.Angle != nil:
			err = t.Aim(*req.Angle)
		case req.X != nil && req.Z != nil:
			err = t.AimAt(*req.X, *req.Z)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "angle or x/z is required"})
			return
		}
		if err != nil {
			respondTableError(c, err)
			return
		}

		cueChanged(t)
		c.JSON(http.StatusOK, gin.H{"table": t.Snapshot()})
	}
}

// ChargeTable sets how far the cue is pulled back, either as an offset or
// from a pointer drag in pixels
func ChargeTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Offset *float64 `json:"offset"`
			DX     *float64 `json:"dx"`
			DY     *float64 `json:"dy"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		t, ok := loadTable(c)
		if !ok {
			return
		}

		var err error
		switch {
		case req.Offset != nil:
			err = t.Charge(*req.Offset)
		case req.DX != nil && req.DY != nil:
			err = t.ChargeFromDrag(*req.DX, *req.DY)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset or dx/dy is required"})
			return
		}
		if err != nil {
			respondTableError(c, err)
			return
		}

		cueChanged(t)
		c.JSON(http.StatusOK, gin.H{"table": t.Snapshot()})
	}
}

// ShootTable releases the cue. The simulator plays the shot out and
// streams frames to the table's websocket room.
func ShootTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Angle  *float64 `json:"angle" binding:"required"`
			Offset *float64 `json:"offset" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "angle and offset are required"})
			return
		}

		t, ok := loadTable(c)
		if !ok {
			return
		}

		shot, err := t.Shoot(*req.Angle, *req.Offset)
		if err != nil {
			respondTableError(c, err)
			return
		}
		game.Manager.RecordShot(t, shot)

		shotNumber := t.Snapshot().ShotNumber
		ws.TableHub.BroadcastToTable(t.Token, gin.H{
			"type":        "shot",
			"shot":        shot,
			"shot_number": shotNumber,
		})

		c.JSON(http.StatusOK, gin.H{"shot": shot, "shot_number": shotNumber})
	}
}

// RackTable puts every ball back in the opening layout
func RackTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := loadTable(c)
		if !ok {
			return
		}
		if err := t.Rack(); err != nil {
			respondTableError(c, err)
			return
		}

		game.Manager.TouchTable(t)
		if err := game.Manager.SaveSnapshot(t); err != nil {
			log.Printf("[TABLE] Failed to save snapshot for %s: %v", t.Token, err)
		}

		snap := t.Snapshot()
		ws.TableHub.BroadcastToTable(t.Token, gin.H{"type": "table_state", "table": snap})
		c.JSON(http.StatusOK, gin.H{"table": snap})
	}
}

// GetTableShots returns the recorded shot history of a table
func GetTableShots(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Shot history unavailable"})
			return
		}

		limit, offset := pagination(c)
		shots := []models.Shot{}
		err := db.Select(&shots, `
			SELECT s.id, s.session_id, s.shot_number, s.angle, s.cue_offset, s.power, s.velocity_x, s.velocity_z, s.created_at
			FROM shots s
			JOIN table_sessions ts ON ts.id = s.session_id
			WHERE ts.table_token = $1
			ORDER BY s.id
			LIMIT $2 OFFSET $3
		`, token, limit, offset)
		if err != nil {
			log.Printf("[DB] Failed to fetch shots for %s: %v", token, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shots"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"shots": shots, "limit": limit, "offset": offset})
	}
}

// cueChanged lets spectators follow the cue while the player aims
func cueChanged(t *game.TableSession) {
	game.Manager.TouchTable(t)
	ws.TableHub.BroadcastToTable(t.Token, gin.H{"type": "cue_update", "table": t.Snapshot()})
}
