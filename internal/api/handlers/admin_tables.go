package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/billiards/internal/admin"
	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/ws"
)

// GetAdminTables lists the tables live on this instance
func GetAdminTables(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		type tableRow struct {
			Token      string `json:"token"`
			ShotNumber int    `json:"shot_number"`
			Moving     bool   `json:"moving"`
			OnTable    int    `json:"balls_on_table"`
			Watchers   int    `json:"watchers"`
			IdleSince  string `json:"idle_since"`
		}

		rows := []tableRow{}
		if game.Manager != nil {
			for _, t := range game.Manager.ActiveTables() {
				snap := t.Snapshot()
				onTable := 0
				for _, b := range snap.Balls {
					if b.Visible {
						onTable++
					}
				}
				rows = append(rows, tableRow{
					Token:      snap.Token,
					ShotNumber: snap.ShotNumber,
					Moving:     snap.Moving,
					OnTable:    onTable,
					Watchers:   ws.TableHub.RoomSize(snap.Token),
					IdleSince:  t.IdleSince().UTC().Format(time.RFC3339),
				})
			}
		}

		c.JSON(http.StatusOK, gin.H{"tables": rows, "total": len(rows)})
	}
}

// CloseAdminTable force-closes a table and tells its watchers
func CloseAdminTable(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminPhone := c.GetString("admin_phone")
		token := c.Param("token")
		route := "/api/v1/admin/tables/" + token

		if game.Manager == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Tables unavailable"})
			return
		}

		if err := game.Manager.CloseTable(token, "admin"); err != nil {
			log.Printf("[ADMIN] Failed to close table %s: %v", token, err)
			if db != nil {
				admin.LogAdminAction(db, adminPhone, c.ClientIP(), route, "close_table", map[string]interface{}{"token": token}, false)
			}
			respondTableError(c, err)
			return
		}

		ws.TableHub.TableClosed(token, "admin")
		if db != nil {
			admin.LogAdminAction(db, adminPhone, c.ClientIP(), route, "close_table", map[string]interface{}{"token": token}, true)
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// GetAdminStats returns table counts across the persistent history
func GetAdminStats(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := gin.H{}
		if game.Manager != nil {
			stats["live_tables"] = game.Manager.GetActiveTableCount()
		}

		if db != nil {
			var tableStats struct {
				TotalTables  int `db:"total_tables"`
				ClosedTables int `db:"closed_tables"`
				TotalShots   int `db:"total_shots"`
			}
			err := db.Get(&tableStats, `
				SELECT
					COUNT(*) as total_tables,
					COALESCE(SUM(CASE WHEN status = 'CLOSED' THEN 1 ELSE 0 END), 0) as closed_tables,
					COALESCE(SUM(shot_count), 0) as total_shots
				FROM table_sessions
			`)
			if err != nil {
				log.Printf("[ADMIN] Failed to fetch table stats: %v", err)
			} else {
				stats["total_tables"] = tableStats.TotalTables
				stats["closed_tables"] = tableStats.ClosedTables
				stats["total_shots"] = tableStats.TotalShots
			}

			var pocketed int
			if err := db.Get(&pocketed, `SELECT COUNT(*) FROM table_events WHERE event_type = $1`, string(game.EventPocket)); err != nil {
				log.Printf("[ADMIN] Failed to fetch pocket count: %v", err)
			} else {
				stats["balls_pocketed"] = pocketed
			}
		}

		c.JSON(http.StatusOK, stats)
	}
}
