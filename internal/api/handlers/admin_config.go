package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/billiards/internal/admin"
	"github.com/playmatatu/billiards/internal/config"
)

// effectiveSettings is what the running server uses right now, after
// environment defaults and runtime overrides.
func effectiveSettings(cfg *config.Config) gin.H {
	return gin.H{
		"max_tables":                cfg.TableLimit(),
		"table_idle_seconds":        int(cfg.TableIdleTimeout().Seconds()),
		"idle_worker_poll_interval": int(cfg.IdlePollInterval().Seconds()),
		"snapshot_ttl_minutes":      int(cfg.SnapshotTTL().Minutes()),
	}
}

// GetAdminRuntimeConfig returns the stored overrides and the values in effect
func GetAdminRuntimeConfig(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		configs, err := admin.GetAllRuntimeConfig(db)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch runtime config: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch config"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"configs": configs, "effective": effectiveSettings(cfg)})
	}
}

// UpdateAdminRuntimeConfig stores one override and applies it to the
// running config. The idle worker and table manager read the new value on
// their next poll or call.
func UpdateAdminRuntimeConfig(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminPhone := c.GetString("admin_phone")
		key := c.Param("key")
		route := "/api/v1/admin/config/" + key

		var req struct {
			Value string `json:"value" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Value is required"})
			return
		}
		details := map[string]interface{}{"key": key, "value": req.Value}

		if err := admin.UpdateRuntimeConfigValue(db, key, req.Value, adminPhone); err != nil {
			log.Printf("[ADMIN] Failed to update config %s: %v", key, err)
			admin.LogAdminAction(db, adminPhone, c.ClientIP(), route, "update_config", details, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := admin.ApplyRuntimeConfigToConfig(db, cfg); err != nil {
			log.Printf("[ADMIN] Override %s stored but not applied: %v", key, err)
			admin.LogAdminAction(db, adminPhone, c.ClientIP(), route, "update_config", details, false)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Override stored but not applied"})
			return
		}

		effective := effectiveSettings(cfg)
		log.Printf("[ADMIN] %s set %s=%s; now in effect: %v", adminPhone, key, req.Value, effective)
		admin.LogAdminAction(db, adminPhone, c.ClientIP(), route, "update_config", details, true)
		c.JSON(http.StatusOK, gin.H{"ok": true, "effective": effective})
	}
}
