package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/billiards/internal/admin"
)

// GetAdminAuditLogs returns paginated audit log entries
func GetAdminAuditLogs(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone := c.DefaultQuery("admin_phone", "")
		limit, offset := pagination(c)

		// viewing the audit log is not itself audited
		logs, total, err := admin.GetAdminAuditLogs(db, phone, limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch audit logs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"logs": logs, "total": total, "limit": limit, "offset": offset})
	}
}
