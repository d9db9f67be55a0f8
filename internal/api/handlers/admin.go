package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/billiards/internal/admin"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/redis/go-redis/v9"
)

const adminSessionTTL = 4 * time.Hour
const adminCookieName = "admin_session"

// AdminLogin validates phone + admin token and creates a session cookie
func AdminLogin(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Phone string `json:"phone" binding:"required"`
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if db == nil || rdb == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Admin login unavailable"})
			return
		}

		phone := normalizePhone(req.Phone)
		if phone == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
			return
		}
		token := strings.TrimSpace(req.Token)

		acc, err := admin.ValidateAdminPhoneAndToken(db, phone, token)
		if err != nil {
			log.Printf("[ADMIN] Login failed for %s: %v", phone, err)
			admin.LogAdminAction(db, phone, c.ClientIP(), "/api/v1/admin/login", "login", nil, false)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		if !admin.IPAllowed(acc, c.ClientIP()) {
			log.Printf("[ADMIN] Login for %s refused from %s", phone, c.ClientIP())
			admin.LogAdminAction(db, phone, c.ClientIP(), "/api/v1/admin/login", "login_ip_denied", nil, false)
			c.JSON(http.StatusForbidden, gin.H{"error": "Login not allowed from this address"})
			return
		}

		tokenBytes := make([]byte, 32)
		if _, err := rand.Read(tokenBytes); err != nil {
			log.Printf("[ADMIN] Failed to generate session token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}
		sessionToken := hex.EncodeToString(tokenBytes)

		ctx := context.Background()
		sessionKey := fmt.Sprintf("admin_session:%s", sessionToken)
		sessionData := map[string]interface{}{
			"phone":      phone,
			"roles":      []string(acc.Roles),
			"expires_at": time.Now().Add(adminSessionTTL).Unix(),
		}
		sessionJSON, _ := json.Marshal(sessionData)
		if err := rdb.Set(ctx, sessionKey, sessionJSON, adminSessionTTL).Err(); err != nil {
			log.Printf("[ADMIN] Failed to store session: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}

		secure := cfg.Environment == "production"
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(adminCookieName, sessionToken, int(adminSessionTTL.Seconds()), "/api/v1/admin", "", secure, true)

		admin.LogAdminAction(db, phone, c.ClientIP(), "/api/v1/admin/login", "login", nil, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// AdminLogout clears admin session
func AdminLogout(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookieName)
		if err == nil && token != "" && rdb != nil {
			rdb.Del(context.Background(), fmt.Sprintf("admin_session:%s", token))
		}

		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(adminCookieName, "", -1, "/api/v1/admin", "", false, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// AdminMe returns the current admin session info
func AdminMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"phone": c.GetString("admin_phone")})
	}
}

// AdminSessionMiddleware validates admin session from cookie
func AdminSessionMiddleware(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		if rdb == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Admin sessions unavailable"})
			return
		}

		sessionJSON, err := rdb.Get(context.Background(), fmt.Sprintf("admin_session:%s", token)).Result()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		var sessionData map[string]interface{}
		if err := json.Unmarshal([]byte(sessionJSON), &sessionData); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		if phone, ok := sessionData["phone"].(string); ok {
			c.Set("admin_phone", phone)
		}

		c.Next()
	}
}
