package main

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/playmatatu/billiards/internal/admin"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/database"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	phone := os.Getenv("ADMIN_PHONE")
	if phone == "" {
		phone = "256700000000" // Default phone
		log.Printf("Using default admin phone: %s", phone)
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		adminToken = "change-me-in-production" // Default token
		log.Printf("WARNING: Using default admin token. Set ADMIN_TOKEN env var in production!")
	}

	displayName := getEnv("ADMIN_DISPLAY_NAME", "Table Operator")
	roles := []string{"table_admin"}

	// Comma-separated; empty allows any address
	allowedIPs := []string{}
	for _, ip := range strings.Split(os.Getenv("ADMIN_ALLOWED_IPS"), ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			allowedIPs = append(allowedIPs, ip)
		}
	}

	err = admin.CreateAdminAccount(db, phone, displayName, adminToken, roles, allowedIPs)
	if err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	log.Printf("✓ Admin account created/updated successfully")
	log.Printf("  Phone: %s", phone)
	log.Printf("  Display Name: %s", displayName)
	log.Printf("  Roles: %v", roles)
	if len(allowedIPs) > 0 {
		log.Printf("  Allowed IPs: %v", allowedIPs)
	}
	log.Println("\nYou can now login at POST /api/v1/admin/login with:")
	log.Printf("  Phone: %s", phone)
	log.Printf("  Token: %s", adminToken)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
