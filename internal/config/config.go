package config

import (
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Simulation
	SimTickRate int // frames per second stepped by the simulator
	MaxTables   int

	// Table lifecycle. These and MaxTables can be overridden at runtime;
	// once the server is up read them through the accessors in runtime.go.
	TableIdleSeconds       int
	IdleWorkerPollInterval int // seconds
	SnapshotTTLMinutes     int

	// Security
	JWTSecret            string
	TableTokenTTLMinutes int

	mu sync.RWMutex
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/billiards?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Simulation
		SimTickRate: getEnvInt("SIM_TICK_RATE", 60),
		MaxTables:   getEnvInt("MAX_TABLES", 200),

		// Table lifecycle
		TableIdleSeconds:       getEnvInt("TABLE_IDLE_SECONDS", 900),
		IdleWorkerPollInterval: getEnvInt("IDLE_WORKER_POLL_INTERVAL", 15),
		SnapshotTTLMinutes:     getEnvInt("SNAPSHOT_TTL_MINUTES", 60),

		// Security
		JWTSecret:            getEnv("JWT_SECRET", "change-me-in-production"),
		TableTokenTTLMinutes: getEnvInt("TABLE_TOKEN_TTL_MINUTES", 240),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
