package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/playmatatu/billiards/internal/admin"
	"github.com/playmatatu/billiards/internal/api"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/database"
	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/migrations"
	"github.com/playmatatu/billiards/internal/redis"
	"github.com/playmatatu/billiards/internal/ws"
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

	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL, migrations.DefaultDir); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Operator overrides from runtime_config win over the environment
	if err := admin.ApplyRuntimeConfigToConfig(db, cfg); err != nil {
		log.Printf("[CONFIG] Runtime config not applied: %v", err)
	}

	game.InitializeManager(db, rdb, cfg)

	ctx := context.Background()

	// Frames go out through the websocket hub
	sim := game.NewSimulator(game.Manager, ws.TableHub, cfg.SimTickRate)
	sim.Start(ctx)

	ws.SetRedisClient(rdb)
	ws.StartTableEventSubscriber(ctx)

	game.StartIdleWorker(ctx, game.Manager, rdb, cfg, ws.TableHub)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, db, rdb, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting billiards server on port %s (tick rate %d)", port, cfg.SimTickRate)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
