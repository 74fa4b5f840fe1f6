/**
 * @description
 * Main entry point for the Glimpse Backend API.
 * Initializes the Fiber web server, loads configuration, and sets up routes.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - backend/internal/config: Config loader
 * - backend/internal/db: Database connections
 * - backend/internal/api: Routes
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/ktcapester/glimpse-sub000/internal/api"
	"github.com/ktcapester/glimpse-sub000/internal/config"
	"github.com/ktcapester/glimpse-sub000/internal/db"
	"github.com/ktcapester/glimpse-sub000/internal/logger"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 2. Initialize Database Connections
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize Fiber App
	app := fiber.New(fiber.Config{
		AppName:       "Glimpse",
		StrictRouting: false,
		CaseSensitive: true,
	})

	// 4. Global Middleware
	app.Use(recover.New())
	app.Use(fiberLogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// 5. Routes
	api.SetupRoutes(ctx, app, pgDB, redisClient, cfg)

	// 6. Start Server
	go func() {
		logger.Info("🚀 Starting Glimpse Backend on port %s", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down API...")
	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}
}
