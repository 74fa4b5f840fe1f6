/**
 * @description
 * API Route definitions.
 * Wires the Scryfall client, services and handlers and assigns routes.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/services
 * - backend/internal/scryfall
 * - backend/internal/metrics
 */

package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/ktcapester/glimpse-sub000/internal/api/handlers"
	"github.com/ktcapester/glimpse-sub000/internal/api/middleware"
	"github.com/ktcapester/glimpse-sub000/internal/config"
	"github.com/ktcapester/glimpse-sub000/internal/logger"
	"github.com/ktcapester/glimpse-sub000/internal/mail"
	"github.com/ktcapester/glimpse-sub000/internal/metrics"
	"github.com/ktcapester/glimpse-sub000/internal/scryfall"
	"github.com/ktcapester/glimpse-sub000/internal/services"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes. ctx bounds the lifetime of the update stream hub.
func SetupRoutes(ctx context.Context, app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	// 1. Initialize Middleware
	if err := middleware.InitAuthMiddleware(cfg); err != nil {
		logger.Error("Failed to init auth middleware: %v", err)
	}

	metrics.Init()
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// 2. Initialize Services
	// One limiter per process keeps every upstream call behind the same throttle
	scryfallClient := scryfall.NewClient(cfg, scryfall.NewLimiter(cfg.Scryfall.RequestInterval))
	cardService := services.NewCardService(db, rdb, scryfallClient, cfg.Scryfall.CacheTTL)
	listService := services.NewListService(db, cardService)
	authService := services.NewAuthService(rdb, mail.New(cfg), cfg)
	hub := services.NewCardUpdateHub(ctx, rdb, services.CardUpdateChannel)

	// 3. Initialize Handlers
	cardHandler := handlers.NewCardHandler(cardService, hub)
	listHandler := handlers.NewListHandler(listService)
	authHandler := handlers.NewAuthHandler(db, authService)
	userHandler := handlers.NewUserHandler(db)

	// 4. Define Routes
	v1 := app.Group("/api/v1")

	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "glimpse-backend"})
	})

	// Card Routes (Public)
	cards := v1.Group("/cards")
	cards.Get("/search", cardHandler.SearchCard)
	cards.Get("/autocomplete", cardHandler.Autocomplete)
	cards.Get("/stream", cardHandler.StreamCardUpdates)
	cards.Get("/:id", cardHandler.GetCard)

	// Auth Routes (Public, throttled per IP)
	auth := v1.Group("/auth")
	auth.Post("/magic-link", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 15 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many sign-in requests"})
		},
	}), authHandler.RequestMagicLink)
	auth.Post("/verify", authHandler.Verify)

	// User Routes (Protected)
	user := v1.Group("/user", middleware.Protected())
	user.Get("/me", userHandler.GetMe)

	// List Routes (Protected)
	list := v1.Group("/list", middleware.Protected())
	list.Get("/", listHandler.GetList)
	list.Post("/", listHandler.AddItem)
	list.Delete("/", listHandler.ClearList)
	list.Patch("/:item_id", listHandler.UpdateItem)
	list.Delete("/:item_id", listHandler.RemoveItem)
}
