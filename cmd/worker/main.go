/**
 * @description
 * Worker Service Entry Point.
 * Periodically re-prices cards whose stored summary has gone stale and publishes
 * each refresh on the card update channel for SSE clients.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/scryfall
 * - backend/internal/services
 * - backend/internal/metrics
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ktcapester/glimpse-sub000/internal/config"
	"github.com/ktcapester/glimpse-sub000/internal/db"
	"github.com/ktcapester/glimpse-sub000/internal/logger"
	"github.com/ktcapester/glimpse-sub000/internal/metrics"
	"github.com/ktcapester/glimpse-sub000/internal/scryfall"
	"github.com/ktcapester/glimpse-sub000/internal/services"
)

func main() {
	logger.Info("🔥 Starting Glimpse Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 2. Connect DBs
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}
	defer redisClient.Close()

	// 3. Metrics
	metrics.Init()
	if cfg.Worker.MetricsAddr != "" {
		go func() {
			logger.Info("📈 Serving worker metrics on %s", cfg.Worker.MetricsAddr)
			if err := metrics.ServeHTTP(cfg.Worker.MetricsAddr); err != nil {
				logger.Error("Metrics server stopped: %v", err)
			}
		}()
	}

	// 4. Initialize Services
	scryfallClient := scryfall.NewClient(cfg, scryfall.NewLimiter(cfg.Scryfall.RequestInterval))
	cardService := services.NewCardService(pgDB, redisClient, scryfallClient, cfg.Scryfall.CacheTTL)

	// 5. Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. Refresh Loop
	done := make(chan struct{})
	go func() {
		defer close(done)

		ticker := time.NewTicker(cfg.Worker.RefreshInterval)
		defer ticker.Stop()

		refresh(ctx, cardService, cfg.Worker.StaleAfter)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refresh(ctx, cardService, cfg.Worker.StaleAfter)
			}
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	<-done
	logger.Info("Worker exited.")
}

// refresh re-prices every card older than staleAfter
func refresh(ctx context.Context, cs *services.CardService, staleAfter time.Duration) {
	logger.Info("🔄 Refreshing cards older than %s...", staleAfter)

	start := time.Now()
	n, err := cs.RefreshStale(ctx, staleAfter)
	if err != nil {
		logger.Error("Refresh stopped after %d cards: %v", n, err)
		return
	}
	logger.Info("Refreshed %d cards in %s", n, time.Since(start).Round(time.Millisecond))
}
