// Command sync re-prices every stored card once, outside the worker schedule.
package main

import (
	"context"
	"log"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/ktcapester/glimpse-sub000/internal/config"
	"github.com/ktcapester/glimpse-sub000/internal/db"
	"github.com/ktcapester/glimpse-sub000/internal/models"
	"github.com/ktcapester/glimpse-sub000/internal/scryfall"
	"github.com/ktcapester/glimpse-sub000/internal/services"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("🚀 Starting manual card re-price from Scryfall...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}

	// The shared cache is left alone; summaries expire on their own TTL
	mr, err := miniredis.Run()
	if err != nil {
		log.Fatalf("failed to start in-memory redis: %v", err)
	}
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	scryfallClient := scryfall.NewClient(cfg, scryfall.NewLimiter(cfg.Scryfall.RequestInterval))
	service := services.NewCardService(pgDB, redisClient, scryfallClient, cfg.Scryfall.CacheTTL)

	ctx := context.Background()

	n, err := service.RefreshAll(ctx)
	if err != nil {
		log.Fatalf("card re-price failed: %v", err)
	}

	var total int64
	if err := pgDB.Model(&models.Card{}).Count(&total).Error; err == nil {
		log.Printf("✅ Re-priced %d of %d stored cards", n, total)
	} else {
		log.Printf("⚠️ Failed to count stored cards: %v", err)
	}
}
