/**
 * @description
 * Service layer for card prices.
 * Orchestrates fetching printings from Scryfall, aggregating them into a price summary,
 * caching the summary in Redis and persisting it to Postgres.
 *
 * @dependencies
 * - backend/internal/scryfall
 * - backend/internal/pricing
 * - backend/internal/models
 * - gorm.io/gorm
 * - github.com/redis/go-redis/v9
 */

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ktcapester/glimpse-sub000/internal/logger"
	"github.com/ktcapester/glimpse-sub000/internal/metrics"
	"github.com/ktcapester/glimpse-sub000/internal/models"
	"github.com/ktcapester/glimpse-sub000/internal/pricing"
	"github.com/ktcapester/glimpse-sub000/internal/scryfall"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	CacheKeyCardPrefix         = "cards:summary:"
	CacheKeyCardAliasPrefix    = "cards:alias:"
	CacheKeyAutocompletePrefix = "cards:autocomplete:"
	AutocompleteTTL            = time.Hour
	DefaultCardCacheTTL        = 24 * time.Hour

	CardUpdateChannel = "cards:updates"
)

var (
	ErrCardNotFound = errors.New("card not found")
	ErrEmptyName    = errors.New("card name is required")
)

// CardUpdate is published whenever a stored card is re-priced
type CardUpdate struct {
	CardID    uuid.UUID       `json:"card_id"`
	Name      string          `json:"name"`
	Prices    pricing.Summary `json:"prices"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type CardService struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Scryfall *scryfall.Client
	CacheTTL time.Duration
}

func NewCardService(db *gorm.DB, redis *redis.Client, client *scryfall.Client, cacheTTL time.Duration) *CardService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCardCacheTTL
	}
	return &CardService{
		DB:       db,
		Redis:    redis,
		Scryfall: client,
		CacheTTL: cacheTTL,
	}
}

// PriceCard returns the price summary of a card, preferring Cache -> Scryfall
func (s *CardService) PriceCard(ctx context.Context, name string) (*models.Card, error) {
	query := normalizeName(name)
	if query == "" {
		return nil, ErrEmptyName
	}

	card, ok := s.lookup(ctx, query)
	metrics.RecordCacheLookup(ok)
	if ok {
		return card, nil
	}

	resolved, err := s.Scryfall.GetNamed(ctx, name, true)
	if err != nil {
		if errors.Is(err, scryfall.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to resolve card name: %w", err)
	}

	card, err = s.price(ctx, resolved.Name)
	if err != nil {
		return nil, err
	}

	// Summaries are stored under the canonical name only; other queries alias to it
	s.cache(ctx, card)
	if canonical := normalizeName(card.Name); canonical != query {
		if err := s.Redis.Set(ctx, CacheKeyCardAliasPrefix+query, canonical, s.CacheTTL).Err(); err != nil {
			logger.Warn("CardService: failed to cache alias %q: %v", query, err)
		}
	}
	return card, nil
}

// GetCard returns a stored card by ID
func (s *CardService) GetCard(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	var card models.Card
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &card, nil
}

// Autocomplete returns card name suggestions, cached per query
func (s *CardService) Autocomplete(ctx context.Context, query string) ([]string, error) {
	key := CacheKeyAutocompletePrefix + normalizeName(query)

	val, err := s.Redis.Get(ctx, key).Result()
	if err == nil {
		var names []string
		if err := json.Unmarshal([]byte(val), &names); err == nil {
			return names, nil
		}
	}

	names, err := s.Scryfall.Autocomplete(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(names); err == nil {
		if err := s.Redis.Set(ctx, key, data, AutocompleteTTL).Err(); err != nil {
			logger.Warn("CardService: failed to cache autocomplete for %q: %v", query, err)
		}
	}
	return names, nil
}

// RefreshCard re-prices a stored card, bypassing the cache, and publishes the update
func (s *CardService) RefreshCard(ctx context.Context, name string) (*models.Card, error) {
	card, err := s.price(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, card)
	s.publish(ctx, card)
	return card, nil
}

// RefreshStale re-prices every card last updated before now-olderThan.
// Failures are logged per card and do not stop the run.
func (s *CardService) RefreshStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	var names []string
	if err := s.DB.WithContext(ctx).
		Model(&models.Card{}).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Pluck("name", &names).Error; err != nil {
		return 0, fmt.Errorf("failed to load stale cards: %w", err)
	}

	refreshed := 0
	for _, name := range names {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		if _, err := s.RefreshCard(ctx, name); err != nil {
			logger.Error("CardService: failed to refresh %q: %v", name, err)
			metrics.RecordRefresh(false)
			continue
		}
		metrics.RecordRefresh(true)
		refreshed++
	}

	return refreshed, nil
}

// RefreshAll re-prices every stored card
func (s *CardService) RefreshAll(ctx context.Context) (int, error) {
	return s.RefreshStale(ctx, 0)
}

// price fetches every printing of the canonical name, aggregates and persists the summary
func (s *CardService) price(ctx context.Context, name string) (*models.Card, error) {
	printings, err := s.Scryfall.SearchPrintings(ctx, name)
	if err != nil {
		if errors.Is(err, scryfall.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to fetch printings from scryfall: %w", err)
	}
	if len(printings) == 0 {
		return nil, ErrCardNotFound
	}

	card := buildCard(printings)
	if err := s.save(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// buildCard aggregates the printings into a card row; display fields come from the newest printing
func buildCard(printings []scryfall.Card) *models.Card {
	records := make([]pricing.Printing, 0, len(printings))
	for i := range printings {
		records = append(records, printings[i].ToPrinting())
	}

	newest := printings[0]
	card := &models.Card{
		Name:          newest.Name,
		ScryfallURI:   newest.ScryfallURI,
		ImageURL:      newest.ImageURL(),
		TypeLine:      newest.TypeLine,
		PrintingCount: len(printings),
	}
	card.ApplySummary(pricing.AggregatePrintings(records))
	return card
}

// save upserts the card by name and reloads it so the ID matches the stored row
func (s *CardService) save(ctx context.Context, card *models.Card) error {
	card.UpdatedAt = time.Now()

	const maxRetries = 3
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"scryfall_uri",
				"image_url",
				"type_line",
				"printing_count",
				"usd",
				"usd_foil",
				"usd_etched",
				"eur",
				"eur_foil",
				"eur_etched",
				"updated_at",
			}),
		}).Create(card).Error
		if err == nil || !isRetryable(err) {
			break
		}
		backoff := time.Duration(attempt*100+rand.Intn(100)) * time.Millisecond
		time.Sleep(backoff)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert card: %w", err)
	}

	// ON CONFLICT keeps the existing row's ID
	var stored models.Card
	if err := s.DB.WithContext(ctx).Where("name = ?", card.Name).First(&stored).Error; err != nil {
		return fmt.Errorf("failed to reload card: %w", err)
	}
	*card = stored
	return nil
}

// lookup resolves a normalized query directly or through its alias to the canonical name
func (s *CardService) lookup(ctx context.Context, query string) (*models.Card, bool) {
	if card, ok := s.cached(ctx, CacheKeyCardPrefix+query); ok {
		return card, true
	}
	canonical, err := s.Redis.Get(ctx, CacheKeyCardAliasPrefix+query).Result()
	if err != nil {
		return nil, false
	}
	return s.cached(ctx, CacheKeyCardPrefix+canonical)
}

func (s *CardService) cached(ctx context.Context, key string) (*models.Card, bool) {
	val, err := s.Redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("CardService: cache read failed for %s: %v", key, err)
		}
		return nil, false
	}
	var card models.Card
	if err := json.Unmarshal([]byte(val), &card); err != nil {
		return nil, false
	}
	return &card, true
}

func (s *CardService) cache(ctx context.Context, card *models.Card) {
	data, err := json.Marshal(card)
	if err != nil {
		logger.Error("CardService: failed to marshal card for cache: %v", err)
		return
	}
	key := cacheKey(card.Name)
	if err := s.Redis.Set(ctx, key, data, s.CacheTTL).Err(); err != nil {
		logger.Warn("CardService: failed to cache %s: %v", key, err)
	}
}

func (s *CardService) publish(ctx context.Context, card *models.Card) {
	data, err := json.Marshal(CardUpdate{
		CardID:    card.ID,
		Name:      card.Name,
		Prices:    card.Summary(),
		UpdatedAt: card.UpdatedAt,
	})
	if err != nil {
		return
	}
	if err := s.Redis.Publish(ctx, CardUpdateChannel, data).Err(); err != nil {
		logger.Warn("CardService: failed to publish update for %s: %v", card.Name, err)
	}
}

// isRetryable reports Postgres deadlocks and serialization failures
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001"
	}
	return false
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func cacheKey(name string) string {
	return CacheKeyCardPrefix + normalizeName(name)
}
