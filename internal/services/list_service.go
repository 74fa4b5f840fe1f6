/**
 * @description
 * List Service for the priced shopping list.
 * Manages a user's list items and prices them through the shared aggregate summaries.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/shopspring/decimal
 * - backend/internal/models
 */

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ktcapester/glimpse-sub000/internal/logger"
	"github.com/ktcapester/glimpse-sub000/internal/models"
	"github.com/ktcapester/glimpse-sub000/internal/pricing"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxQuantity caps a single list entry
const MaxQuantity = 999

var (
	ErrListItemNotFound = errors.New("list item not found")
	ErrInvalidQuantity  = errors.New("quantity must be between 1 and 999")
	// ErrListWrite wraps storage failures, as opposed to failures pricing the card
	ErrListWrite        = errors.New("failed to update list")
)

// ListService handles shopping list operations
type ListService struct {
	db    *gorm.DB
	cards *CardService
}

// NewListService creates a new ListService
func NewListService(db *gorm.DB, cards *CardService) *ListService {
	return &ListService{
		db:    db,
		cards: cards,
	}
}

// GetList returns the user's items priced in one channel
func (s *ListService) GetList(ctx context.Context, userID uuid.UUID, ch pricing.Channel) (*models.PricedList, error) {
	var items []models.ListItem
	result := s.db.WithContext(ctx).
		Preload("Card").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}

	return &models.PricedList{
		Channel: string(ch),
		Items:   items,
		Count:   len(items),
		Total:   ListTotal(items, ch),
	}, nil
}

// AddItem prices a card by name and adds it, bumping the quantity if already listed
func (s *ListService) AddItem(ctx context.Context, userID uuid.UUID, name string, quantity int) (*models.ListItem, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	card, err := s.cards.PriceCard(ctx, name)
	if err != nil {
		return nil, err
	}

	var item models.ListItem
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND card_id = ?", userID, card.ID).
		First(&item).Error
	switch {
	case err == nil:
		item.Quantity = min(item.Quantity+quantity, MaxQuantity)
		if err := s.db.WithContext(ctx).Model(&item).Update("quantity", item.Quantity).Error; err != nil {
			logger.Error("ListService: Failed to bump quantity: %v", err)
			return nil, fmt.Errorf("%w: %w", ErrListWrite, err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.ListItem{
			UserID:   userID,
			CardID:   card.ID,
			Quantity: quantity,
		}
		if err := s.db.WithContext(ctx).Omit("Card").Create(&item).Error; err != nil {
			logger.Error("ListService: Failed to add item: %v", err)
			return nil, fmt.Errorf("%w: %w", ErrListWrite, err)
		}
	default:
		return nil, fmt.Errorf("%w: %w", ErrListWrite, err)
	}

	item.Card = *card
	return &item, nil
}

// UpdateQuantity sets an item's quantity; zero or less removes the item and returns nil
func (s *ListService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.ListItem, error) {
	if quantity <= 0 {
		return nil, s.RemoveItem(ctx, userID, itemID)
	}
	if quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	result := s.db.WithContext(ctx).
		Model(&models.ListItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Update("quantity", quantity)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrListItemNotFound
	}

	var item models.ListItem
	if err := s.db.WithContext(ctx).Preload("Card").Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes one item from the user's list
func (s *ListService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.ListItem{})
	if result.Error != nil {
		logger.Error("ListService: Failed to remove item: %v", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrListItemNotFound
	}
	return nil
}

// Clear empties the user's list and returns how many items were removed
func (s *ListService) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.ListItem{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListTotal sums price x quantity in the channel, rounded to cents
func ListTotal(items []models.ListItem, ch pricing.Channel) float64 {
	total := decimal.Zero
	for _, item := range items {
		price := decimal.NewFromFloat(item.Card.Price(ch))
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2).InexactFloat64()
}
