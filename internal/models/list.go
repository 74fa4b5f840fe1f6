/**
 * @description
 * Shopping list models.
 * Maps to the 'list_items' table in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListItem is one card on a user's shopping list
type ListItem struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_list_items_user_card" json:"user_id"`
	CardID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_list_items_user_card" json:"card_id"`
	Quantity int       `gorm:"not null;default:1" json:"quantity"`
	Card     Card      `gorm:"foreignKey:CardID" json:"card"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name used by ListItem to `list_items`
func (ListItem) TableName() string {
	return "list_items"
}

// BeforeCreate ensures UUID is generated if not present
func (i *ListItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

// PricedList is the API view of a user's list for one price channel
type PricedList struct {
	Channel string     `json:"channel"`
	Items   []ListItem `json:"items"`
	Count   int        `json:"count"`
	Total   float64    `json:"total"`
}
