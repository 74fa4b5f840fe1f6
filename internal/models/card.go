/**
 * @description
 * Card price summary model.
 * Maps to the 'cards' table in PostgreSQL. One row per card name, holding the
 * aggregate price of every channel across all printings.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/pricing
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ktcapester/glimpse-sub000/internal/pricing"
	"gorm.io/gorm"
)

// Card is the persisted price summary of a card name
type Card struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string    `gorm:"uniqueIndex;not null" json:"name"`
	ScryfallURI   string    `gorm:"column:scryfall_uri" json:"scryfall_uri"`
	ImageURL      string    `gorm:"column:image_url" json:"image_url"`
	TypeLine      string    `gorm:"column:type_line" json:"type_line"`
	PrintingCount int       `gorm:"column:printing_count" json:"printing_count"`

	USD       float64 `gorm:"column:usd;type:decimal(12,2)" json:"usd"`
	USDFoil   float64 `gorm:"column:usd_foil;type:decimal(12,2)" json:"usd_foil"`
	USDEtched float64 `gorm:"column:usd_etched;type:decimal(12,2)" json:"usd_etched"`
	EUR       float64 `gorm:"column:eur;type:decimal(12,2)" json:"eur"`
	EURFoil   float64 `gorm:"column:eur_foil;type:decimal(12,2)" json:"eur_foil"`
	EUREtched float64 `gorm:"column:eur_etched;type:decimal(12,2)" json:"eur_etched"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

// TableName overrides the table name used by Card to `cards`
func (Card) TableName() string {
	return "cards"
}

// BeforeCreate ensures UUID is generated if not present
func (c *Card) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// ApplySummary copies aggregate prices into the card columns
func (c *Card) ApplySummary(s pricing.Summary) {
	r := s.Rounded()
	c.USD = r.Get(pricing.ChannelUSD)
	c.USDFoil = r.Get(pricing.ChannelUSDFoil)
	c.USDEtched = r.Get(pricing.ChannelUSDEtched)
	c.EUR = r.Get(pricing.ChannelEUR)
	c.EURFoil = r.Get(pricing.ChannelEURFoil)
	c.EUREtched = r.Get(pricing.ChannelEUREtched)
}

// Summary returns the stored prices keyed by channel
func (c *Card) Summary() pricing.Summary {
	return pricing.Summary{
		pricing.ChannelUSD:       c.USD,
		pricing.ChannelUSDFoil:   c.USDFoil,
		pricing.ChannelUSDEtched: c.USDEtched,
		pricing.ChannelEUR:       c.EUR,
		pricing.ChannelEURFoil:   c.EURFoil,
		pricing.ChannelEUREtched: c.EUREtched,
	}
}

// Price returns the stored price of one channel
func (c *Card) Price(ch pricing.Channel) float64 {
	return c.Summary().Get(ch)
}
