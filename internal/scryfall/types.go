package scryfall

import (
	"fmt"

	"github.com/ktcapester/glimpse-sub000/internal/pricing"
)

// Card is a single printing as returned by the card data API
type Card struct {
	ID              string             `json:"id"`
	OracleID        string             `json:"oracle_id"`
	Name            string             `json:"name"`
	Set             string             `json:"set"`
	SetName         string             `json:"set_name"`
	CollectorNumber string             `json:"collector_number"`
	TypeLine        string             `json:"type_line"`
	ScryfallURI     string             `json:"scryfall_uri"`
	Digital         bool               `json:"digital"`
	ImageURIs       *ImageURIs         `json:"image_uris,omitempty"`
	CardFaces       []CardFace         `json:"card_faces,omitempty"`
	Prices          map[string]*string `json:"prices"`
}

// CardFace holds per-face data of double-faced cards
type CardFace struct {
	Name      string     `json:"name"`
	ImageURIs *ImageURIs `json:"image_uris,omitempty"`
}

// ImageURIs holds the image renditions of a card
type ImageURIs struct {
	Small  string `json:"small"`
	Normal string `json:"normal"`
	Large  string `json:"large"`
}

// ImageURL returns the normal image, falling back to the front face
func (c *Card) ImageURL() string {
	if c.ImageURIs != nil && c.ImageURIs.Normal != "" {
		return c.ImageURIs.Normal
	}
	for _, f := range c.CardFaces {
		if f.ImageURIs != nil && f.ImageURIs.Normal != "" {
			return f.ImageURIs.Normal
		}
	}
	return ""
}

// ToPrinting converts the card into the aggregator's input record
func (c *Card) ToPrinting() pricing.Printing {
	return pricing.Printing{
		ID:     c.ID,
		Set:    c.Set,
		Prices: c.Prices,
	}
}

// CardList is a paginated list response
type CardList struct {
	Object     string `json:"object"`
	TotalCards int    `json:"total_cards"`
	HasMore    bool   `json:"has_more"`
	NextPage   string `json:"next_page"`
	Data       []Card `json:"data"`
}

// Catalog is the autocomplete response
type Catalog struct {
	Object      string   `json:"object"`
	TotalValues int      `json:"total_values"`
	Data        []string `json:"data"`
}

// APIError is the error object the API returns with non-200 statuses
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Details string `json:"details"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scryfall api error: status %d: %s", e.Status, e.Details)
}
