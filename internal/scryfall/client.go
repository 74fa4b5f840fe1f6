/**
 * @description
 * HTTP Client for the Scryfall card data API.
 * Fetches printings of a card, named lookups and autocomplete suggestions.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - golang.org/x/time/rate: shared upstream throttle
 * - backend/internal/metrics: per-endpoint request counters
 * - backend/internal/config
 *
 * @notes
 * - Scryfall asks clients to keep 50-100ms between requests. Every request waits on the
 *   injected limiter, so one limiter must be shared by all clients in a process.
 */

package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ktcapester/glimpse-sub000/internal/config"
	"github.com/ktcapester/glimpse-sub000/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 10 * time.Second
	userAgent      = "Glimpse/1.0"

	// maxPages bounds pagination for pathological queries
	maxPages = 20
)

// ErrCardNotFound is returned when no card matches the query
var ErrCardNotFound = errors.New("card not found")

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

// NewLimiter builds the throttle shared by every client of the process
func NewLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

func NewClient(cfg *config.Config, limiter *rate.Limiter) *Client {
	if limiter == nil {
		limiter = NewLimiter(cfg.Scryfall.RequestInterval)
	}
	return &Client{
		BaseURL: cfg.Scryfall.BaseURL,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		Limiter: limiter,
	}
}

// SearchPrintings returns every printing of the exactly named card
func (c *Client) SearchPrintings(ctx context.Context, name string) ([]Card, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	u, err := url.Parse(fmt.Sprintf("%s/cards/search", c.BaseURL))
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", fmt.Sprintf("!%q", name))
	q.Set("unique", "prints")
	q.Set("order", "released")
	u.RawQuery = q.Encode()

	var cards []Card
	next := u.String()
	for page := 0; next != "" && page < maxPages; page++ {
		var list CardList
		if err := c.get(ctx, next, &list); err != nil {
			return nil, err
		}
		cards = append(cards, list.Data...)

		next = ""
		if list.HasMore {
			next = list.NextPage
		}
	}

	return cards, nil
}

// GetNamed fetches a single card by name, fuzzy matching when requested
func (c *Client) GetNamed(ctx context.Context, name string, fuzzy bool) (*Card, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	u, err := url.Parse(fmt.Sprintf("%s/cards/named", c.BaseURL))
	if err != nil {
		return nil, err
	}
	q := u.Query()
	if fuzzy {
		q.Set("fuzzy", name)
	} else {
		q.Set("exact", name)
	}
	u.RawQuery = q.Encode()

	var card Card
	if err := c.get(ctx, u.String(), &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// Autocomplete returns up to 20 card names starting with the query
func (c *Client) Autocomplete(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []string{}, nil
	}

	u, err := url.Parse(fmt.Sprintf("%s/cards/autocomplete", c.BaseURL))
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	var catalog Catalog
	if err := c.get(ctx, u.String(), &catalog); err != nil {
		return nil, err
	}
	if catalog.Data == nil {
		return []string{}, nil
	}
	return catalog.Data, nil
}

// get waits on the limiter, performs the request and decodes a 200 body into out
func (c *Client) get(ctx context.Context, rawURL string, out interface{}) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		metrics.RecordScryfallRequest(req.URL.Path, 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	metrics.RecordScryfallRequest(req.URL.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		return ErrCardNotFound
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
