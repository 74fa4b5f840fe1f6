/**
 * @description
 * Card API Handlers.
 * Exposes card price lookups, autocomplete and the live update stream.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ktcapester/glimpse-sub000/internal/logger"
	"github.com/ktcapester/glimpse-sub000/internal/services"
)

// DefaultStreamHeartbeat is how often an idle update stream writes a comment line
const DefaultStreamHeartbeat = 15 * time.Second

type CardHandler struct {
	Service   *services.CardService
	Hub       *services.CardUpdateHub
	Heartbeat time.Duration
}

func NewCardHandler(service *services.CardService, hub *services.CardUpdateHub) *CardHandler {
	return &CardHandler{Service: service, Hub: hub, Heartbeat: DefaultStreamHeartbeat}
}

// SearchCard returns the aggregate prices of a card name
// GET /api/v1/cards/search?name=
func (h *CardHandler) SearchCard(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	card, err := h.Service.PriceCard(c.Context(), name)
	if err != nil {
		return cardError(c, err)
	}
	return c.JSON(card)
}

// Autocomplete returns card name suggestions
// GET /api/v1/cards/autocomplete?q=
func (h *CardHandler) Autocomplete(c *fiber.Ctx) error {
	names, err := h.Service.Autocomplete(c.Context(), c.Query("q"))
	if err != nil {
		logger.Error("CardHandler: autocomplete failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to fetch suggestions"})
	}
	return c.JSON(fiber.Map{"data": names})
}

// GetCard returns a stored card by ID
// GET /api/v1/cards/:id
func (h *CardHandler) GetCard(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid card id"})
	}

	card, err := h.Service.GetCard(c.Context(), id)
	if err != nil {
		return cardError(c, err)
	}
	return c.JSON(card)
}

// StreamCardUpdates streams re-priced cards over SSE
// GET /api/v1/cards/stream
func (h *CardHandler) StreamCardUpdates(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	interval := h.Heartbeat
	if interval <= 0 {
		interval = DefaultStreamHeartbeat
	}

	updates, unsubscribe := h.Hub.Subscribe()
	requestDone := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		// A failed flush is the only signal that a quiet client has gone away
		heartbeat := time.NewTicker(interval)
		defer heartbeat.Stop()

		for {
			select {
			case <-requestDone:
				return
			case <-heartbeat.C:
				fmt.Fprint(w, ": ping\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case msg, ok := <-updates:
				if !ok {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", msg)
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}

// cardError maps service errors to HTTP responses
func cardError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrCardNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Card not found"})
	case errors.Is(err, services.ErrEmptyName):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		logger.Error("CardHandler: pricing failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to price card"})
	}
}
