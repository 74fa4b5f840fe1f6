/**
 * @description
 * Shopping list API Handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 * - backend/internal/api/middleware
 */

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ktcapester/glimpse-sub000/internal/api/middleware"
	"github.com/ktcapester/glimpse-sub000/internal/logger"
	"github.com/ktcapester/glimpse-sub000/internal/pricing"
	"github.com/ktcapester/glimpse-sub000/internal/services"
)

// ListHandler handles shopping list requests
type ListHandler struct {
	listService *services.ListService
}

// NewListHandler creates a new ListHandler
func NewListHandler(listService *services.ListService) *ListHandler {
	return &ListHandler{listService: listService}
}

// AddItemRequest represents an add-to-list request body
type AddItemRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// UpdateItemRequest represents a quantity change
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetList returns the user's list priced in the requested channel
// GET /api/v1/list?channel=usd
func (h *ListHandler) GetList(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	channel, err := pricing.ParseChannel(c.Query("channel"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	list, err := h.listService.GetList(c.Context(), userID, channel)
	if err != nil {
		logger.Error("ListHandler: Failed to get list: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch list"})
	}
	return c.JSON(list)
}

// AddItem prices a card and adds it to the list
// POST /api/v1/list
func (h *ListHandler) AddItem(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.listService.AddItem(c.Context(), userID, req.Name, req.Quantity)
	if err != nil {
		if errors.Is(err, services.ErrInvalidQuantity) || errors.Is(err, services.ErrListWrite) {
			return listItemError(c, err)
		}
		return cardError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateItem sets an item's quantity; zero removes it
// PATCH /api/v1/list/:item_id
func (h *ListHandler) UpdateItem(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	itemID, err := uuid.Parse(c.Params("item_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item id"})
	}

	var req UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	item, err := h.listService.UpdateQuantity(c.Context(), userID, itemID, req.Quantity)
	if err != nil {
		return listItemError(c, err)
	}
	if item == nil {
		return c.JSON(fiber.Map{"success": true, "removed": true, "item_id": itemID})
	}
	return c.JSON(item)
}

// RemoveItem deletes one item
// DELETE /api/v1/list/:item_id
func (h *ListHandler) RemoveItem(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	itemID, err := uuid.Parse(c.Params("item_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item id"})
	}

	if err := h.listService.RemoveItem(c.Context(), userID, itemID); err != nil {
		return listItemError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "removed": true, "item_id": itemID})
}

// ClearList empties the list
// DELETE /api/v1/list
func (h *ListHandler) ClearList(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	removed, err := h.listService.Clear(c.Context(), userID)
	if err != nil {
		logger.Error("ListHandler: Failed to clear list: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to clear list"})
	}
	return c.JSON(fiber.Map{"success": true, "removed": removed})
}

func listItemError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrListItemNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "List item not found"})
	case errors.Is(err, services.ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		logger.Error("ListHandler: list update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update list"})
	}
}
