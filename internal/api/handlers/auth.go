/**
 * @description
 * Auth API Handlers.
 * Magic-link request and verification; verification creates the user on first sign in.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - gorm.io/gorm
 * - backend/internal/services
 */

package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ktcapester/glimpse-sub000/internal/logger"
	"github.com/ktcapester/glimpse-sub000/internal/models"
	"github.com/ktcapester/glimpse-sub000/internal/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuthHandler struct {
	DB   *gorm.DB
	Auth *services.AuthService
}

func NewAuthHandler(db *gorm.DB, auth *services.AuthService) *AuthHandler {
	return &AuthHandler{DB: db, Auth: auth}
}

// MagicLinkRequest defines payload for requesting a sign-in link
type MagicLinkRequest struct {
	Email string `json:"email"`
}

// VerifyRequest defines payload for exchanging a link token
type VerifyRequest struct {
	Token string `json:"token"`
}

// RequestMagicLink mails a one-time sign-in link
// POST /api/v1/auth/magic-link
func (h *AuthHandler) RequestMagicLink(c *fiber.Ctx) error {
	var req MagicLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.Auth.RequestMagicLink(c.Context(), req.Email); err != nil {
		if errors.Is(err, services.ErrInvalidEmail) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Error("AuthHandler: magic link failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send sign-in link"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"success": true})
}

// Verify consumes a link token, upserts the user and returns a session JWT
// POST /api/v1/auth/verify
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	email, err := h.Auth.ConsumeMagicLink(c.Context(), req.Token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidMagicLink) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Error("AuthHandler: failed to consume magic link: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify link"})
	}

	now := time.Now()
	user := models.User{Email: email, LastLoginAt: &now}
	result := h.DB.WithContext(c.Context()).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_login_at": now,
			"updated_at":    now,
		}),
	}).Create(&user)
	if result.Error != nil {
		logger.Error("AuthHandler: Database error during upsert: %v", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign in"})
	}

	var stored models.User
	if err := h.DB.WithContext(c.Context()).Where("email = ?", email).First(&stored).Error; err != nil {
		logger.Error("AuthHandler: Failed to fetch user after upsert: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign in"})
	}

	token, expires, err := h.Auth.IssueToken(stored.ID)
	if err != nil {
		logger.Error("AuthHandler: Failed to sign token: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign in"})
	}

	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": expires,
		"user":       stored,
	})
}
