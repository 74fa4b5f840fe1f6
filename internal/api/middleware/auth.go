/**
 * @description
 * Authentication middleware for session JWTs issued after a magic-link sign in.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: HTTP Context
 * - github.com/golang-jwt/jwt/v5: JWT parsing
 *
 * @notes
 * - Only HS256 tokens signed with JWT_SECRET are accepted.
 */

package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ktcapester/glimpse-sub000/internal/config"
	"github.com/ktcapester/glimpse-sub000/internal/logger"
)

const userIDKey = "user_id"

// AuthMiddlewareConfig holds the signing secret
type AuthMiddlewareConfig struct {
	Secret []byte
}

var mwConfig *AuthMiddlewareConfig

// InitAuthMiddleware stores the JWT secret. Should be called at startup.
func InitAuthMiddleware(cfg *config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		mwConfig = nil
		return errors.New("JWT_SECRET is empty; protected routes will reject every request")
	}

	mwConfig = &AuthMiddlewareConfig{
		Secret: []byte(cfg.Auth.JWTSecret),
	}
	logger.Info("✅ Auth Middleware Initialized")
	return nil
}

// Protected protects routes requiring authentication
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if mwConfig == nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Auth configuration not initialized",
			})
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token format"})
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			return mwConfig.Secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing subject"})
		}

		userID, err := uuid.Parse(sub)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token subject"})
		}

		c.Locals(userIDKey, userID)

		return c.Next()
	}
}

// GetUserID returns the authenticated user's ID from context
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("user id not found in context")
	}
	return id, nil
}
