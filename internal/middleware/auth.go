package middleware

import (
	"errors"

	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	TokenHeader = "X-Token"
	userKey     = "user"
)

// RequireAuth rejects requests without a live session token.
func RequireAuth(auth services.AuthService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.Authenticate(c.UserContext(), c.Get(TokenHeader))
		if err != nil {
			if errors.Is(err, services.ErrUnauthorized) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
			}
			logger.Error("authenticate", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		}
		c.Locals(userKey, user)
		return c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present. Missing or
// unknown tokens pass through anonymously; a session store failure does not.
func OptionalAuth(auth services.AuthService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(TokenHeader)
		if token == "" {
			return c.Next()
		}
		user, err := auth.Authenticate(c.UserContext(), token)
		switch {
		case err == nil:
			c.Locals(userKey, user)
		case !errors.Is(err, services.ErrUnauthorized):
			logger.Error("authenticate", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(userKey).(*models.User)
	return u
}
