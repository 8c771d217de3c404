package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"pulse/internal/services"
)

// UserKey is the context-locals key holding the resolved *models.User.
const UserKey = "current_user"

// AuthRequired is a Fiber middleware that resolves the Bearer token to a
// live user and stores it in the request locals. Resolution also bumps the
// user's last-activity timestamp (see AuthService.CurrentUser).
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		user, err := authService.CurrentUser(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals(UserKey, user)
		return c.Next()
	}
}
