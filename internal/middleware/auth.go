package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/utils"
)

// AuthRequired verifies the bearer credential, resolves it to an account row
// and injects it into the request locals. Every protected route runs behind
// this gate.
func AuthRequired(gdb *gorm.DB, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return models.RespondWithError(c, models.NewUnauthorizedError("No token provided"))
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return models.RespondWithError(c, models.NewUnauthorizedError("Invalid authorization header"))
		}

		claims, err := utils.ParseJWT(secret, parts[1])
		if err != nil {
			return models.RespondWithError(c, models.NewUnauthorizedError("Invalid token"))
		}

		uid, err := uuid.Parse(claims.UserID)
		if err != nil {
			return models.RespondWithError(c, models.NewUnauthorizedError("Invalid token"))
		}

		var user models.User
		if err := gdb.First(&user, "id = ?", uid).Error; err != nil {
			return models.RespondWithError(c, models.NewUnauthorizedError("User not found"))
		}

		c.Locals("user", &user)
		return c.Next()
	}
}

// CurrentUser returns the account injected by AuthRequired.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals("user").(*models.User)
	return u
}
