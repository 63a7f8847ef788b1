package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/freelancehub/backend/internal/models"
)

// RequireUserType gates a route to the given account roles. Must run after
// AuthRequired.
func RequireUserType(allowed ...models.UserType) fiber.Handler {
	allowedSet := map[models.UserType]bool{}
	for _, t := range allowed {
		allowedSet[t] = true
	}

	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return models.RespondWithError(c, models.NewUnauthorizedError("No token provided"))
		}
		if !allowedSet[user.UserType] {
			return models.RespondWithError(c, models.NewForbiddenError("Insufficient role"))
		}
		return c.Next()
	}
}
