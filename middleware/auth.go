// middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"engagement-engine/models"
	"engagement-engine/services"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the actor identity the Gateway injected.
// Every engine route is per-actor, so a missing X-User-ID is a hard stop.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID missing on %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through gateway with auth context",
			})
		}

		var roles []string
		if rolesStr := c.Get("X-User-Roles"); rolesStr != "" {
			for _, r := range strings.Split(rolesStr, ",") {
				if r = strings.TrimSpace(r); r != "" {
					roles = append(roles, r)
				}
			}
		}

		c.Locals("user_id", userID)
		c.Locals("user_roles", roles)
		return c.Next()
	}
}

// AccountContextMiddleware resolves (creating on first contact) the engine
// account behind the gateway identity and attaches it for handlers.
func AccountContextMiddleware(accounts *services.AccountService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		displayName := c.Get("X-User-Name")

		acc, err := accounts.EnsureAccount(userID, displayName)
		if err != nil {
			log.Printf("❌ [ACCOUNT_CTX] Failed to resolve account for %s: %v", userID, err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "failed to resolve account",
			})
		}
		c.Locals("account", acc)
		c.Locals("account_id", acc.ID)
		return c.Next()
	}
}

// RequireAdmin gates the review/grant surface behind the admin role on the
// engine account itself, not just a gateway header.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, ok := c.Locals("account").(*models.Account)
		if !ok || !acc.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin role required",
			})
		}
		return c.Next()
	}
}
