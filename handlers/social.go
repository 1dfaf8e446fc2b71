// handlers/social.go
package handlers

import (
	"engagement-engine/middleware"
	"engagement-engine/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSocialRoutes(app *fiber.App, accounts *services.AccountService, social *services.SocialService) {
	secured := app.Group("/", middleware.UserContextMiddleware(), middleware.AccountContextMiddleware(accounts))

	secured.Get("/achievements", social.GetFeed)
	secured.Post("/achievements", social.PostAchievement)
	secured.Post("/achievements/:id/like", social.PostLike)
	secured.Get("/achievements/:id/comments", social.GetComments)
	secured.Post("/achievements/:id/comments", social.PostComment)
}
