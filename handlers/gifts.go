// handlers/gifts.go
package handlers

import (
	"engagement-engine/middleware"
	"engagement-engine/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGiftRoutes(app *fiber.App, accounts *services.AccountService, gifts *services.GiftService) {
	secured := app.Group("/", middleware.UserContextMiddleware(), middleware.AccountContextMiddleware(accounts))

	secured.Get("/gifts/received", gifts.GetReceived)
	secured.Post("/gifts", gifts.PostSend)
}
