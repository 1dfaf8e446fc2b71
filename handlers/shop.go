// handlers/shop.go
package handlers

import (
	"engagement-engine/middleware"
	"engagement-engine/services"

	"github.com/gofiber/fiber/v2"
)

func SetupShopRoutes(app *fiber.App, accounts *services.AccountService, shop *services.ShopService) {
	secured := app.Group("/", middleware.UserContextMiddleware(), middleware.AccountContextMiddleware(accounts))

	secured.Get("/shop/items", shop.GetItems)
	secured.Post("/shop/items/:item_id/buy", shop.PostBuy)

	admin := secured.Group("/admin", middleware.RequireAdmin())
	admin.Post("/shop/items", shop.PostCreateItem)
}
