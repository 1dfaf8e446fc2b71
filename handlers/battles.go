// handlers/battles.go
package handlers

import (
	"engagement-engine/middleware"
	"engagement-engine/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBattleRoutes(app *fiber.App, accounts *services.AccountService, battles *services.BattleService) {
	secured := app.Group("/", middleware.UserContextMiddleware(), middleware.AccountContextMiddleware(accounts))

	secured.Get("/battles", battles.GetMine)
	secured.Post("/battles", battles.PostFight)
}
