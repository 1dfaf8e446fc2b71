// handlers/accounts.go
package handlers

import (
	"engagement-engine/middleware"
	"engagement-engine/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAccountRoutes wires the account surface: registration, the read-only
// balance query the web view polls, the bulk summary, ledger history, and
// the admin account tools.
func SetupAccountRoutes(app *fiber.App, accounts *services.AccountService, ledger *services.LedgerService) {
	secured := app.Group("/", middleware.UserContextMiddleware(), middleware.AccountContextMiddleware(accounts))

	secured.Post("/account/register", accounts.PostRegister)
	secured.Get("/account/balance", accounts.GetBalance)
	secured.Get("/account/summary", accounts.GetSummary)
	secured.Get("/account/ledger", ledger.GetHistory)

	admin := secured.Group("/admin", middleware.RequireAdmin())
	admin.Post("/accounts/:id/deactivate", accounts.Deactivate)
	admin.Put("/accounts/:id/role", accounts.SetRole)
	admin.Post("/accounts/:id/grant", accounts.Grant)
}
