// handlers/events.go
package handlers

import (
	"engagement-engine/middleware"
	"engagement-engine/services"

	"github.com/gofiber/fiber/v2"
)

func SetupEventRoutes(app *fiber.App, accounts *services.AccountService, events *services.EventService) {
	secured := app.Group("/", middleware.UserContextMiddleware(), middleware.AccountContextMiddleware(accounts))

	secured.Get("/events", events.GetUpcoming)
	secured.Post("/events/:slot_id/book", events.PostBook)
	secured.Delete("/events/:slot_id/book", events.DeleteBooking)

	admin := secured.Group("/admin", middleware.RequireAdmin())
	admin.Post("/events", events.PostCreateSlot)
	admin.Post("/bookings/:booking_id/attended", events.PostMarkAttended)
}
