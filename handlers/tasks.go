// handlers/tasks.go
package handlers

import (
	"engagement-engine/middleware"
	"engagement-engine/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTaskRoutes(app *fiber.App, accounts *services.AccountService, tasks *services.TaskService) {
	secured := app.Group("/", middleware.UserContextMiddleware(), middleware.AccountContextMiddleware(accounts))

	secured.Get("/tasks", tasks.GetMine)
	secured.Post("/tasks", tasks.PostCreate)
	secured.Post("/tasks/:id/start", tasks.PostStart)
	secured.Post("/tasks/:id/complete", tasks.PostComplete)
	secured.Post("/tasks/:id/cancel", tasks.PostCancel)
	secured.Post("/tasks/:id/postpone", tasks.PostPostpone)
}
