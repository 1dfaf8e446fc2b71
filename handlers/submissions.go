// handlers/submissions.go
package handlers

import (
	"fmt"
	"log"
	"path/filepath"

	"engagement-engine/middleware"
	"engagement-engine/services"
	"engagement-engine/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupSubmissionRoutes(app *fiber.App, accounts *services.AccountService, submissions *services.SubmissionService) {
	secured := app.Group("/", middleware.UserContextMiddleware(), middleware.AccountContextMiddleware(accounts))

	secured.Get("/submissions", submissions.GetMine)
	secured.Post("/submissions", submissions.PostCreate)

	// Evidence photos land in R2; the engine only ever sees the opaque key.
	secured.Post("/submissions/evidence", func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("evidence")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "evidence file is required"})
		}
		key := fmt.Sprintf("evidence/%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename))
		url, err := utils.UploadFileToR2(fileHeader, key)
		if err != nil {
			log.Printf("R2 Error uploading evidence: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store evidence"})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"evidence_key": key, "url": url})
	})

	admin := secured.Group("/admin", middleware.RequireAdmin())
	admin.Get("/submissions/pending", submissions.GetPending)
	admin.Post("/submissions/:id/review", submissions.PostReview)
}
