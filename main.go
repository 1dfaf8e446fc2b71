package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"engagement-engine/handlers"
	"engagement-engine/middleware"
	"engagement-engine/migrations"
	"engagement-engine/services"
	"engagement-engine/utils"
	"engagement-engine/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // 32MB, evidence photos only
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles, X-User-Name",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := migrations.Run(db); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	cfg := utils.LoadEngineConfig()

	ledgerService := services.NewLedgerService(db, cfg)
	accountService := services.NewAccountService(db, ledgerService)
	taskService := services.NewTaskService(db, ledgerService)
	submissionService := services.NewSubmissionService(db, ledgerService)
	battleService := services.NewBattleService(db, ledgerService, cfg)
	eventService := services.NewEventService(db, ledgerService, cfg)
	giftService := services.NewGiftService(db, ledgerService, cfg)
	socialService := services.NewSocialService(db)
	shopService := services.NewShopService(db, ledgerService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notificationWorker := workers.NewNotificationWorker(db)
	go notificationWorker.Poll(ctx, 10*time.Second)

	services.StartEngineScheduler(taskService, eventService)

	// ✅ Setup routes — enforced Gateway auth on everything
	handlers.SetupAccountRoutes(app, accountService, ledgerService)
	handlers.SetupTaskRoutes(app, accountService, taskService)
	handlers.SetupSubmissionRoutes(app, accountService, submissionService)
	handlers.SetupBattleRoutes(app, accountService, battleService)
	handlers.SetupEventRoutes(app, accountService, eventService)
	handlers.SetupGiftRoutes(app, accountService, giftService)
	handlers.SetupSocialRoutes(app, accountService, socialService)
	handlers.SetupShopRoutes(app, accountService, shopService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Notification delivery worker running (every 10s)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
