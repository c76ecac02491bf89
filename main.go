package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"chalk-table-service/handlers"
	"chalk-table-service/middleware"
	"chalk-table-service/models"
	"chalk-table-service/services"
	"chalk-table-service/store"
	"chalk-table-service/utils"
	"chalk-table-service/workers"

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
		AppName: "chalk-table-service",
	})

	// 🔐 GLOBAL: only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware())
	app.Use(middleware.UserContextMiddleware())

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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Name",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(&models.GameRecord{}); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if utils.R2Configured() {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	} else {
		log.Println("⚠️  R2 not configured, daily history export disabled")
	}

	tableStore := store.NewTableStore()
	history := services.NewGormHistoryRepo(db)

	tableService := services.NewTableService(tableStore)
	queueService := services.NewQueueService(tableStore)
	gameService := services.NewGameService(tableStore, history)
	killerService := services.NewKillerService(tableStore, gameService, history)
	tournamentService := services.NewTournamentService(tableStore, gameService, history)
	statsService := services.NewStatsService(tableStore, history)

	var sched *services.Scheduler
	if utils.R2Configured() {
		archiver := workers.NewHistoryArchiver(tableStore, history)
		sched = services.NewScheduler(gameService, queueService, archiver)
	} else {
		sched = services.NewScheduler(gameService, queueService, nil)
	}
	sched.Start()
	defer sched.Stop()

	handlers.SetupTableRoutes(app, tableService)
	handlers.SetupQueueRoutes(app, queueService)
	handlers.SetupGameRoutes(app, gameService, killerService)
	handlers.SetupTournamentRoutes(app, tournamentService)
	handlers.SetupStatsRoutes(app, statsService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
