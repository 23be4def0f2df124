package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vpay-gamification/config"
	"vpay-gamification/events"
	"vpay-gamification/handlers"
	"vpay-gamification/middleware"
	"vpay-gamification/repository"
	"vpay-gamification/services"
	"vpay-gamification/utils"
	"vpay-gamification/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, loader, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	if cfg.Database.DSN == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}
	db, err := repository.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := events.NewHub()
	opts := services.EngineOptions{
		Notifier:           hub,
		AnalysisWindowDays: cfg.Recommendation.WindowDays,
	}

	r2 := utils.R2Config{
		AccountID:       cfg.R2.AccountID,
		AccessKeyID:     cfg.R2.AccessKeyID,
		AccessKeySecret: cfg.R2.AccessKeySecret,
		Bucket:          cfg.R2.Bucket,
		CDNBaseURL:      cfg.R2.CDNBaseURL,
	}
	if r2.Enabled() {
		publisher, err := utils.NewR2Publisher(ctx, r2)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		opts.Publisher = publisher
	} else {
		log.Println("⚠️  R2 not configured, badge metadata will not be published")
	}

	engine, err := services.NewEngine(db, opts)
	if err != nil {
		log.Fatal("failed to build engine:", err)
	}
	if err := engine.Bootstrap(ctx); err != nil {
		log.Fatal("failed to seed catalog:", err)
	}

	loader.OnChange(func(next *config.Config) {
		engine.Recommendations.SetWindowDays(next.Recommendation.WindowDays)
	})

	if cfg.Scheduler.Enabled {
		sched, err := workers.StartScheduler(ctx, &workers.Jobs{Engine: engine}, cfg.Scheduler.RankInterval)
		if err != nil {
			log.Fatal("failed to start scheduler:", err)
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				log.Printf("[Scheduler] shutdown: %v", err)
			}
		}()
	}

	if cfg.Sync.BaseURL != "" {
		syncClient := workers.NewTransactionSyncClient(cfg.Sync.BaseURL, cfg.Auth.ServiceToken, engine.Transactions)
		syncClient.OnSynced = func(ctx context.Context, userID string) {
			if err := engine.Leaderboards.UpdateUserScores(ctx, userID); err != nil {
				log.Printf("[SYNC] leaderboard refresh for %s: %v", userID, err)
			}
		}
		go workers.PollTransactions(ctx, syncClient, cfg.Sync.PollInterval)
	} else {
		log.Println("⚠️  SYNC_SERVICE_URL not set, ledger mirroring disabled")
	}

	app := fiber.New()

	// 🔐❗ GLOBAL: Only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.Auth.ServiceToken))

	origins := strings.Split(cfg.Server.AllowedOrigins, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	allowedOrigins := strings.Join(origins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, Cache-Control",
		ExposeHeaders: "Content-Length, Content-Type, X-Request-ID",
		MaxAge:        86400,
	}))

	handlers.SetupRoutes(app, engine, hub)

	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Server.Port)
	log.Printf("✅ CORS configured for origins: %s", allowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
