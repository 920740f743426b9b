package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/sirupsen/logrus"

	"github.com/medismart/medismart-backend/database"
	"github.com/medismart/medismart-backend/internal/config"
	"github.com/medismart/medismart-backend/internal/handlers"
	"github.com/medismart/medismart-backend/internal/jobs"
	"github.com/medismart/medismart-backend/internal/logging"
	"github.com/medismart/medismart-backend/internal/middleware"
	"github.com/medismart/medismart-backend/internal/routes"
	"github.com/medismart/medismart-backend/internal/services"
	"github.com/medismart/medismart-backend/internal/storage"
)

const version = "1.0.0"

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	log := logging.New(cfg.LogLevel, cfg.Environment)

	if err := run(cfg, log); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// run wires the service and blocks until the server stops
func run(cfg *config.Config, log *logrus.Logger) error {
	// Initialize storage
	var store storage.Store
	storageType := "PostgreSQL Database"

	if cfg.UseMemoryStore {
		log.Warn("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
		storageType = "In-Memory (Testing)"
	} else {
		log.Info("📦 Connecting to PostgreSQL database...")
		db, err := database.Connect(cfg.Database, log)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			if err := database.Close(db); err != nil {
				log.WithError(err).Warn("Failed to close database")
			}
		}()

		log.Info("🔄 Running database migrations...")
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(db)
	}

	// Initialize services
	notifier := services.NewLogNotifier(log)
	otpService := services.NewOTPService(store, notifier, log, services.OTPOptions{
		TTL:         cfg.OTP.TTL(),
		MaxAttempts: cfg.OTP.MaxAttempts,
		HashCost:    cfg.OTP.HashCost,
	})
	orderService := services.NewOrderService(store, log, cfg.Orders.DecrementStock)
	catalogService := services.NewCatalogService(store, log)

	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := catalogService.SeedStarterCatalog(seedCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	if !cfg.IsDevelopment() && !cfg.Session.CookieSecure {
		log.Warn("⚠️  SESSION_COOKIE_SECURE is off outside development")
	}

	sessions := session.New(session.Config{
		Expiration:     cfg.Session.TTL(),
		KeyLookup:      "cookie:medismart_session",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.Session.CookieSecure,
		CookieSameSite: "Lax",
	})
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)

	// Start scheduled jobs
	scheduler := jobs.NewScheduler(catalogService, limiter, log, cfg.Orders.LowStockThreshold)
	if err := scheduler.Start(cfg.Jobs.StockReportSchedule); err != nil {
		return fmt.Errorf("failed to start scheduled jobs: %w", err)
	}

	// Create fiber app
	app := routes.NewApp(log, true)
	routes.SetupRoutes(app, routes.Dependencies{
		Auth:      handlers.NewAuthHandler(otpService, sessions, log),
		Dashboard: handlers.NewDashboardHandler(catalogService, orderService),
		Orders:    handlers.NewOrderHandler(orderService),
		Health:    handlers.NewHealthHandler(version, storageType, store),
		Sessions:  sessions,
		Limiter:   limiter,
		Logger:    log,
	})

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("🛑 Gracefully shutting down...")
		scheduler.Stop()
		log.Info("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	log.Info("========================================")
	log.Infof("🚀 MediSmart Backend starting on port %s", cfg.Port)
	log.Infof("📊 Storage: %s", storageType)
	log.Infof("🌍 Environment: %s", cfg.Environment)
	log.Infof("🔐 OTP: %ds expiry, %d attempts", cfg.OTP.ExpirySeconds, cfg.OTP.MaxAttempts)
	log.Infof("📦 Stock decrement on order: %v", cfg.Orders.DecrementStock)
	log.Info("========================================")

	if err := app.Listen(":" + cfg.Port); err != nil {
		scheduler.Stop()
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
