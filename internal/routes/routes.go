package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/sirupsen/logrus"

	"github.com/medismart/medismart-backend/internal/handlers"
	"github.com/medismart/medismart-backend/internal/metrics"
	"github.com/medismart/medismart-backend/internal/middleware"
)

// Dependencies bundles what the route table needs
type Dependencies struct {
	Auth      *handlers.AuthHandler
	Dashboard *handlers.DashboardHandler
	Orders    *handlers.OrderHandler
	Health    *handlers.HealthHandler

	Sessions *session.Store
	Limiter  *middleware.RateLimiter
	Logger   *logrus.Logger
}

// SetupRoutes configures all routes
func SetupRoutes(app *fiber.App, deps Dependencies) {
	requireLogin := middleware.RequireLogin(deps.Sessions, deps.Logger)
	limitAuth := deps.Limiter.Handler(deps.Auth.TooManyRequests)

	// Login page
	app.Get("/", deps.Auth.LoginPage)

	// Auth routes
	auth := app.Group("/auth")
	auth.Post("/request-otp", limitAuth, deps.Auth.RequestOTP)
	auth.Post("/verify-otp", limitAuth, deps.Auth.VerifyOTP)
	auth.Get("/logout", deps.Auth.Logout)

	// Logged-in routes
	app.Get("/dashboard", requireLogin, deps.Dashboard.Show)
	app.Post("/orders/place", requireLogin, deps.Orders.Place)

	// Operations
	app.Get("/health", deps.Health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
}
