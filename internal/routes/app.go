package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/medismart/medismart-backend/internal/handlers"
	"github.com/medismart/medismart-backend/internal/middleware"
	"github.com/medismart/medismart-backend/internal/views"
)

// AppName is reported by fiber and the health endpoint
const AppName = "MediSmart Backend v1.0.0"

// NewApp creates the fiber app with views, error handling and the common middleware stack
func NewApp(log *logrus.Logger, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      AppName,
		Views:        views.New(),
		ErrorHandler: handlers.ErrorHandler(log),
		// form values end up in stores that outlive the request buffer
		Immutable: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if accessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
			Output: log.Writer(),
		}))
	}
	app.Use(middleware.Metrics())

	return app
}
