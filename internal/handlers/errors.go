package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"

	"github.com/medismart/medismart-backend/internal/views"
)

// ErrorHandler logs unexpected failures and renders the error page
func ErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}

		if code >= fiber.StatusInternalServerError {
			logger.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Error("❌ Request failed")
		}

		c.Status(code)
		if renderErr := c.Render("error", views.Page{}); renderErr != nil {
			return c.SendString(utils.StatusMessage(code))
		}
		return nil
	}
}
