package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/sirupsen/logrus"
)

// SessionKeyUserPhone is the session value set after a verified login
const SessionKeyUserPhone = "user_phone"

const localsUserPhone = "userPhone"

// RequireLogin redirects to the login page unless the session carries a
// verified phone number. The phone is made available through UserPhone.
func RequireLogin(sessions *session.Store, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.Get(c)
		if err != nil {
			logger.WithError(err).Warn("Failed to load session")
			return c.Redirect("/", fiber.StatusFound)
		}

		phone, _ := sess.Get(SessionKeyUserPhone).(string)
		if phone == "" {
			return c.Redirect("/", fiber.StatusFound)
		}

		c.Locals(localsUserPhone, phone)
		return c.Next()
	}
}

// UserPhone returns the phone stored by RequireLogin
func UserPhone(c *fiber.Ctx) string {
	phone, _ := c.Locals(localsUserPhone).(string)
	return phone
}
