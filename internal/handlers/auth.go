package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/sirupsen/logrus"

	"github.com/medismart/medismart-backend/internal/metrics"
	"github.com/medismart/medismart-backend/internal/middleware"
	"github.com/medismart/medismart-backend/internal/services"
	"github.com/medismart/medismart-backend/internal/views"
)

// AuthHandler handles login, OTP and logout requests
type AuthHandler struct {
	otp      *services.OTPService
	sessions *session.Store
	logger   *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(otp *services.OTPService, sessions *session.Store, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		otp:      otp,
		sessions: sessions,
		logger:   logger,
	}
}

// LoginPage renders the login form
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return c.Render("login", views.Page{})
}

// RequestOTP issues a passcode for the submitted phone number
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	phone := strings.TrimSpace(c.FormValue("phone"))
	if phone == "" {
		return c.Render("login", views.Page{Error: "Please enter your phone number."})
	}

	result, err := h.otp.Issue(c.UserContext(), phone)
	if err != nil {
		metrics.RecordOTPIssue("error")
		return err
	}
	metrics.RecordOTPIssue(string(result.Status))

	page := views.Page{Phone: phone}
	if result.Status == services.IssueThrottled {
		page.Error = result.Message()
	} else {
		page.Info = result.Message()
	}
	return c.Render("login", page)
}

// VerifyOTP checks the submitted passcode and logs the user in on success
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	phone := strings.TrimSpace(c.FormValue("phone"))
	code := strings.TrimSpace(c.FormValue("otp"))
	if phone == "" || code == "" {
		return c.Render("login", views.Page{Phone: phone, Error: "Phone and OTP are required."})
	}

	result, err := h.otp.Verify(c.UserContext(), phone, code)
	if err != nil {
		metrics.RecordOTPVerify("error")
		return err
	}
	metrics.RecordOTPVerify(string(result.Status))

	if result.Status != services.VerifyAccepted {
		return c.Render("login", views.Page{Phone: phone, Error: result.Message()})
	}

	sess, err := h.sessions.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(middleware.SessionKeyUserPhone, phone)
	if err := sess.Save(); err != nil {
		return err
	}

	h.logger.WithField("user_id", result.User.ID).Info("✅ User logged in")
	return c.Redirect("/dashboard", fiber.StatusFound)
}

// Logout clears the session
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Destroy(); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// TooManyRequests renders the login page for rate-limited clients
func (h *AuthHandler) TooManyRequests(c *fiber.Ctx) error {
	return c.Render("login", views.Page{
		Phone: strings.TrimSpace(c.FormValue("phone")),
		Error: "Too many requests. Please wait a moment and try again.",
	})
}
