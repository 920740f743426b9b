package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medismart/medismart-backend/internal/middleware"
	"github.com/medismart/medismart-backend/internal/services"
	"github.com/medismart/medismart-backend/internal/views"
)

const recentOrdersLimit = 10

// DashboardHandler renders the catalog and order form
type DashboardHandler struct {
	catalog *services.CatalogService
	orders  *services.OrderService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(catalog *services.CatalogService, orders *services.OrderService) *DashboardHandler {
	return &DashboardHandler{
		catalog: catalog,
		orders:  orders,
	}
}

// Show renders the dashboard for the logged-in user
func (h *DashboardHandler) Show(c *fiber.Ctx) error {
	phone := middleware.UserPhone(c)

	medicines, err := h.catalog.List(c.UserContext())
	if err != nil {
		return err
	}

	recent, err := h.orders.RecentOrders(c.UserContext(), phone, recentOrdersLimit)
	if err != nil {
		return err
	}

	return c.Render("dashboard", views.Page{
		Phone:     phone,
		LoggedIn:  true,
		Info:      c.Query("message"),
		Error:     c.Query("error"),
		Medicines: medicines,
		Orders:    recent,
	})
}
