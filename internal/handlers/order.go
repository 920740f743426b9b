package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/medismart/medismart-backend/internal/metrics"
	"github.com/medismart/medismart-backend/internal/middleware"
	"github.com/medismart/medismart-backend/internal/services"
)

// OrderHandler handles order placement
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Place validates the order form and redirects back to the dashboard with
// the outcome
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	result, err := h.orders.Place(c.UserContext(), services.PlaceOrderRequest{
		UserPhone:   middleware.UserPhone(c),
		MedicineID:  c.FormValue("medicine_id"),
		Quantity:    c.FormValue("quantity"),
		PaymentMode: c.FormValue("payment_mode"),
	})
	if err != nil {
		metrics.RecordOrder("error")
		return err
	}

	params := url.Values{}
	if result.Placed() {
		metrics.RecordOrder("placed")
		params.Set("message", services.MessageOrderPlaced)
	} else {
		metrics.RecordOrder("rejected")
		params.Set("error", result.Reason)
	}
	return c.Redirect("/dashboard?"+params.Encode(), fiber.StatusFound)
}
