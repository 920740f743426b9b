package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/medismart/medismart-backend/internal/models"
	"github.com/medismart/medismart-backend/internal/storage"
)

// Rejection reasons for order placement
const (
	ReasonMissingFields      = "Please complete all order fields."
	ReasonQuantityNotNumber  = "Quantity must be a whole number."
	ReasonQuantityTooSmall   = "Quantity must be at least 1."
	ReasonInvalidPaymentMode = "Invalid payment mode selected."
	ReasonUserNotFound       = "User record not found. Please login again."
	ReasonMedicineNotFound   = "Selected medicine not found."
	ReasonInsufficientStock  = "Not enough stock available for that quantity."

	MessageOrderPlaced = "Order placed successfully."
)

// PlaceOrderRequest carries the raw order form values
type PlaceOrderRequest struct {
	UserPhone   string
	MedicineID  string
	Quantity    string
	PaymentMode string
}

// PlaceOrderResult is either a placed order or a rejection reason
type PlaceOrderResult struct {
	Order  *models.Order
	Reason string
}

// Placed reports whether the order was recorded
func (r *PlaceOrderResult) Placed() bool {
	return r.Order != nil
}

func rejected(reason string) *PlaceOrderResult {
	return &PlaceOrderResult{Reason: reason}
}

// OrderService validates and records orders against current stock
type OrderService struct {
	store          storage.Store
	logger         *logrus.Logger
	decrementStock bool
	now            func() time.Time
}

// NewOrderService creates a new order service. With decrementStock set,
// placement reserves stock atomically instead of only checking it.
func NewOrderService(store storage.Store, logger *logrus.Logger, decrementStock bool) *OrderService {
	return &OrderService{
		store:          store,
		logger:         logger,
		decrementStock: decrementStock,
		now:            time.Now,
	}
}

// Place validates req and records the order. Validation failures come back
// as a rejection; only datastore failures are returned as errors.
func (s *OrderService) Place(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	medicineID := strings.TrimSpace(req.MedicineID)
	quantityRaw := strings.TrimSpace(req.Quantity)
	paymentMode := strings.TrimSpace(req.PaymentMode)

	if medicineID == "" || quantityRaw == "" || paymentMode == "" {
		return rejected(ReasonMissingFields), nil
	}

	quantity, err := strconv.Atoi(quantityRaw)
	if err != nil {
		return rejected(ReasonQuantityNotNumber), nil
	}
	if quantity <= 0 {
		return rejected(ReasonQuantityTooSmall), nil
	}
	if !models.IsValidPaymentMode(paymentMode) {
		return rejected(ReasonInvalidPaymentMode), nil
	}

	user, err := s.store.GetUserByPhone(ctx, req.UserPhone)
	if errors.Is(err, storage.ErrNotFound) {
		return rejected(ReasonUserNotFound), nil
	}
	if err != nil {
		return nil, err
	}

	id, err := strconv.ParseUint(medicineID, 10, 64)
	if err != nil {
		return rejected(ReasonMedicineNotFound), nil
	}
	medicine, err := s.store.GetMedicine(ctx, uint(id))
	if errors.Is(err, storage.ErrNotFound) {
		return rejected(ReasonMedicineNotFound), nil
	}
	if err != nil {
		return nil, err
	}

	if quantity > medicine.StockQuantity {
		return rejected(ReasonInsufficientStock), nil
	}

	order := &models.Order{
		UserID:      user.ID,
		MedicineID:  medicine.ID,
		Quantity:    quantity,
		PaymentMode: paymentMode,
		Status:      models.OrderStatusPlaced,
		CreatedAt:   s.now(),
	}

	if s.decrementStock {
		err = s.store.CreateOrderAndDecrementStock(ctx, order)
		if errors.Is(err, storage.ErrInsufficientStock) {
			return rejected(ReasonInsufficientStock), nil
		}
	} else {
		err = s.store.CreateOrder(ctx, order)
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"user_id":      user.ID,
		"medicine_id":  medicine.ID,
		"quantity":     quantity,
		"payment_mode": paymentMode,
	}).Info("📦 Order placed")

	order.Medicine = medicine
	return &PlaceOrderResult{Order: order}, nil
}

// RecentOrders returns the latest orders for the user behind phone
func (s *OrderService) RecentOrders(ctx context.Context, phone string, limit int) ([]*models.Order, error) {
	user, err := s.store.GetUserByPhone(ctx, phone)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.store.GetOrdersByUser(ctx, user.ID, limit)
}
