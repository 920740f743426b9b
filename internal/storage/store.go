package storage

import (
	"context"
	"errors"

	"github.com/medismart/medismart-backend/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientStock is returned when a conditional stock decrement matches no row
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrAttemptsExhausted is returned when an OTP request has no verification attempts left
	ErrAttemptsExhausted = errors.New("otp attempts exhausted")

	// ErrAlreadyVerified is returned when an OTP request was verified by an earlier call
	ErrAlreadyVerified = errors.New("otp already verified")
)

// Store defines the interface for storage operations
type Store interface {
	// OTP operations
	CreateOTPRequest(ctx context.Context, otp *models.OTPRequest) error
	GetLatestOTPRequest(ctx context.Context, phone string) (*models.OTPRequest, error)
	// ReserveOTPAttempt counts one verification attempt while fewer than
	// maxAttempts have been used and returns the new count
	ReserveOTPAttempt(ctx context.Context, id uint, maxAttempts int) (int, error)
	// MarkOTPVerified flips an unverified request to verified and gives back
	// the attempt reserved for the successful check
	MarkOTPVerified(ctx context.Context, id uint) error

	// User operations
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	// Medicine operations
	ListMedicines(ctx context.Context) ([]*models.Medicine, error)
	GetMedicine(ctx context.Context, id uint) (*models.Medicine, error)
	GetLowStockMedicines(ctx context.Context, threshold int) ([]*models.Medicine, error)
	SeedMedicines(ctx context.Context, medicines []models.Medicine) (int, error)

	// Order operations
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderAndDecrementStock(ctx context.Context, order *models.Order) error
	GetOrdersByUser(ctx context.Context, userID uint, limit int) ([]*models.Order, error)

	// Ping reports whether the datastore is reachable
	Ping(ctx context.Context) error
}
