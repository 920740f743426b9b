package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medismart/medismart-backend/internal/models"
)

// DatabaseStore persists everything in postgres through gorm. Each call runs
// on its own pooled connection and commits before returning.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store backed by db
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (d *DatabaseStore) CreateOTPRequest(ctx context.Context, otp *models.OTPRequest) error {
	if err := d.db.WithContext(ctx).Create(otp).Error; err != nil {
		return fmt.Errorf("failed to create otp request: %w", err)
	}
	return nil
}

func (d *DatabaseStore) GetLatestOTPRequest(ctx context.Context, phone string) (*models.OTPRequest, error) {
	var otp models.OTPRequest
	err := d.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("id DESC").
		Take(&otp).Error
	if err != nil {
		return nil, translate(err, "otp request")
	}
	return &otp, nil
}

// ReserveOTPAttempt increments attempts only while it is below maxAttempts,
// so concurrent checks against one request never exceed the limit
func (d *DatabaseStore) ReserveOTPAttempt(ctx context.Context, id uint, maxAttempts int) (int, error) {
	var otp models.OTPRequest
	result := d.db.WithContext(ctx).
		Model(&otp).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "attempts"}}}).
		Where("id = ? AND attempts < ?", id, maxAttempts).
		UpdateColumn("attempts", gorm.Expr("attempts + ?", 1))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update otp request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return maxAttempts, ErrAttemptsExhausted
	}
	return otp.Attempts, nil
}

func (d *DatabaseStore) MarkOTPVerified(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).
		Model(&models.OTPRequest{}).
		Where("id = ? AND verified = ?", id, false).
		UpdateColumns(map[string]interface{}{
			"verified": true,
			"attempts": gorm.Expr("GREATEST(attempts - 1, 0)"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update otp request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyVerified
	}
	return nil
}

func (d *DatabaseStore) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).Where("phone_number = ?", phone).Take(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (d *DatabaseStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := d.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (d *DatabaseStore) ListMedicines(ctx context.Context) ([]*models.Medicine, error) {
	var medicines []*models.Medicine
	if err := d.db.WithContext(ctx).Order("name ASC").Find(&medicines).Error; err != nil {
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}
	return medicines, nil
}

func (d *DatabaseStore) GetMedicine(ctx context.Context, id uint) (*models.Medicine, error) {
	var medicine models.Medicine
	if err := d.db.WithContext(ctx).Where("id = ?", id).Take(&medicine).Error; err != nil {
		return nil, translate(err, "medicine")
	}
	return &medicine, nil
}

func (d *DatabaseStore) GetLowStockMedicines(ctx context.Context, threshold int) ([]*models.Medicine, error) {
	var medicines []*models.Medicine
	err := d.db.WithContext(ctx).
		Where("stock_quantity < ?", threshold).
		Order("stock_quantity ASC").
		Find(&medicines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock medicines: %w", err)
	}
	return medicines, nil
}

// SeedMedicines inserts the given catalog only when the table is empty and
// returns how many rows were inserted
func (d *DatabaseStore) SeedMedicines(ctx context.Context, medicines []models.Medicine) (int, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.Medicine{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count medicines: %w", err)
	}
	if count > 0 || len(medicines) == 0 {
		return 0, nil
	}

	if err := d.db.WithContext(ctx).Create(&medicines).Error; err != nil {
		return 0, fmt.Errorf("failed to seed medicines: %w", err)
	}
	return len(medicines), nil
}

func (d *DatabaseStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := d.db.WithContext(ctx).Omit("User", "Medicine").Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// CreateOrderAndDecrementStock reserves stock with a conditional update and
// inserts the order in the same transaction
func (d *DatabaseStore) CreateOrderAndDecrementStock(ctx context.Context, order *models.Order) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Medicine{}).
			Where("id = ? AND stock_quantity >= ?", order.MedicineID, order.Quantity).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", order.Quantity))
		if result.Error != nil {
			return fmt.Errorf("failed to decrement stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientStock
		}

		if err := tx.Omit("User", "Medicine").Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
}

func (d *DatabaseStore) GetOrdersByUser(ctx context.Context, userID uint, limit int) ([]*models.Order, error) {
	var orders []*models.Order
	query := d.db.WithContext(ctx).
		Preload("Medicine").
		Where("user_id = ?", userID).
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (d *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
