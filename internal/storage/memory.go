package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/medismart/medismart-backend/internal/models"
)

// MemoryStore holds all data in memory for local runs and tests
type MemoryStore struct {
	otps      map[uint]*models.OTPRequest
	users     map[uint]*models.User
	medicines map[uint]*models.Medicine
	orders    map[uint]*models.Order

	// Mutexes for thread safety
	otpMu      sync.RWMutex
	userMu     sync.RWMutex
	medicineMu sync.RWMutex
	orderMu    sync.RWMutex

	// Counters for ID generation
	otpCounter      uint
	userCounter     uint
	medicineCounter uint
	orderCounter    uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		otps:      make(map[uint]*models.OTPRequest),
		users:     make(map[uint]*models.User),
		medicines: make(map[uint]*models.Medicine),
		orders:    make(map[uint]*models.Order),
	}
}

// OTP operations
func (m *MemoryStore) CreateOTPRequest(_ context.Context, otp *models.OTPRequest) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	m.otpCounter++
	otp.ID = m.otpCounter

	stored := *otp
	m.otps[otp.ID] = &stored
	return nil
}

func (m *MemoryStore) GetLatestOTPRequest(_ context.Context, phone string) (*models.OTPRequest, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	var latest *models.OTPRequest
	for _, otp := range m.otps {
		if otp.Phone != phone {
			continue
		}
		if latest == nil || otp.ID > latest.ID {
			latest = otp
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("otp request: %w", ErrNotFound)
	}

	found := *latest
	return &found, nil
}

func (m *MemoryStore) ReserveOTPAttempt(_ context.Context, id uint, maxAttempts int) (int, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp, exists := m.otps[id]
	if !exists {
		return 0, fmt.Errorf("otp request: %w", ErrNotFound)
	}
	if otp.Attempts >= maxAttempts {
		return otp.Attempts, ErrAttemptsExhausted
	}
	otp.Attempts++
	return otp.Attempts, nil
}

func (m *MemoryStore) MarkOTPVerified(_ context.Context, id uint) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp, exists := m.otps[id]
	if !exists {
		return fmt.Errorf("otp request: %w", ErrNotFound)
	}
	if otp.Verified {
		return ErrAlreadyVerified
	}
	otp.Verified = true
	if otp.Attempts > 0 {
		otp.Attempts--
	}
	return nil
}

// User operations
func (m *MemoryStore) GetUserByPhone(_ context.Context, phone string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	for _, user := range m.users {
		if user.PhoneNumber == phone {
			found := *user
			return &found, nil
		}
	}
	return nil, fmt.Errorf("user: %w", ErrNotFound)
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	for _, existing := range m.users {
		if existing.PhoneNumber == user.PhoneNumber {
			return fmt.Errorf("user with phone %s already exists", user.PhoneNumber)
		}
	}

	m.userCounter++
	user.ID = m.userCounter

	stored := *user
	m.users[user.ID] = &stored
	return nil
}

// Medicine operations
func (m *MemoryStore) ListMedicines(_ context.Context) ([]*models.Medicine, error) {
	m.medicineMu.RLock()
	defer m.medicineMu.RUnlock()

	medicines := make([]*models.Medicine, 0, len(m.medicines))
	for _, medicine := range m.medicines {
		found := *medicine
		medicines = append(medicines, &found)
	}
	sort.Slice(medicines, func(i, j int) bool {
		if medicines[i].Name == medicines[j].Name {
			return medicines[i].ID < medicines[j].ID
		}
		return medicines[i].Name < medicines[j].Name
	})
	return medicines, nil
}

func (m *MemoryStore) GetMedicine(_ context.Context, id uint) (*models.Medicine, error) {
	m.medicineMu.RLock()
	defer m.medicineMu.RUnlock()

	medicine, exists := m.medicines[id]
	if !exists {
		return nil, fmt.Errorf("medicine: %w", ErrNotFound)
	}
	found := *medicine
	return &found, nil
}

func (m *MemoryStore) GetLowStockMedicines(_ context.Context, threshold int) ([]*models.Medicine, error) {
	m.medicineMu.RLock()
	defer m.medicineMu.RUnlock()

	var medicines []*models.Medicine
	for _, medicine := range m.medicines {
		if medicine.StockQuantity < threshold {
			found := *medicine
			medicines = append(medicines, &found)
		}
	}
	sort.Slice(medicines, func(i, j int) bool {
		return medicines[i].StockQuantity < medicines[j].StockQuantity
	})
	return medicines, nil
}

func (m *MemoryStore) SeedMedicines(_ context.Context, medicines []models.Medicine) (int, error) {
	m.medicineMu.Lock()
	defer m.medicineMu.Unlock()

	if len(m.medicines) > 0 {
		return 0, nil
	}

	for i := range medicines {
		m.medicineCounter++
		medicine := medicines[i]
		medicine.ID = m.medicineCounter
		m.medicines[medicine.ID] = &medicine
	}
	return len(medicines), nil
}

// Order operations
func (m *MemoryStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	m.insertOrder(order)
	return nil
}

func (m *MemoryStore) CreateOrderAndDecrementStock(_ context.Context, order *models.Order) error {
	m.medicineMu.Lock()
	defer m.medicineMu.Unlock()

	medicine, exists := m.medicines[order.MedicineID]
	if !exists || medicine.StockQuantity < order.Quantity {
		return ErrInsufficientStock
	}
	medicine.StockQuantity -= order.Quantity

	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	m.insertOrder(order)
	return nil
}

// insertOrder requires orderMu to be held
func (m *MemoryStore) insertOrder(order *models.Order) {
	m.orderCounter++
	order.ID = m.orderCounter

	stored := *order
	stored.User = nil
	stored.Medicine = nil
	m.orders[order.ID] = &stored
}

func (m *MemoryStore) GetOrdersByUser(_ context.Context, userID uint, limit int) ([]*models.Order, error) {
	m.orderMu.RLock()
	var orders []*models.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			found := *order
			orders = append(orders, &found)
		}
	}
	m.orderMu.RUnlock()

	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}

	m.medicineMu.RLock()
	defer m.medicineMu.RUnlock()
	for _, order := range orders {
		if medicine, exists := m.medicines[order.MedicineID]; exists {
			found := *medicine
			order.Medicine = &found
		}
	}
	return orders, nil
}

func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}
