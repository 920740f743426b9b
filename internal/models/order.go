package models

import "time"

// Order records a purchase of one medicine by a user
type Order struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	MedicineID  uint      `json:"medicine_id" gorm:"not null;index"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	PaymentMode string    `json:"payment_mode" gorm:"size:8;not null"` // "COD", "UPI"
	Status      string    `json:"status" gorm:"size:32;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null"`

	User     *User     `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
	Medicine *Medicine `json:"medicine,omitempty" gorm:"constraint:OnDelete:RESTRICT"`
}

// Order constants
const (
	PaymentModeCOD = "COD"
	PaymentModeUPI = "UPI"

	OrderStatusPlaced = "Placed"
)

// IsValidPaymentMode reports whether mode is an accepted payment mode
func IsValidPaymentMode(mode string) bool {
	return mode == PaymentModeCOD || mode == PaymentModeUPI
}
