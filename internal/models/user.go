package models

import "time"

// User is created on the first successful OTP verification for a phone number
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	PhoneNumber string    `json:"phone_number" gorm:"column:phone_number;uniqueIndex;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null"`
}
