package models

import "time"

// OTPRequest is one issued passcode for a phone number. Rows are never deleted;
// the highest ID for a phone is the only one considered for verification.
type OTPRequest struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Phone     string    `json:"phone" gorm:"not null;index"`
	OTPHash   string    `json:"-" gorm:"column:otp_hash;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Attempts  int       `json:"attempts" gorm:"not null"`
	Verified  bool      `json:"verified" gorm:"not null"`
}

// TableName keeps the table name stable regardless of gorm's pluralizer
func (OTPRequest) TableName() string { return "otp_requests" }

// IsExpired reports whether the request is past its expiry at the given time
func (o *OTPRequest) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// IsPending reports whether the request still blocks a new issuance
func (o *OTPRequest) IsPending(now time.Time) bool {
	return !o.Verified && now.Before(o.ExpiresAt)
}
