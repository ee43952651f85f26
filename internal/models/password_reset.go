package models

import (
	"time"
)

const PurposePasswordReset = "password_reset"

// PasswordResetOTP stores one issued recovery code. Only the bcrypt hash of
// the code is persisted; the plaintext leaves the process through the
// delivery channel and is never stored.
type PasswordResetOTP struct {
	ID              uint   `gorm:"primaryKey"`
	UserID          uint   `gorm:"not null;index"`
	Identifier      string `gorm:"size:100"` // what the user typed, kept for audit
	Purpose         string `gorm:"size:50;not null"`
	CodeHash        string `gorm:"size:255;not null"`
	DeliveryChannel string `gorm:"size:20"`
	ExpiresAt       time.Time `gorm:"not null"`
	ConsumedAt      *time.Time
	Attempts        int `gorm:"default:0"`
	CreatedAt       time.Time
}

// Active reports whether the row can still be verified against.
func (o *PasswordResetOTP) Active(now time.Time) bool {
	return o.ConsumedAt == nil && o.ExpiresAt.After(now)
}

// ResetToken is the single-use secret minted when an OTP is verified.
// Stored hashed; the plaintext is returned to the caller exactly once.
type ResetToken struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     uint   `gorm:"not null;index"`
	TokenHash  string `gorm:"size:255;not null"`
	ExpiresAt  time.Time `gorm:"not null"`
	ConsumedAt *time.Time
	CreatedAt  time.Time
}
