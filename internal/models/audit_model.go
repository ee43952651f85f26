package models

import (
	"time"
)

type AuditLog struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	UserID        uint   `gorm:"index" json:"user_id"`
	Action        string `gorm:"size:50;not null" json:"action"`
	Description   string `gorm:"size:255" json:"description"`
	CorrelationID string `gorm:"size:36" json:"correlation_id"`
	CreatedAt     time.Time `json:"created_at"`
}
