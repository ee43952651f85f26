package audit

import (
	"log"

	"github.com/IamMattHenry/hris-sub000/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const ActionPasswordReset = "password_reset"

// Sink appends security-relevant actions to the audit log table.
// Appends are best effort: a write failure is logged and swallowed so it
// never rolls back the action it describes.
type Sink struct {
	db *gorm.DB
}

func NewSink(db *gorm.DB) *Sink {
	return &Sink{db: db}
}

func (s *Sink) Append(userID uint, action, description string) {
	entry := models.AuditLog{
		UserID:        userID,
		Action:        action,
		Description:   description,
		CorrelationID: uuid.NewString(),
	}

	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("⚠️  Failed to append audit log for user %d: %v", userID, err)
	}
}

// Recent returns the latest audit entries, newest first.
func (s *Sink) Recent(limit int) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
