package recovery

import (
	"errors"
	"time"

	"github.com/IamMattHenry/hris-sub000/internal/models"
	"gorm.io/gorm"
)

// latestUnconsumedOTP returns the newest OTP row for (user, purpose) that has
// not been consumed, expired or not. Returns (nil, nil) when none exists.
func latestUnconsumedOTP(db *gorm.DB, userID uint, purpose string) (*models.PasswordResetOTP, error) {
	var otp models.PasswordResetOTP
	err := db.Where("user_id = ? AND purpose = ? AND consumed_at IS NULL", userID, purpose).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &otp, nil
}

// recordFailedAttempt bumps the attempt counter in SQL so concurrent
// verifications cannot lose an increment.
func recordFailedAttempt(db *gorm.DB, otpID uint) error {
	return db.Model(&models.PasswordResetOTP{}).
		Where("id = ?", otpID).
		UpdateColumn("attempts", gorm.Expr("attempts + ?", 1)).Error
}

// consumeOTP marks the row consumed, counting the successful attempt too.
// The consumed_at guard makes consumption first-wins under concurrency;
// returns false when another request already consumed the row.
func consumeOTP(db *gorm.DB, otpID uint, now time.Time) (bool, error) {
	result := db.Model(&models.PasswordResetOTP{}).
		Where("id = ? AND consumed_at IS NULL", otpID).
		Updates(map[string]interface{}{
			"consumed_at": now,
			"attempts":    gorm.Expr("attempts + ?", 1),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// unconsumedTokens lists reset tokens that have not been redeemed, newest
// first. Expired rows are included so resolution can report expiry as its
// own outcome.
func unconsumedTokens(db *gorm.DB) ([]models.ResetToken, error) {
	var tokens []models.ResetToken
	err := db.Where("consumed_at IS NULL").
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// consumeResetToken marks the token redeemed, first-wins.
func consumeResetToken(db *gorm.DB, tokenID uint, now time.Time) (bool, error) {
	result := db.Model(&models.ResetToken{}).
		Where("id = ? AND consumed_at IS NULL", tokenID).
		Update("consumed_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
