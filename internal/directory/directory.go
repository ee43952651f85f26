package directory

import (
	"errors"

	"github.com/IamMattHenry/hris-sub000/internal/models"
	"gorm.io/gorm"
)

// Identity is the resolved view of a user the recovery flow works with.
type Identity struct {
	UserID          uint
	DisplayName     string
	DeliveryAddress string
}

// FindByIdentifier resolves a username or email to an identity. Returns
// (nil, nil) when no user matches; callers at the boundary must not leak
// that distinction.
func FindByIdentifier(db *gorm.DB, identifier string) (*Identity, error) {
	var user models.User
	err := db.Where("username = ? OR email = ?", identifier, identifier).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &Identity{
		UserID:          user.ID,
		DisplayName:     user.Name,
		DeliveryAddress: user.Email,
	}, nil
}

// SetPasswordHash writes a new credential hash for the user. Takes the
// caller's db handle so it can run inside a transaction.
func SetPasswordHash(db *gorm.DB, userID uint, hash string) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Update("password", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
