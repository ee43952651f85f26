package auth

import (
	"fmt"

	"github.com/IamMattHenry/hris-sub000/internal/database"
	"github.com/IamMattHenry/hris-sub000/internal/models"
	"github.com/IamMattHenry/hris-sub000/internal/utils"
)

func LoginUser(identifier, password string) (string, *models.User, error) {
	var user models.User
	err := database.DB.Where("username = ? OR email = ?", identifier, identifier).First(&user).Error
	if err != nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	accessToken, err := utils.GenerateJWT(user.ID)
	if err != nil {
		return "", nil, err
	}

	return accessToken, &user, nil
}
