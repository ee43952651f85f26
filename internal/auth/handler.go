package auth

import (
	"github.com/IamMattHenry/hris-sub000/internal/response"
	"github.com/gofiber/fiber/v2"
)

func LoginHandler(c *fiber.Ctx) error {
	var body struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Identifier == "" || body.Password == "" {
		return response.ValidationError(c, map[string]string{
			"identifier": "identifier is required",
			"password":   "password is required",
		})
	}

	accessToken, user, err := LoginUser(body.Identifier, body.Password)
	if err != nil {
		return response.Unauthorized(c, "Invalid username or password")
	}

	return response.Success(c, fiber.Map{
		"access_token": accessToken,
		"user":         user,
		"expires_in":   900,
	}, "Login successful")
}
