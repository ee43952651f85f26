package recovery

import (
	"errors"

	"github.com/IamMattHenry/hris-sub000/internal/directory"
	"github.com/IamMattHenry/hris-sub000/internal/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// The acknowledgment for a recovery request is identical whether the
// identifier resolved, the account is under cooldown, or the account does
// not exist.
const genericIssueMessage = "If the account exists, a reset code has been sent"

type Handler struct {
	db  *gorm.DB
	svc *Service
}

func NewHandler(db *gorm.DB, svc *Service) *Handler {
	return &Handler{db: db, svc: svc}
}

func (h *Handler) ForgotPasswordHandler(c *fiber.Ctx) error {
	var body struct {
		Identifier string `json:"identifier"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Identifier == "" {
		return response.ValidationError(c, map[string]string{
			"identifier": "identifier is required",
		})
	}

	identity, err := directory.FindByIdentifier(h.db, body.Identifier)
	if err != nil {
		return response.InternalError(c, "Failed to process request")
	}
	if identity == nil {
		return response.Success(c, nil, genericIssueMessage)
	}

	if err := h.svc.Issue(identity, body.Identifier); err != nil {
		return response.InternalError(c, "Failed to process request")
	}

	return response.Success(c, nil, genericIssueMessage)
}

func (h *Handler) VerifyOTPHandler(c *fiber.Ctx) error {
	var body struct {
		Identifier string `json:"identifier"`
		Code       string `json:"code"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Identifier == "" || body.Code == "" {
		return response.ValidationError(c, map[string]string{
			"identifier": "identifier is required",
			"code":       "code is required",
		})
	}

	identity, err := directory.FindByIdentifier(h.db, body.Identifier)
	if err != nil {
		return response.InternalError(c, "Failed to process request")
	}
	if identity == nil {
		// Same answer as a known user with no outstanding code, so the
		// response does not reveal whether the identifier exists.
		return verifyError(c, ErrNotFound)
	}

	token, err := h.svc.Verify(identity, body.Code)
	if err != nil {
		return verifyError(c, err)
	}

	return response.Success(c, fiber.Map{
		"reset_token": token,
	}, "Code verified")
}

func (h *Handler) ResetPasswordHandler(c *fiber.Ctx) error {
	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Token == "" || body.NewPassword == "" {
		return response.ValidationError(c, map[string]string{
			"token":        "token is required",
			"new_password": "new_password is required",
		})
	}

	if err := h.svc.ResetPassword(body.Token, body.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrWeakPassword):
			return response.ValidationError(c, map[string]string{
				"new_password": "password must be at least 6 characters",
			})
		case errors.Is(err, ErrNotFound):
			return response.Error(c, fiber.StatusBadRequest, "TOKEN_INVALID",
				"Invalid or already used token", nil)
		case errors.Is(err, ErrExpired):
			return response.Error(c, fiber.StatusBadRequest, "TOKEN_EXPIRED",
				"Token expired, request a new code", nil)
		default:
			return response.InternalError(c, "Failed to reset password")
		}
	}

	return response.Success(c, nil, "Password reset successful")
}

func verifyError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return response.Error(c, fiber.StatusBadRequest, "NO_ACTIVE_CODE",
			"No active code, request a new one", nil)
	case errors.Is(err, ErrExpired):
		return response.Error(c, fiber.StatusBadRequest, "CODE_EXPIRED",
			"Code expired, request a new one", nil)
	case errors.Is(err, ErrAttemptsExhausted):
		return response.Error(c, fiber.StatusBadRequest, "TOO_MANY_ATTEMPTS",
			"Too many attempts, request a new one", nil)
	case errors.Is(err, ErrMismatch):
		return response.Error(c, fiber.StatusBadRequest, "INVALID_CODE",
			"Invalid code", nil)
	default:
		return response.InternalError(c, "Failed to verify code")
	}
}
