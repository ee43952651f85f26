package recovery

import (
	"fmt"
	"log"
	"time"

	"github.com/IamMattHenry/hris-sub000/internal/audit"
	"github.com/IamMattHenry/hris-sub000/internal/config"
	"github.com/IamMattHenry/hris-sub000/internal/directory"
	"github.com/IamMattHenry/hris-sub000/internal/mailer"
	"github.com/IamMattHenry/hris-sub000/internal/models"
	"github.com/IamMattHenry/hris-sub000/internal/utils"
	"gorm.io/gorm"
)

const resetTokenBytes = 32

// Service runs the credential-recovery workflow: issuing codes, verifying
// them, and redeeming the reset token that a successful verification mints.
// All state lives in the database; the service itself is stateless.
type Service struct {
	db     *gorm.DB
	cfg    *config.Config
	sender mailer.Sender
	audit  *audit.Sink

	// now is swappable so TTL behavior is testable.
	now func() time.Time
}

func NewService(db *gorm.DB, cfg *config.Config, sender mailer.Sender, sink *audit.Sink) *Service {
	return &Service{
		db:     db,
		cfg:    cfg,
		sender: sender,
		audit:  sink,
		now:    time.Now,
	}
}

// Issue creates and delivers a fresh recovery code for the identity, unless
// a code was already issued within the resend cooldown. Delivery problems
// are logged but never surfaced: the caller's response must not depend on
// whether an email went out.
func (s *Service) Issue(identity *directory.Identity, identifier string) error {
	now := s.now()

	existing, err := latestUnconsumedOTP(s.db, identity.UserID, models.PurposePasswordReset)
	if err != nil {
		return fmt.Errorf("failed to load active code: %w", err)
	}
	if existing != nil && existing.Active(now) && now.Sub(existing.CreatedAt) < s.cfg.ResendCooldown {
		return nil
	}

	code, err := utils.GenerateOTPCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	codeHash, err := utils.HashSecret(code)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	otp := models.PasswordResetOTP{
		UserID:          identity.UserID,
		Identifier:      identifier,
		Purpose:         models.PurposePasswordReset,
		CodeHash:        codeHash,
		DeliveryChannel: "email",
		ExpiresAt:       now.Add(s.cfg.OTPTTL),
		CreatedAt:       now,
	}
	if err := s.db.Create(&otp).Error; err != nil {
		return fmt.Errorf("failed to save code: %w", err)
	}

	if identity.DeliveryAddress == "" {
		log.Printf("⚠️  No delivery address for user %d, code issued but not sent", identity.UserID)
		return nil
	}

	if err := s.sender.Send(identity.DeliveryAddress, code, s.cfg.OTPTTL); err != nil {
		log.Printf("⚠️  Recovery code for user %d: %v", identity.UserID,
			fmt.Errorf("%w: %v", ErrDeliveryFailed, err))
	}

	return nil
}

// Verify checks the submitted code against the newest unconsumed OTP for
// the identity. On success the OTP is consumed and a single-use reset token
// is minted; the returned plaintext is the only place it ever exists.
func (s *Service) Verify(identity *directory.Identity, code string) (string, error) {
	now := s.now()

	otp, err := latestUnconsumedOTP(s.db, identity.UserID, models.PurposePasswordReset)
	if err != nil {
		return "", fmt.Errorf("failed to load active code: %w", err)
	}
	if otp == nil {
		return "", ErrNotFound
	}

	if otp.ExpiresAt.Before(now) {
		return "", ErrExpired
	}

	// Exhaustion is checked before any hash comparison so a spent row
	// cannot be probed further, even with the right code.
	if otp.Attempts >= s.cfg.OTPMaxAttempts {
		return "", ErrAttemptsExhausted
	}

	if !utils.CheckSecretHash(code, otp.CodeHash) {
		if err := recordFailedAttempt(s.db, otp.ID); err != nil {
			return "", fmt.Errorf("failed to record attempt: %w", err)
		}
		return "", ErrMismatch
	}

	consumed, err := consumeOTP(s.db, otp.ID, now)
	if err != nil {
		return "", fmt.Errorf("failed to consume code: %w", err)
	}
	if !consumed {
		// Another request verified this row first.
		return "", ErrNotFound
	}

	plaintext, err := utils.GenerateResetToken(resetTokenBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	tokenHash, err := utils.HashSecret(plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to hash reset token: %w", err)
	}

	token := models.ResetToken{
		UserID:    identity.UserID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(s.cfg.ResetTokenTTL),
		CreatedAt: now,
	}
	if err := s.db.Create(&token).Error; err != nil {
		return "", fmt.Errorf("failed to save reset token: %w", err)
	}

	return plaintext, nil
}

// ResolveToken finds the stored row matching a submitted plaintext token.
// Tokens are stored hashed, so this is a scan over unconsumed rows rather
// than an index lookup. The expired flag lets callers tell "proved
// possession but too late" apart from "invalid".
func (s *Service) ResolveToken(plaintext string) (*models.ResetToken, bool, error) {
	tokens, err := unconsumedTokens(s.db)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load reset tokens: %w", err)
	}

	for i := range tokens {
		if utils.CheckSecretHash(plaintext, tokens[i].TokenHash) {
			expired := tokens[i].ExpiresAt.Before(s.now())
			return &tokens[i], expired, nil
		}
	}

	return nil, false, ErrNotFound
}

// ConsumeToken marks a resolved token as redeemed. Call only after the new
// password is durably written.
func (s *Service) ConsumeToken(tokenID uint) error {
	consumed, err := consumeResetToken(s.db, tokenID, s.now())
	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if !consumed {
		return ErrNotFound
	}
	return nil
}

// ResetPassword redeems a reset token and persists the new password. The
// credential write and the token consumption run in one transaction so a
// failed write never burns the token, and a consumed token always reflects
// a committed password change.
func (s *Service) ResetPassword(plaintext, newPassword string) error {
	if len(newPassword) < 6 {
		return ErrWeakPassword
	}

	token, expired, err := s.ResolveToken(plaintext)
	if err != nil {
		return err
	}
	if expired {
		return ErrExpired
	}

	passwordHash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := directory.SetPasswordHash(tx, token.UserID, passwordHash); err != nil {
			return err
		}

		consumed, err := consumeResetToken(tx, token.ID, s.now())
		if err != nil {
			return err
		}
		if !consumed {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Append(token.UserID, audit.ActionPasswordReset, "password changed via recovery token")
	return nil
}
