package recovery

import (
	"sync"
	"testing"
	"time"

	"github.com/IamMattHenry/hris-sub000/internal/audit"
	"github.com/IamMattHenry/hris-sub000/internal/config"
	"github.com/IamMattHenry/hris-sub000/internal/directory"
	"github.com/IamMattHenry/hris-sub000/internal/models"
	"github.com/IamMattHenry/hris-sub000/internal/utils"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeSender struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (f *fakeSender) Send(to, code string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.codes = append(f.codes, code)
	return nil
}

func (f *fakeSender) lastCode(t *testing.T) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.codes) == 0 {
		t.Fatal("No code was delivered")
	}
	return f.codes[len(f.codes)-1]
}

// clock is a controllable time source for TTL scenarios.
type clock struct {
	current time.Time
}

func (c *clock) Now() time.Time {
	return c.current
}

func (c *clock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *fakeSender, *clock) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err, "Failed to create test database")

	err = db.AutoMigrate(
		&models.User{},
		&models.PasswordResetOTP{},
		&models.ResetToken{},
		&models.AuditLog{},
	)
	assert.NoError(t, err, "Failed to migrate test database")

	// A second pool connection to :memory: would see its own empty
	// database, so pin the pool to one.
	sqlDB, err := db.DB()
	assert.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	sender := &fakeSender{}
	clk := &clock{current: time.Now()}

	svc := NewService(db, config.Default(), sender, audit.NewSink(db))
	svc.now = clk.Now

	return svc, db, sender, clk
}

func createUser(t *testing.T, db *gorm.DB, email string) *directory.Identity {
	hash, err := utils.HashPassword("oldpassword")
	assert.NoError(t, err)

	user := models.User{
		Name:     "Test User",
		Username: email,
		Email:    email,
		Password: hash,
		Status:   "active",
	}
	assert.NoError(t, db.Create(&user).Error)

	return &directory.Identity{
		UserID:          user.ID,
		DisplayName:     user.Name,
		DeliveryAddress: user.Email,
	}
}

func TestIssueAndVerify(t *testing.T) {
	svc, _, sender, _ := newTestService(t)
	identity := createUser(t, svc.db, "alice@example.com")

	t.Run("Verify succeeds exactly once", func(t *testing.T) {
		assert.NoError(t, svc.Issue(identity, identity.DeliveryAddress))
		code := sender.lastCode(t)

		token, err := svc.Verify(identity, code)
		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		// The row is consumed now; the same code never verifies again.
		_, err = svc.Verify(identity, code)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestVerifyNoActiveCode(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	identity := createUser(t, svc.db, "bob@example.com")

	_, err := svc.Verify(identity, "123456")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyExpiredCode(t *testing.T) {
	svc, _, sender, clk := newTestService(t)
	identity := createUser(t, svc.db, "carol@example.com")

	assert.NoError(t, svc.Issue(identity, identity.DeliveryAddress))
	code := sender.lastCode(t)

	// Correctness does not matter past the TTL.
	clk.Advance(11 * time.Minute)

	_, err := svc.Verify(identity, code)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyAttemptBudget(t *testing.T) {
	svc, db, sender, _ := newTestService(t)
	identity := createUser(t, svc.db, "dave@example.com")

	assert.NoError(t, svc.Issue(identity, identity.DeliveryAddress))
	code := sender.lastCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < 5; i++ {
		_, err := svc.Verify(identity, wrong)
		assert.ErrorIs(t, err, ErrMismatch)
	}

	var otp models.PasswordResetOTP
	assert.NoError(t, db.Where("user_id = ?", identity.UserID).First(&otp).Error)
	assert.Equal(t, 5, otp.Attempts)

	// The budget is spent; even the right code is rejected now.
	_, err := svc.Verify(identity, code)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
}

func TestVerifyCountsSuccessfulAttempt(t *testing.T) {
	svc, db, sender, _ := newTestService(t)
	identity := createUser(t, svc.db, "erin@example.com")

	assert.NoError(t, svc.Issue(identity, identity.DeliveryAddress))
	code := sender.lastCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, err := svc.Verify(identity, wrong)
	assert.ErrorIs(t, err, ErrMismatch)

	_, err = svc.Verify(identity, code)
	assert.NoError(t, err)

	var otp models.PasswordResetOTP
	assert.NoError(t, db.Where("user_id = ?", identity.UserID).First(&otp).Error)
	assert.Equal(t, 2, otp.Attempts)
	assert.NotNil(t, otp.ConsumedAt)
}

func TestConsumptionIsFirstWins(t *testing.T) {
	svc, db, _, clk := newTestService(t)
	identity := createUser(t, db, "kim@example.com")

	assert.NoError(t, svc.Issue(identity, identity.DeliveryAddress))

	t.Run("OTP row can be consumed once", func(t *testing.T) {
		otp, err := latestUnconsumedOTP(db, identity.UserID, models.PurposePasswordReset)
		assert.NoError(t, err)
		assert.NotNil(t, otp)

		consumed, err := consumeOTP(db, otp.ID, clk.Now())
		assert.NoError(t, err)
		assert.True(t, consumed)

		// The consumed_at guard makes the second consumer lose.
		consumed, err = consumeOTP(db, otp.ID, clk.Now())
		assert.NoError(t, err)
		assert.False(t, consumed)
	})

	t.Run("Reset token row can be consumed once", func(t *testing.T) {
		token := models.ResetToken{
			UserID:    identity.UserID,
			TokenHash: "irrelevant",
			ExpiresAt: clk.Now().Add(30 * time.Minute),
			CreatedAt: clk.Now(),
		}
		assert.NoError(t, db.Create(&token).Error)

		consumed, err := consumeResetToken(db, token.ID, clk.Now())
		assert.NoError(t, err)
		assert.True(t, consumed)

		consumed, err = consumeResetToken(db, token.ID, clk.Now())
		assert.NoError(t, err)
		assert.False(t, consumed)
	})
}

func TestVerifyConcurrentCorrectSubmissions(t *testing.T) {
	svc, _, sender, _ := newTestService(t)
	identity := createUser(t, svc.db, "leo@example.com")

	assert.NoError(t, svc.Issue(identity, identity.DeliveryAddress))
	code := sender.lastCode(t)

	// Two devices submitting the same correct code at once: exactly one
	// gets a token, the other fails as if the code were already spent.
	type outcome struct {
		token string
		err   error
	}
	outcomes := make(chan outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			token, err := svc.Verify(identity, code)
			outcomes <- outcome{token: token, err: err}
		}()
	}

	var succeeded, failed int
	for i := 0; i < 2; i++ {
		o := <-outcomes
		if o.err == nil {
			assert.NotEmpty(t, o.token)
			succeeded++
		} else {
			assert.ErrorIs(t, o.err, ErrNotFound)
			failed++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
}

func TestIssueResendCooldown(t *testing.T) {
	svc, db, sender, clk := newTestService(t)
	identity := createUser(t, svc.db, "frank@example.com")

	assert.NoError(t, svc.Issue(identity, identity.DeliveryAddress))

	// Within the cooldown a second request is a silent no-op.
	clk.Advance(30 * time.Second)
	assert.NoError(t, svc.Issue(identity, identity.DeliveryAddress))

	var count int64
	db.Model(&models.PasswordResetOTP{}).Where("user_id = ?", identity.UserID).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Len(t, sender.codes, 1)

	// Past the cooldown a new code goes out; the first row stays active
	// until its own expiry.
	clk.Advance(31 * time.Second)
	assert.NoError(t, svc.Issue(identity, identity.DeliveryAddress))

	db.Model(&models.PasswordResetOTP{}).Where("user_id = ?", identity.UserID).Count(&count)
	assert.Equal(t, int64(2), count)
	assert.Len(t, sender.codes, 2)

	var otps []models.PasswordResetOTP
	assert.NoError(t, db.Where("user_id = ?", identity.UserID).Order("created_at ASC").Find(&otps).Error)
	for _, otp := range otps {
		assert.True(t, otp.Active(clk.Now()))
	}

	// Verification runs against the newest row.
	token, err := svc.Verify(identity, sender.lastCode(t))
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestIssueDeliveryFailureStillPersists(t *testing.T) {
	svc, db, sender, _ := newTestService(t)
	identity := createUser(t, svc.db, "grace@example.com")

	sender.err = assert.AnError

	// Delivery failure is swallowed: the code exists in storage and the
	// caller sees no error.
	assert.NoError(t, svc.Issue(identity, identity.DeliveryAddress))

	var count int64
	db.Model(&models.PasswordResetOTP{}).Where("user_id = ?", identity.UserID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestResolveTokenSingleUse(t *testing.T) {
	svc, _, sender, _ := newTestService(t)
	identity := createUser(t, svc.db, "heidi@example.com")

	assert.NoError(t, svc.Issue(identity, identity.DeliveryAddress))
	plaintext, err := svc.Verify(identity, sender.lastCode(t))
	assert.NoError(t, err)

	record, expired, err := svc.ResolveToken(plaintext)
	assert.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, identity.UserID, record.UserID)

	assert.NoError(t, svc.ResetPassword(plaintext, "newpassword123"))

	// Redeemed tokens resolve to nothing.
	_, _, err = svc.ResolveToken(plaintext)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.ResetPassword(plaintext, "anotherpassword")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveTokenExpired(t *testing.T) {
	svc, _, sender, clk := newTestService(t)
	identity := createUser(t, svc.db, "ivan@example.com")

	assert.NoError(t, svc.Issue(identity, identity.DeliveryAddress))
	plaintext, err := svc.Verify(identity, sender.lastCode(t))
	assert.NoError(t, err)

	clk.Advance(31 * time.Minute)

	// Expired is distinct from invalid: the caller proved possession of a
	// once-valid secret.
	record, expired, err := svc.ResolveToken(plaintext)
	assert.NoError(t, err)
	assert.True(t, expired)
	assert.NotNil(t, record)

	err = svc.ResetPassword(plaintext, "newpassword123")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestConsumeTokenStandalone(t *testing.T) {
	svc, _, sender, _ := newTestService(t)
	identity := createUser(t, svc.db, "mallory@example.com")

	assert.NoError(t, svc.Issue(identity, identity.DeliveryAddress))
	plaintext, err := svc.Verify(identity, sender.lastCode(t))
	assert.NoError(t, err)

	record, expired, err := svc.ResolveToken(plaintext)
	assert.NoError(t, err)
	assert.False(t, expired)

	assert.NoError(t, svc.ConsumeToken(record.ID))

	// Consumed tokens resolve to nothing and cannot be consumed again.
	_, _, err = svc.ResolveToken(plaintext)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.ConsumeToken(record.ID), ErrNotFound)
}

func TestResolveTokenUnknown(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, _, err := svc.ResolveToken("not-a-real-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResetPasswordPolicy(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.ResetPassword("whatever", "abc")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestResetPasswordUpdatesCredential(t *testing.T) {
	svc, db, sender, _ := newTestService(t)
	identity := createUser(t, svc.db, "judy@example.com")

	assert.NoError(t, svc.Issue(identity, identity.DeliveryAddress))
	plaintext, err := svc.Verify(identity, sender.lastCode(t))
	assert.NoError(t, err)

	assert.NoError(t, svc.ResetPassword(plaintext, "newpassword123"))

	var user models.User
	assert.NoError(t, db.First(&user, identity.UserID).Error)
	assert.True(t, utils.CheckPasswordHash("newpassword123", user.Password))
	assert.False(t, utils.CheckPasswordHash("oldpassword", user.Password))

	var entry models.AuditLog
	assert.NoError(t, db.Where("user_id = ? AND action = ?", identity.UserID, audit.ActionPasswordReset).First(&entry).Error)
	assert.NotEmpty(t, entry.CorrelationID)
}
