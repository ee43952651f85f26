package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/IamMattHenry/hris-sub000/internal/config"
	"github.com/IamMattHenry/hris-sub000/internal/database"
	"github.com/IamMattHenry/hris-sub000/internal/models"
	"github.com/IamMattHenry/hris-sub000/internal/server"
	"github.com/IamMattHenry/hris-sub000/internal/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestDB(t *testing.T) *gorm.DB {
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
	assert.NoError(t, err, "Failed to access test database pool")
	sqlDB.SetMaxOpenConns(1)

	return db
}

// SenderRecorder captures delivered codes instead of sending mail.
type SenderRecorder struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

type SentMail struct {
	To   string
	Code string
	TTL  time.Duration
}

func (r *SenderRecorder) Send(to, code string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Sent = append(r.Sent, SentMail{To: to, Code: code, TTL: ttl})
	return nil
}

func (r *SenderRecorder) LastCode(t *testing.T) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Sent) == 0 {
		t.Fatal("No mail was sent")
	}
	return r.Sent[len(r.Sent)-1].Code
}

func SetupTestApp(t *testing.T) (*fiber.App, *SenderRecorder) {
	db := TestDB(t)
	database.DB = db

	recorder := &SenderRecorder{}
	app := server.New(db, config.Default(), recorder)
	return app, recorder
}

func CreateTestUser(t *testing.T, db *gorm.DB, username, email, password string) *models.User {
	hashedPassword, err := utils.HashPassword(password)
	assert.NoError(t, err, "Failed to hash test password")

	user := &models.User{
		Name:     "Test User",
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Status:   "active",
	}

	err = db.Create(user).Error
	assert.NoError(t, err, "Failed to create test user")

	return user
}

func GetAuthToken(t *testing.T, userID uint) string {
	token, err := utils.GenerateJWT(userID)
	assert.NoError(t, err, "Failed to generate test token")
	return token
}

func MakeRequest(app *fiber.App, method, url string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()

	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode

	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	if resp.Body.Len() == 0 {
		t.Log("Warning: Response body is empty")
		return
	}

	err := json.NewDecoder(resp.Body).Decode(v)
	if err != nil && err != io.EOF {
		t.Logf("Response body: %s", resp.Body.String())
		assert.NoError(t, err, "Failed to parse response")
	}
}

type StandardResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data"`
	Error   *ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func AssertSuccess(t *testing.T, resp *httptest.ResponseRecorder) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.True(t, result.Success, "Expected success response")
	assert.Empty(t, result.Error, "Expected no error")
}

func AssertError(t *testing.T, resp *httptest.ResponseRecorder, expectedCode string) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.False(t, result.Success, "Expected error response")
	assert.NotNil(t, result.Error, "Expected error object")
	if result.Error != nil {
		assert.Equal(t, expectedCode, result.Error.Code, "Error code mismatch")
	}
}
