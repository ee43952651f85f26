package auth_test

import (
	"testing"

	"github.com/IamMattHenry/hris-sub000/internal/database"
	"github.com/IamMattHenry/hris-sub000/internal/testutils"
	"github.com/stretchr/testify/assert"
)

func TestLoginHandler(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)

	testutils.CreateTestUser(t, database.DB, "testuser", "test@example.com", "password123")

	t.Run("Success - Login by email", func(t *testing.T) {
		body := map[string]interface{}{
			"identifier": "test@example.com",
			"password":   "password123",
		}

		resp, err := testutils.MakeRequest(app, "POST", "/auth/login", body, "")
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.True(t, result.Success)

		if result.Data != nil {
			data := result.Data.(map[string]interface{})
			assert.NotEmpty(t, data["access_token"])
		} else {
			t.Fatal("Expected data in response but got nil")
		}
	})

	t.Run("Success - Login by username", func(t *testing.T) {
		body := map[string]interface{}{
			"identifier": "testuser",
			"password":   "password123",
		}

		resp, err := testutils.MakeRequest(app, "POST", "/auth/login", body, "")
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		testutils.AssertSuccess(t, resp)
	})

	t.Run("Error - Invalid credentials", func(t *testing.T) {
		body := map[string]interface{}{
			"identifier": "test@example.com",
			"password":   "wrongpassword",
		}

		resp, err := testutils.MakeRequest(app, "POST", "/auth/login", body, "")
		assert.NoError(t, err)
		assert.Equal(t, 401, resp.Code)

		testutils.AssertError(t, resp, "UNAUTHORIZED")
	})

	t.Run("Error - Missing fields", func(t *testing.T) {
		body := map[string]interface{}{
			"identifier": "test@example.com",
		}

		resp, err := testutils.MakeRequest(app, "POST", "/auth/login", body, "")
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)

		testutils.AssertError(t, resp, "VALIDATION_ERROR")
	})
}
