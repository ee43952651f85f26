package audit_test

import (
	"testing"

	"github.com/IamMattHenry/hris-sub000/internal/audit"
	"github.com/IamMattHenry/hris-sub000/internal/database"
	"github.com/IamMattHenry/hris-sub000/internal/testutils"
	"github.com/stretchr/testify/assert"
)

func TestAuditListHandler(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)

	user := testutils.CreateTestUser(t, database.DB, "auditor", "auditor@example.com", "password123")

	sink := audit.NewSink(database.DB)
	sink.Append(user.ID, audit.ActionPasswordReset, "password changed via recovery token")

	t.Run("Error - Requires authentication", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/audit/", nil, "")
		assert.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
	})

	t.Run("Success - Lists recent entries", func(t *testing.T) {
		token := testutils.GetAuthToken(t, user.ID)

		resp, err := testutils.MakeRequest(app, "GET", "/audit/", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.True(t, result.Success)

		entries := result.Data.([]interface{})
		assert.Len(t, entries, 1)

		entry := entries[0].(map[string]interface{})
		assert.Equal(t, audit.ActionPasswordReset, entry["action"])
	})
}
