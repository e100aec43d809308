package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mantty/host-api/internal/models"
	"github.com/mantty/host-api/internal/testutil"
	"github.com/mantty/host-api/pkg/dto"
	"github.com/mantty/host-api/pkg/entitlements"
	"github.com/stretchr/testify/require"
)

func authHeaders(t *testing.T, userID uuid.UUID) map[string]string {
	t.Helper()
	token := testutil.GenerateTestToken(t, userID, "test@example.com")
	return map[string]string{"Authorization": testutil.AuthHeader(token)}
}

func newProfile(role entitlements.Role, plan entitlements.Plan) *models.Profile {
	return &models.Profile{
		ID:        uuid.New(),
		Email:     "test@example.com",
		FullName:  "Test User",
		Role:      role,
		Plan:      plan,
		UpdatedAt: time.Now(),
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}
