// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/recipehub/internal/platform/apperr"
	"github.com/taibuivan/recipehub/internal/platform/respond"
)

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

/*
TestOK_FlattensPayload verifies that embedded envelope fields sit next to payload fields.
*/
func TestOK_FlattensPayload(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.OK(recorder, struct {
		respond.Envelope
		AccessToken string `json:"access_token"`
	}{respond.Succeeded("Login successful"), "tok"})

	body := decode(t, recorder)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "tok", body["access_token"])
}

func TestError_AppError(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)

	respond.Error(recorder, request, apperr.InvalidCredentials("Invalid email or password"))

	body := decode(t, recorder)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid email or password", body["message"])
	assert.Equal(t, apperr.CodeInvalidCredentials, body["code"])
	assert.NotContains(t, body, "details")
}

/*
TestError_HidesUnknownErrors checks that raw error text never reaches the client.
*/
func TestError_HidesUnknownErrors(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)

	respond.Error(recorder, request, errors.New("pq: relation users.account does not exist"))

	body := decode(t, recorder)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, apperr.CodeInternal, body["code"])
	assert.NotContains(t, recorder.Body.String(), "relation")
}

func TestError_ValidationDetails(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil)

	respond.Error(recorder, request, apperr.ValidationError("Validation failed", apperr.FieldError{Field: "email", Message: "Must be a valid email address"}))

	body := decode(t, recorder)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Len(t, body["details"], 1)
}
