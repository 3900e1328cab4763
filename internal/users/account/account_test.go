// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/recipehub/internal/platform/apperr"
	"github.com/taibuivan/recipehub/internal/platform/ctxutil"
	"github.com/taibuivan/recipehub/internal/platform/sec"
	"github.com/taibuivan/recipehub/internal/users/auth"
	"github.com/taibuivan/recipehub/pkg/pointer"
)

// # Fakes

type stubIdentity struct {
	user          *auth.User
	revokedCount  int64
	deletedUserID string
	deactivatedBy string
	password      auth.ChangePasswordInput
	currentToken  string
}

func (stub *stubIdentity) GetUser(_ context.Context, userID string) (*auth.User, error) {
	if stub.user == nil || stub.user.ID != userID {
		return nil, apperr.UserNotFound("User not found or inactive")
	}
	clone := *stub.user
	return &clone, nil
}

func (stub *stubIdentity) ChangePassword(_ context.Context, input auth.ChangePasswordInput) (int64, error) {
	stub.password = input
	if input.CurrentPassword != "Str0ng!Pass" {
		return 0, apperr.InvalidCredentials("Current password is incorrect")
	}
	return stub.revokedCount, nil
}

func (stub *stubIdentity) ListSessions(_ context.Context, _ string, currentTokenID string) ([]auth.SessionView, error) {
	stub.currentToken = currentTokenID
	return []auth.SessionView{{UserAgent: "Firefox", Current: true}}, nil
}

func (stub *stubIdentity) RevokeAllSessions(context.Context, string) (int64, error) {
	return stub.revokedCount, nil
}

func (stub *stubIdentity) UpdateNotificationPreferences(_ context.Context, _ string, updates auth.Preferences) (auth.Preferences, error) {
	return auth.Merge(auth.DefaultNotificationPrefs(), nil, updates), nil
}

func (stub *stubIdentity) UpdatePrivacySettings(_ context.Context, _ string, updates auth.Preferences) (auth.Preferences, error) {
	return auth.Merge(auth.DefaultPrivacySettings(), nil, updates), nil
}

func (stub *stubIdentity) Deactivate(_ context.Context, _ string, reason string) (int64, error) {
	stub.deactivatedBy = reason
	return stub.revokedCount, nil
}

func (stub *stubIdentity) Delete(_ context.Context, userID string) error {
	stub.deletedUserID = userID
	return nil
}

type recordingProfiles struct {
	userID  string
	changes ProfileChanges
	calls   int
	err     error
}

func (repo *recordingProfiles) UpdateProfile(_ context.Context, userID string, changes ProfileChanges, _ time.Time) error {
	repo.calls++
	repo.userID = userID
	repo.changes = changes
	return repo.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func annUser() *auth.User {
	return &auth.User{
		ID:                "user-1",
		Name:              "Ann",
		Email:             "ann@example.com",
		PasswordHash:      "$2a$04$secret",
		PreferredLanguage: "en",
		Tier:              sec.TierRegular,
		IsActive:          true,
		NotificationPrefs: auth.Preferences{"tips_notifications": false},
	}
}

// # Service

/*
TestService_GetProfile fills preference gaps with their defaults.
*/
func TestService_GetProfile(t *testing.T) {
	service := NewService(&recordingProfiles{}, &stubIdentity{user: annUser()}, discardLogger())

	profile, err := service.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", profile.Name)
	assert.False(t, profile.NotificationPreferences["tips_notifications"])
	assert.True(t, profile.NotificationPreferences["recipe_notifications"])
	assert.Equal(t, auth.DefaultPrivacySettings(), profile.PrivacySettings)

	_, err = service.GetProfile(context.Background(), "missing")
	assert.True(t, apperr.HasCode(err, apperr.CodeUserNotFound))
}

/*
TestService_UpdateProfile normalizes fields before storing them.
*/
func TestService_UpdateProfile(t *testing.T) {
	profiles := &recordingProfiles{}
	service := NewService(profiles, &stubIdentity{user: annUser()}, discardLogger())

	_, err := service.UpdateProfile(context.Background(), "user-1", ProfileChanges{
		Name:              pointer.To("  Ann Lee "),
		Bio:               pointer.To(" "),
		PreferredLanguage: pointer.To("VI"),
	})
	require.NoError(t, err)

	assert.Equal(t, "user-1", profiles.userID)
	assert.Equal(t, "Ann Lee", pointer.Val(profiles.changes.Name))
	require.NotNil(t, profiles.changes.Bio)
	assert.Equal(t, "", pointer.Val(profiles.changes.Bio))
	assert.Equal(t, "vi", pointer.Val(profiles.changes.PreferredLanguage))
	assert.Nil(t, profiles.changes.Phone)
}

/*
TestService_UpdateProfile_Rejections covers validation and storage outcomes.
*/
func TestService_UpdateProfile_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("blank_name", func(t *testing.T) {
		profiles := &recordingProfiles{}
		service := NewService(profiles, &stubIdentity{user: annUser()}, discardLogger())

		_, err := service.UpdateProfile(ctx, "user-1", ProfileChanges{Name: pointer.To("   ")})
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		assert.Zero(t, profiles.calls)
	})

	t.Run("bad_language", func(t *testing.T) {
		service := NewService(&recordingProfiles{}, &stubIdentity{user: annUser()}, discardLogger())

		_, err := service.UpdateProfile(ctx, "user-1", ProfileChanges{PreferredLanguage: pointer.To("??")})
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	})

	t.Run("empty_changes_skip_storage", func(t *testing.T) {
		profiles := &recordingProfiles{}
		service := NewService(profiles, &stubIdentity{user: annUser()}, discardLogger())

		profile, err := service.UpdateProfile(ctx, "user-1", ProfileChanges{})
		require.NoError(t, err)
		assert.Equal(t, "Ann", profile.Name)
		assert.Zero(t, profiles.calls)
	})

	t.Run("inactive_account", func(t *testing.T) {
		service := NewService(&recordingProfiles{err: apperr.NotFound("User")}, &stubIdentity{user: annUser()}, discardLogger())

		_, err := service.UpdateProfile(ctx, "user-1", ProfileChanges{Bio: pointer.To("Soup lover")})
		assert.True(t, apperr.HasCode(err, apperr.CodeUserNotFound))
	})

	t.Run("storage_failure", func(t *testing.T) {
		service := NewService(&recordingProfiles{err: errors.New("connection reset")}, &stubIdentity{user: annUser()}, discardLogger())

		_, err := service.UpdateProfile(ctx, "user-1", ProfileChanges{Bio: pointer.To("Soup lover")})
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, http.StatusInternalServerError, ae.HTTPStatus)
		assert.Equal(t, "Profile update failed", ae.Message)
	})
}

// # Repository

/*
TestProfileRepository_UpdateProfile passes nil fields as NULL and reports missing accounts.
*/
func TestProfileRepository_UpdateProfile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repository := NewProfileRepository(mock)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	name := "Ann Lee"
	changes := ProfileChanges{Name: &name}

	mock.ExpectExec("UPDATE users.account").
		WithArgs("user-1", &name, (*string)(nil), (*string)(nil), (*string)(nil), at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repository.UpdateProfile(context.Background(), "user-1", changes, at))

	mock.ExpectExec("UPDATE users.account").
		WithArgs("gone", &name, (*string)(nil), (*string)(nil), (*string)(nil), at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err = repository.UpdateProfile(context.Background(), "gone", changes, at)
	assert.True(t, apperr.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

// # HTTP

func newAccountRouter(identity *stubIdentity, profiles ProfileRepository) http.Handler {
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := ctxutil.WithIdentity(request.Context(), &sec.Identity{UserID: "user-1", TokenID: "jti-1"})
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	})
	router.Mount("/api/v1/me", NewHandler(NewService(profiles, identity, discardLogger()), identity).Routes())
	return router
}

func call(t *testing.T, handler http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(method, path, &payload))

	decoded := map[string]any{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return recorder, decoded
}

/*
TestHandler_Routes exercises every /me endpoint for the authenticated caller.
*/
func TestHandler_Routes(t *testing.T) {
	identity := &stubIdentity{user: annUser(), revokedCount: 2}
	router := newAccountRouter(identity, &recordingProfiles{})

	recorder, body := call(t, router, http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "ann@example.com", user["email"])
	assert.NotContains(t, recorder.Body.String(), "secret")

	recorder, _ = call(t, router, http.MethodPatch, "/api/v1/me", map[string]string{"bio": "Soup lover"})
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder, body = call(t, router, http.MethodPost, "/api/v1/me/password", map[string]string{
		"current_password": "Str0ng!Pass",
		"new_password":     "N3w!Password",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.EqualValues(t, 2, body["sessions_revoked"])
	assert.Equal(t, "user-1", identity.password.UserID)

	recorder, body = call(t, router, http.MethodPost, "/api/v1/me/password", map[string]string{
		"current_password": "nope",
		"new_password":     "N3w!Password",
	})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])

	recorder, body = call(t, router, http.MethodGet, "/api/v1/me/sessions", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Len(t, body["sessions"], 1)
	assert.Equal(t, "jti-1", identity.currentToken)

	recorder, body = call(t, router, http.MethodPost, "/api/v1/me/sessions/revoke-all", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, auth.MsgSessionsRevoked, body["message"])

	recorder, body = call(t, router, http.MethodPatch, "/api/v1/me/preferences/privacy", map[string]bool{"analytics_enabled": false, "bogus": true})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, map[string]any{"allow_sharing": true, "analytics_enabled": false}, body["preferences"])

	recorder, _ = call(t, router, http.MethodPatch, "/api/v1/me/preferences/notifications", map[string]bool{"tips_notifications": false})
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder, _ = call(t, router, http.MethodPost, "/api/v1/me/deactivate", map[string]string{"reason": "moving"})
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "moving", identity.deactivatedBy)

	recorder, body = call(t, router, http.MethodDelete, "/api/v1/me", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, auth.MsgAccountDeleted, body["message"])
	assert.Equal(t, "user-1", identity.deletedUserID)
}
