// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/recipehub/internal/platform/request"
	"github.com/taibuivan/recipehub/internal/platform/respond"
	"github.com/taibuivan/recipehub/internal/users/auth"
)

// Handler implements the HTTP layer for the caller's own account.
//
// # Security
//
// Routes must be mounted behind RequireAuth; every handler acts on the
// identity found in the request context and never on a path parameter.
type Handler struct {
	accountService *Service
	identity       Identity
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, identity Identity) *Handler {
	return &Handler{accountService: service, identity: identity}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
//
// # Endpoints
//   - GET    /                          : Own profile.
//   - PATCH  /                          : Partial profile update.
//   - DELETE /                          : Permanent deletion.
//   - POST   /password                  : Password change, revokes every session.
//   - GET    /sessions                  : Active sessions.
//   - POST   /sessions/revoke-all       : Logout everywhere.
//   - PATCH  /preferences/notifications : Merge notification preferences.
//   - PATCH  /preferences/privacy       : Merge privacy settings.
//   - POST   /deactivate                : Deactivation, revokes every session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Profile
	router.Get("/", handler.getMe)
	router.Patch("/", handler.updateMe)
	router.Delete("/", handler.deleteMe)

	// Security
	router.Post("/password", handler.changePassword)
	router.Get("/sessions", handler.listSessions)
	router.Post("/sessions/revoke-all", handler.revokeAllSessions)

	// Preferences
	router.Patch("/preferences/notifications", handler.updateNotifications)
	router.Patch("/preferences/privacy", handler.updatePrivacy)

	// Lifecycle
	router.Post("/deactivate", handler.deactivate)

	return router
}

// # Payloads

type updateMeRequest struct {
	Name              *string `json:"name"`
	Phone             *string `json:"phone"`
	Bio               *string `json:"bio"`
	PreferredLanguage *string `json:"preferred_language"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type deactivateRequest struct {
	Reason string `json:"reason"`
}

type profileResponse struct {
	respond.Envelope
	User *Profile `json:"user"`
}

type sessionsResponse struct {
	respond.Envelope
	Sessions []auth.SessionView `json:"sessions"`
}

type revokedResponse struct {
	respond.Envelope
	SessionsRevoked int64 `json:"sessions_revoked"`
}

type preferencesResponse struct {
	respond.Envelope
	Preferences auth.Preferences `json:"preferences"`
}

// # Profile Endpoints

/*
GET /api/v1/me.

Response:
  - 200: profileResponse: Private profile with preferences
  - 401: Unauthorized: Authentication required
  - 404: UserNotFound: Account deactivated or deleted
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.accountService.GetProfile(request.Context(), identity.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profileResponse{Envelope: respond.Succeeded("Profile retrieved"), User: profile})
}

/*
PATCH /api/v1/me.

Request:
  - body: updateMeRequest (Partial JSON; name, phone, bio, preferred_language)

Response:
  - 200: profileResponse: The updated profile
  - 400: ValidationError: Invalid input data
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.accountService.UpdateProfile(request.Context(), identity.UserID, ProfileChanges{
		Name:              input.Name,
		Phone:             input.Phone,
		Bio:               input.Bio,
		PreferredLanguage: input.PreferredLanguage,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profileResponse{Envelope: respond.Succeeded("Profile updated"), User: profile})
}

/*
DELETE /api/v1/me.

Description: Permanently removes the account and its sessions.
*/
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.identity.Delete(request.Context(), identity.UserID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, auth.MsgAccountDeleted)
}

// # Security Endpoints

/*
POST /api/v1/me/password.

Response:
  - 200: revokedResponse: Every session, the current one included, is revoked
  - 400: ValidationError: Weak new password
  - 401: InvalidCredentials: Wrong current password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	revoked, err := handler.identity.ChangePassword(request.Context(), auth.ChangePasswordInput{
		UserID:          identity.UserID,
		CurrentPassword: input.CurrentPassword,
		NewPassword:     input.NewPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, revokedResponse{Envelope: respond.Succeeded(auth.MsgPasswordChanged), SessionsRevoked: revoked})
}

// GET /api/v1/me/sessions.
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.identity.ListSessions(request.Context(), identity.UserID, identity.TokenID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessionsResponse{Envelope: respond.Succeeded("Active sessions"), Sessions: sessions})
}

// POST /api/v1/me/sessions/revoke-all.
func (handler *Handler) revokeAllSessions(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	revoked, err := handler.identity.RevokeAllSessions(request.Context(), identity.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, revokedResponse{Envelope: respond.Succeeded(auth.MsgSessionsRevoked), SessionsRevoked: revoked})
}

// # Preference Endpoints

// PATCH /api/v1/me/preferences/notifications.
func (handler *Handler) updateNotifications(writer http.ResponseWriter, request *http.Request) {
	handler.updatePreferences(writer, request, handler.identity.UpdateNotificationPreferences)
}

// PATCH /api/v1/me/preferences/privacy.
func (handler *Handler) updatePrivacy(writer http.ResponseWriter, request *http.Request) {
	handler.updatePreferences(writer, request, handler.identity.UpdatePrivacySettings)
}

func (handler *Handler) updatePreferences(
	writer http.ResponseWriter,
	request *http.Request,
	update func(ctx context.Context, userID string, updates auth.Preferences) (auth.Preferences, error),
) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var updates auth.Preferences
	if err := requestutil.DecodeJSON(writer, request, &updates); err != nil {
		respond.Error(writer, request, err)
		return
	}

	merged, err := update(request.Context(), identity.UserID, updates)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, preferencesResponse{Envelope: respond.Succeeded(auth.MsgPreferencesUpdated), Preferences: merged})
}

// # Lifecycle Endpoints

/*
POST /api/v1/me/deactivate.

Description: Disables the account for good and revokes every session. There
is no reactivation endpoint.
*/
func (handler *Handler) deactivate(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input deactivateRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	revoked, err := handler.identity.Deactivate(request.Context(), identity.UserID, input.Reason)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, revokedResponse{Envelope: respond.Succeeded(auth.MsgAccountDeactivated), SessionsRevoked: revoked})
}
