// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/recipehub/internal/platform/apperr"
	"github.com/taibuivan/recipehub/internal/platform/constants"
	"github.com/taibuivan/recipehub/internal/platform/middleware"
	requestutil "github.com/taibuivan/recipehub/internal/platform/request"
	"github.com/taibuivan/recipehub/internal/platform/respond"
)

// tokenTypeBearer is the OAuth-style token_type of issued access tokens.
const tokenTypeBearer = "Bearer"

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the entry points of the account lifecycle
// (registration, login, refresh, password reset and email verification).
// It is a thin transport layer: every rule lives in [Service].
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register               : Creates an account and logs it in.
//   - POST /login                  : Authenticates and returns a token pair.
//   - POST /refresh                : Issues a new access token.
//   - POST /logout                 : Revokes the calling session.
//   - POST /password-reset         : Mails a reset link.
//   - POST /password-reset/confirm : Sets a new password with a reset token.
//   - POST /verify-email           : Confirms an email address.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/password-reset", handler.requestPasswordReset)
	router.Post("/password-reset/confirm", handler.confirmPasswordReset)
	router.Post("/verify-email", handler.verifyEmail)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	PreferredLanguage string `json:"preferred_language"`
	Phone             string `json:"phone"`
	Bio               string `json:"bio"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type passwordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

// # Response Payloads

type authResponse struct {
	respond.Envelope
	User         PublicUser `json:"user"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int64      `json:"expires_in"`
}

type refreshResponse struct {
	respond.Envelope
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (Name, Email, Password, PreferredLanguage, Phone, Bio)

Response:
  - 201: authResponse: Created user and its first token pair
  - 400: ValidationError: First failing field
  - 409: DuplicateEmail: Email already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Register(request.Context(), RegisterInput{
		Name:              input.Name,
		Email:             input.Email,
		Password:          input.Password,
		PreferredLanguage: input.PreferredLanguage,
		Phone:             input.Phone,
		Bio:               input.Bio,
		IPAddress:         middleware.RealIP(request),
		UserAgent:         request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, result.RefreshToken, result.RefreshTokenExpiresAt)
	respond.Created(writer, newAuthResponse(MsgRegistered, result))
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Response:
  - 200: authResponse: Access and refresh tokens with the user profile
  - 401: InvalidCredentials: Unknown email, wrong password or deactivated account
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Authenticate(request.Context(), LoginInput{
		Email:     input.Email,
		Password:  input.Password,
		IPAddress: middleware.RealIP(request),
		UserAgent: request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, result.RefreshToken, result.RefreshTokenExpiresAt)
	respond.OK(writer, newAuthResponse(MsgLoggedIn, result))
}

/*
Refresh issues a new access token using a valid refresh token.

POST /api/v1/auth/refresh

Description: The refresh token is read from the body, or from the
refresh token cookie when the body does not carry one. It is not rotated.

Response:
  - 200: refreshResponse: New access token
  - 401: InvalidToken: Missing, expired or forged refresh token
  - 404: UserNotFound: Account gone or deactivated
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	token := input.RefreshToken
	if token == "" {
		if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		respond.Error(writer, request, apperr.InvalidToken("Missing refresh token"))
		return
	}

	result, err := handler.authService.RefreshWithToken(request.Context(), token, middleware.RealIP(request), request.UserAgent())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, refreshResponse{
		Envelope:    respond.Succeeded(MsgRefreshed),
		AccessToken: result.AccessToken,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(AccessTokenTTL / time.Second),
	})
}

/*
Logout terminates the calling session.

POST /api/v1/auth/logout

Response:
  - 200: Success message, also when the session was already revoked
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), identity.TokenID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	clearRefreshCookie(writer)
	respond.Message(writer, MsgLoggedOut)
}

/*
RequestPasswordReset mails a reset link.

POST /api/v1/auth/password-reset

Response:
  - 200: Generic message, whether or not the address is registered
  - 400: ValidationError: Malformed email
*/
func (handler *Handler) requestPasswordReset(writer http.ResponseWriter, request *http.Request) {
	var input passwordResetRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, MsgResetRequested)
}

/*
ConfirmPasswordReset sets a new password using a reset token.

POST /api/v1/auth/password-reset/confirm

Response:
  - 200: Success: All sessions revoked
  - 400: ValidationError: Weak password
  - 401: InvalidToken: Unknown, expired or used token
*/
func (handler *Handler) confirmPasswordReset(writer http.ResponseWriter, request *http.Request) {
	var input passwordResetConfirmRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.Token, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, MsgPasswordReset)
}

/*
VerifyEmail confirms a user's email ownership.

POST /api/v1/auth/verify-email

Response:
  - 200: Success: Email verified
  - 401: InvalidToken: Unknown, expired or used token
*/
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	var input verifyEmailRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.VerifyEmail(request.Context(), input.Token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, MsgEmailVerified)
}

// # Helpers

func newAuthResponse(message string, result *AuthResult) authResponse {
	return authResponse{
		Envelope:     respond.Succeeded(message),
		User:         result.User.Public(),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(AccessTokenTTL / time.Second),
	}
}

// setRefreshCookie mirrors the refresh token into an HttpOnly cookie scoped
// to the auth routes, for browser clients.
func setRefreshCookie(writer http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    token,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  expiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
