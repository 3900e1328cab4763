// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/taibuivan/recipehub/internal/platform/apperr"
	"github.com/taibuivan/recipehub/internal/platform/mail"
	"github.com/taibuivan/recipehub/internal/platform/sec"
	"github.com/taibuivan/recipehub/internal/platform/validate"
	"github.com/taibuivan/recipehub/pkg/slice"
	"github.com/taibuivan/recipehub/pkg/uuid"
)

// # Contracts & Types

// TokenIssuer signs and verifies access and refresh tokens.
type TokenIssuer interface {
	IssueAccessToken(userID string, profile sec.Profile, timeToLive time.Duration) (sec.IssuedToken, error)
	IssueRefreshToken(userID string, timeToLive time.Duration) (sec.IssuedToken, error)
	DecodeAccess(token string) (*sec.AccessClaims, error)
	DecodeRefresh(token string) (*sec.RefreshClaims, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TxRunner runs fn inside one database transaction. Repositories called with
// the ctx passed to fn join that transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Dependencies wires a [Service]. Mailer, Clock, Random, Logger and Metrics
// are optional.
type Dependencies struct {
	Users              UserRepository
	Sessions           SessionRepository
	ResetTokens        OneTimeTokenRepository
	VerificationTokens OneTimeTokenRepository
	Tx                 TxRunner
	Hasher             PasswordHasher
	Tokens             TokenIssuer
	Mailer             mail.Sender

	// AppBaseURL prefixes the links sent by email, e.g. "https://recipehub.app".
	AppBaseURL string

	Clock   func() time.Time
	Random  io.Reader
	Logger  *slog.Logger
	Metrics *Metrics
}

// Service implements the identity use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// session or password logic must be reviewed by the security team.
type Service struct {
	users              UserRepository
	sessions           SessionRepository
	resetTokens        OneTimeTokenRepository
	verificationTokens OneTimeTokenRepository
	tx                 TxRunner
	hasher             PasswordHasher
	tokens             TokenIssuer
	mailer             mail.Sender
	appBaseURL         string

	now     func() time.Time
	random  io.Reader
	logger  *slog.Logger
	metrics *Metrics
}

// NewService constructs a new [Service] from its dependencies.
func NewService(deps Dependencies) *Service {
	service := &Service{
		users:              deps.Users,
		sessions:           deps.Sessions,
		resetTokens:        deps.ResetTokens,
		verificationTokens: deps.VerificationTokens,
		tx:                 deps.Tx,
		hasher:             deps.Hasher,
		tokens:             deps.Tokens,
		mailer:             deps.Mailer,
		appBaseURL:         strings.TrimRight(deps.AppBaseURL, "/"),
		now:                deps.Clock,
		random:             deps.Random,
		logger:             deps.Logger,
		metrics:            deps.Metrics,
	}

	if service.now == nil {
		service.now = time.Now
	}
	if service.logger == nil {
		service.logger = slog.Default()
	}

	return service
}

// AuthResult is the outcome of a registration or login.
type AuthResult struct {
	User                  *User
	Session               *Session
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Name              string
	Email             string
	Password          string
	PreferredLanguage string
	Phone             string
	Bio               string
	IPAddress         string
	UserAgent         string
}

/*
Register validates, hashes and persists a brand new account, then logs it in.

Description: Name, email and password are checked in that order and the first
failing gate is reported. The account, its first session and the last-login
marker are written in one transaction. A verification email is sent after
commit; a delivery failure does not fail the registration.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *AuthResult: The account and its first token pair
  - error: ValidationError, DuplicateEmail or a generic failure
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*AuthResult, error) {
	name := validate.NormalizeName(input.Name)
	email := validate.NormalizeEmail(input.Email)

	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if err := checkPassword(FieldPassword, input.Password); err != nil {
		return nil, err
	}

	lang, err := NormalizeLanguage(input.PreferredLanguage)
	if err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(input.Phone)
	bio := strings.TrimSpace(input.Bio)
	if err := checkContact(phone, bio); err != nil {
		return nil, err
	}

	now := service.now()
	var result *AuthResult

	err = service.tx.WithinTx(context, func(ctx context.Context) error {
		exists, err := service.users.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return apperr.DuplicateEmail()
		}

		hash, err := service.hasher.Hash(input.Password)
		if err != nil {
			return err
		}

		// Time-sortable ID to keep the primary key index compact.
		user := &User{
			ID:                uuid.New(),
			Name:              name,
			Email:             email,
			PasswordHash:      hash,
			PreferredLanguage: lang,
			Phone:             phone,
			Bio:               bio,
			Tier:              sec.TierRegular,
			IsActive:          true,
			LastLoginAt:       &now,
			NotificationPrefs: DefaultNotificationPrefs(),
			PrivacySettings:   DefaultPrivacySettings(),
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := service.users.Create(ctx, user); err != nil {
			return err
		}

		result, err = service.startSession(ctx, user, input.IPAddress, input.UserAgent)
		return err
	})
	if err != nil {
		return nil, service.fail(context, "register", "Registration failed", err)
	}

	service.metrics.registered()
	service.logger.InfoContext(context, "user_registered", slog.String("user_id", result.User.ID))

	service.sendVerification(context, result.User)

	return result, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

/*
Authenticate verifies credentials and opens a new session.

Description: Unknown email, deactivated account and wrong password are all
reported with the same InvalidCredentials message so the response cannot be
used to enumerate accounts.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *AuthResult: The account and a fresh token pair
  - error: InvalidCredentials or a generic failure
*/
func (service *Service) Authenticate(context context.Context, input LoginInput) (*AuthResult, error) {
	email := validate.NormalizeEmail(input.Email)

	user, err := service.users.FindActiveByEmail(context, email)
	if err != nil {
		if apperr.IsNotFound(err) {
			service.loginFailed(context, "", "unknown_email")
			return nil, apperr.InvalidCredentials(msgInvalidCredentials)
		}
		return nil, service.fail(context, "login", "Login failed", err)
	}

	// bcrypt compares in constant time
	if !service.hasher.Verify(input.Password, user.PasswordHash) {
		service.loginFailed(context, user.ID, "wrong_password")
		return nil, apperr.InvalidCredentials(msgInvalidCredentials)
	}

	now := service.now()
	var result *AuthResult

	err = service.tx.WithinTx(context, func(ctx context.Context) error {
		if err := service.users.TouchLastLogin(ctx, user.ID, now); err != nil {
			return err
		}
		user.LastLoginAt = &now

		var err error
		result, err = service.startSession(ctx, user, input.IPAddress, input.UserAgent)
		return err
	})
	if err != nil {
		return nil, service.fail(context, "login", "Login failed", err)
	}

	service.metrics.login(true)
	service.logger.InfoContext(context, "user_logged_in",
		slog.String("user_id", user.ID),
		slog.String("ip", input.IPAddress),
	)

	return result, nil
}

func (service *Service) loginFailed(context context.Context, userID, reason string) {
	service.metrics.login(false)
	service.logger.InfoContext(context, "login_failed",
		slog.String("user_id", userID),
		slog.String("reason", reason),
	)
}

// # Token Refresh

// RefreshInput identifies the account asking for a new access token.
type RefreshInput struct {
	UserID    string
	IPAddress string
	UserAgent string
}

// RefreshResult carries a new access token and its session.
type RefreshResult struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
	Session              *Session
}

/*
Refresh issues a new access token for an active account.

Description: Refresh tokens are not rotated and reuse is not detected. Each
refreshed access token gets its own session so the per-request session check
accepts it.

Returns:
  - *RefreshResult: The new access token
  - error: UserNotFound for a missing or deactivated account
*/
func (service *Service) Refresh(context context.Context, input RefreshInput) (*RefreshResult, error) {
	user, err := service.users.FindByID(context, input.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.UserNotFound(msgUserUnavailable)
		}
		return nil, service.fail(context, "refresh", "Token refresh failed", err)
	}
	if !user.IsActive {
		return nil, apperr.UserNotFound(msgUserUnavailable)
	}

	issued, session, err := service.openSession(context, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, service.fail(context, "refresh", "Token refresh failed", err)
	}

	service.metrics.refreshed()
	service.logger.DebugContext(context, "access_token_refreshed", slog.String("user_id", user.ID))

	return &RefreshResult{
		AccessToken:          issued.Token,
		AccessTokenExpiresAt: issued.ExpiresAt,
		Session:              session,
	}, nil
}

// RefreshWithToken verifies a refresh token and runs [Service.Refresh] for its subject.
func (service *Service) RefreshWithToken(context context.Context, refreshToken, ipAddress, userAgent string) (*RefreshResult, error) {
	claims, err := service.tokens.DecodeRefresh(refreshToken)
	if err != nil {
		return nil, apperr.InvalidToken("Invalid or expired refresh token")
	}

	return service.Refresh(context, RefreshInput{
		UserID:    claims.Subject,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
}

// # Session Management

// Logout revokes the session of tokenID. Logging out twice is not an error.
func (service *Service) Logout(context context.Context, tokenID string) error {
	revoked, err := service.sessions.Revoke(context, tokenID)
	if err != nil {
		return service.fail(context, "logout", "Logout failed", err)
	}

	if revoked {
		service.metrics.revoked(revokeReasonLogout, 1)
	}
	service.logger.DebugContext(context, "session_revoked", slog.Bool("revoked", revoked))

	return nil
}

/*
RevokeAllSessions logs the account out of every device.

Description: Best effort against a login that commits concurrently: a session
created after the update started may survive.

Returns:
  - int64: Number of sessions that were active and got revoked
  - error: Generic failure
*/
func (service *Service) RevokeAllSessions(context context.Context, userID string) (int64, error) {
	count, err := service.sessions.RevokeAll(context, userID)
	if err != nil {
		return 0, service.fail(context, "revoke_all_sessions", "Failed to revoke sessions", err)
	}

	service.metrics.revoked(revokeReasonRevokeAll, count)
	service.logger.InfoContext(context, "sessions_revoked",
		slog.String("user_id", userID),
		slog.Int64("count", count),
	)

	return count, nil
}

// ListSessions returns the valid sessions of userID, most recent activity
// first. The session of currentTokenID is flagged.
func (service *Service) ListSessions(context context.Context, userID, currentTokenID string) ([]SessionView, error) {
	sessions, err := service.sessions.ListActive(context, userID, service.now())
	if err != nil {
		return nil, service.fail(context, "list_sessions", "Failed to list sessions", err)
	}

	views := slice.Map(sessions, func(session Session) SessionView {
		return SessionView{
			IPAddress:      session.IPAddress,
			UserAgent:      session.UserAgent,
			CreatedAt:      session.CreatedAt,
			LastActivityAt: session.LastActivityAt,
			ExpiresAt:      session.ExpiresAt,
			Current:        session.TokenID == currentTokenID,
		}
	})

	return views, nil
}

/*
TryAuthenticate resolves an access token into an [sec.Identity].

Description: The token must verify and its session must still be valid.
A valid session has its last activity moved to now. Any failure, including a
storage error, yields (nil, false) and never an error.
*/
func (service *Service) TryAuthenticate(context context.Context, token string) (*sec.Identity, bool) {
	claims, err := service.tokens.DecodeAccess(token)
	if err != nil {
		return nil, false
	}

	valid, err := service.sessions.CheckAndTouch(context, claims.ID, service.now())
	if err != nil {
		service.logger.WarnContext(context, "session_check_failed", slog.Any("error", err))
		return nil, false
	}
	if !valid {
		return nil, false
	}

	return &sec.Identity{
		UserID:   claims.Subject,
		TokenID:  claims.ID,
		Tier:     claims.Tier,
		Email:    claims.Email,
		Language: claims.Language,
	}, true
}

// # Internal Helpers

// startSession issues an access and refresh token pair for user and stores
// the access token's session.
func (service *Service) startSession(context context.Context, user *User, ipAddress, userAgent string) (*AuthResult, error) {
	access, session, err := service.openSession(context, user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	refresh, err := service.tokens.IssueRefreshToken(user.ID, RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:                  user,
		Session:               session,
		AccessToken:           access.Token,
		AccessTokenExpiresAt:  access.ExpiresAt,
		RefreshToken:          refresh.Token,
		RefreshTokenExpiresAt: refresh.ExpiresAt,
	}, nil
}

// openSession issues an access token and persists its session. The session
// expires exactly when the token does.
func (service *Service) openSession(context context.Context, user *User, ipAddress, userAgent string) (sec.IssuedToken, *Session, error) {
	issued, err := service.tokens.IssueAccessToken(user.ID, user.Profile(), AccessTokenTTL)
	if err != nil {
		return sec.IssuedToken{}, nil, err
	}

	session := &Session{
		TokenID:        issued.TokenID,
		UserID:         user.ID,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		CreatedAt:      issued.IssuedAt,
		LastActivityAt: issued.IssuedAt,
		ExpiresAt:      issued.ExpiresAt,
		IsActive:       true,
	}
	if err := service.sessions.Create(context, session); err != nil {
		return sec.IssuedToken{}, nil, err
	}

	return issued, session, nil
}

/*
fail converts an error escaping an operation into what the caller may see.

Client errors (4xx AppErrors) pass through. A duplicate token id is logged
loudly and surfaced as is. Everything else is logged with the operation name
and replaced by a generic message.
*/
func (service *Service) fail(context context.Context, operation, message string, err error) error {
	if ae := apperr.As(err); ae != nil && ae.HTTPStatus < http.StatusInternalServerError {
		return err
	}

	service.metrics.failed(operation)

	if apperr.HasCode(err, apperr.CodeDuplicateToken) {
		service.logger.ErrorContext(context, "duplicate_token_id",
			slog.String("operation", operation),
			slog.Any("error", errors.Unwrap(err)),
		)
		return err
	}

	service.logger.ErrorContext(context, "auth_persistence_failure",
		slog.String("operation", operation),
		slog.Any("error", err),
	)
	return apperr.Failed(message, err)
}

// invalidField builds a single-field ValidationError whose message is the
// field message.
func invalidField(field, message string) error {
	return apperr.ValidationError(message, apperr.FieldError{Field: field, Message: message})
}

func checkName(name string) error {
	return (&validate.Validator{}).
		Custom(FieldName, name == "", "Name is required").
		MaxLen(FieldName, name, MaxNameLength).
		ErrSummary()
}

func checkEmail(email string) error {
	return (&validate.Validator{}).
		Email(FieldEmail, email).
		MaxLen(FieldEmail, email, MaxEmailLength).
		ErrSummary()
}

// checkPassword reports every unmet password rule at once.
func checkPassword(field, password string) error {
	return (&validate.Validator{}).StrongPassword(field, password).ErrSummary()
}

func checkContact(phone, bio string) error {
	return (&validate.Validator{}).
		MaxLen(FieldPhone, phone, MaxPhoneLength).
		MaxLen(FieldBio, bio, MaxBioLength).
		Err()
}

// NormalizeLanguage canonicalizes a BCP 47 tag. Empty means [DefaultLanguage].
func NormalizeLanguage(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return DefaultLanguage, nil
	}

	parsed, err := language.Parse(tag)
	if err != nil {
		return "", invalidField(FieldPreferredLanguage, "Invalid language tag")
	}
	return parsed.String(), nil
}
