// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		Create persists a brand-new user account.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.DuplicateEmail on a unique email violation, persistence failures otherwise
	*/
	Create(context context.Context, user *User) error

	/*
		FindByID returns the account with the given ID, active or not.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindActiveByEmail returns the active account with the given normalized email.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound (also for deactivated accounts) or retrieval failures
	*/
	FindActiveByEmail(context context.Context, email string) (*User, error)

	// ExistsByEmail reports whether any account, active or not, owns email.
	ExistsByEmail(context context.Context, email string) (bool, error)

	// UpdatePassword replaces the password hash.
	UpdatePassword(context context.Context, userID, passwordHash string, at time.Time) error

	// TouchLastLogin records a successful login.
	TouchLastLogin(context context.Context, userID string, at time.Time) error

	// MarkVerified records a confirmed email address.
	MarkVerified(context context.Context, userID string, at time.Time) error

	/*
		Deactivate flips the active flag to false.

		Returns:
		  - error: apperr.NotFound when no active account matched
	*/
	Deactivate(context context.Context, userID string, at time.Time) error

	/*
		Delete removes the account row. Sessions and owned data go with it by cascade.

		Returns:
		  - bool: Whether a row was removed
		  - error: Persistence failures
	*/
	Delete(context context.Context, userID string) (bool, error)

	// UpdateNotificationPrefs stores the full notification preference set.
	UpdateNotificationPrefs(context context.Context, userID string, prefs Preferences, at time.Time) error

	// UpdatePrivacySettings stores the full privacy settings set.
	UpdatePrivacySettings(context context.Context, userID string, settings Preferences, at time.Time) error
}

// # Session Data Access

// SessionRepository defines the data access contract for access-token sessions.
type SessionRepository interface {

	/*
		Create persists the session of a freshly issued access token.

		Returns:
		  - error: apperr.DuplicateToken if the token id already exists
	*/
	Create(context context.Context, session *Session) error

	/*
		FindByTokenID returns the session correlated to a token id, whatever its state.

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByTokenID(context context.Context, tokenID string) (*Session, error)

	/*
		CheckAndTouch reports whether the session is valid at now and, only when
		it is, moves its last activity to now. This is a read that writes.

		Returns:
		  - bool: isactive AND now < expiresat
		  - error: Persistence failures
	*/
	CheckAndTouch(context context.Context, tokenID string, now time.Time) (bool, error)

	/*
		Revoke deactivates one session. Revoking a revoked or unknown session is not an error.

		Returns:
		  - bool: true iff an active record existed and was flipped
		  - error: Persistence failures
	*/
	Revoke(context context.Context, tokenID string) (bool, error)

	// RevokeAll deactivates every active session of userID and returns how many were flipped.
	RevokeAll(context context.Context, userID string) (int64, error)

	// ListActive returns the valid sessions of userID, most recently used first.
	ListActive(context context.Context, userID string, now time.Time) ([]Session, error)

	// DeleteExpired physically removes sessions that expired before cutoff.
	DeleteExpired(context context.Context, cutoff time.Time) (int64, error)
}

// # Volatile Data Access

// OneTimeTokenRepository stores single-use tokens (password reset, email verification).
type OneTimeTokenRepository interface {

	/*
		Save stores a token for userID for a limited duration. Only a digest of
		the token is kept.

		Parameters:
		  - context: context.Context
		  - token: string (plaintext, as mailed to the user)
		  - userID: string
		  - ttl: time.Duration
	*/
	Save(context context.Context, token, userID string, ttl time.Duration) error

	/*
		Consume atomically reads and deletes a token, so it can succeed once.

		Returns:
		  - string: UserID
		  - error: apperr.InvalidToken when absent, expired or already used
	*/
	Consume(context context.Context, token string) (string, error)
}
