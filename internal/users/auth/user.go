// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session) and the authentication
service: registration, login, refresh, logout, session revocation, password
lifecycle and account deactivation or deletion.

# Architecture

  - Service: orchestrates the use cases, one transaction per operation.
  - Repositories: PostgreSQL for users and sessions, Redis for single-use tokens.
  - Security: bcrypt hashing and RS256 JWTs from the sec package.

Every access token has exactly one session row, keyed by the token's jti.
A session is valid iff it is active and not yet expired; validity is derived
on each use and never cached.
*/
package auth

import (
	"time"

	"github.com/taibuivan/recipehub/internal/platform/sec"
)

// # Domain Entities

// User represents a registered RecipeHub account.
type User struct {
	ID                string
	Name              string
	Email             string
	PasswordHash      string
	PreferredLanguage string
	Phone             string
	Bio               string
	Tier              sec.AccountTier
	IsActive          bool
	IsVerified        bool
	EmailVerifiedAt   *time.Time
	LastLoginAt       *time.Time
	NotificationPrefs Preferences
	PrivacySettings   Preferences
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Profile returns the token claims derived from the user.
func (user *User) Profile() sec.Profile {
	return sec.Profile{
		Tier:     user.Tier,
		Email:    user.Email,
		Language: user.PreferredLanguage,
	}
}

// PublicUser is the client-facing projection of a [User]. It never carries
// the password hash.
type PublicUser struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	PreferredLanguage string          `json:"preferred_language"`
	Phone             string          `json:"phone,omitempty"`
	Bio               string          `json:"bio,omitempty"`
	Tier              sec.AccountTier `json:"tier"`
	IsVerified        bool            `json:"is_verified"`
	LastLoginAt       *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Public projects the user for API responses.
func (user *User) Public() PublicUser {
	return PublicUser{
		ID:                user.ID,
		Name:              user.Name,
		Email:             user.Email,
		PreferredLanguage: user.PreferredLanguage,
		Phone:             user.Phone,
		Bio:               user.Bio,
		Tier:              user.Tier,
		IsVerified:        user.IsVerified,
		LastLoginAt:       user.LastLoginAt,
		CreatedAt:         user.CreatedAt,
	}
}

// Session is the server-side record of one issued access token.
//
// ExpiresAt is fixed at creation. IsActive flips to false once and never back.
type Session struct {
	TokenID        string
	UserID         string
	IPAddress      string
	UserAgent      string
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
	IsActive       bool
}

// ValidAt reports whether the session can authenticate a request at now.
func (session *Session) ValidAt(now time.Time) bool {
	return session.IsActive && now.Before(session.ExpiresAt)
}

// SessionView is the client-facing projection of a [Session]. The token id
// stays server-side.
type SessionView struct {
	IPAddress      string    `json:"ip_address,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	Current        bool      `json:"current"`
}

// # Field Identifiers

// Global field names for validation in the authentication domain.
const (
	FieldName              = "name"
	FieldEmail             = "email"
	FieldPassword          = "password"
	FieldPreferredLanguage = "preferred_language"
	FieldPhone             = "phone"
	FieldBio               = "bio"
	FieldToken             = "token"
	FieldCurrentPassword   = "current_password"
	FieldNewPassword       = "new_password"
	FieldRefreshToken      = "refresh_token"
)
