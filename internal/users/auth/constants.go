// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// AccessTokenTTL is the duration a JWT access token and its session remain valid.
	AccessTokenTTL = 1 * time.Hour

	// RefreshTokenTTL is the duration a refresh token remains valid.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// ResetTokenTTL is the duration a password reset token remains valid.
	ResetTokenTTL = 1 * time.Hour

	// VerificationTokenTTL is the duration an email verification token remains valid.
	VerificationTokenTTL = 24 * time.Hour

	// DefaultLanguage is assigned when registration does not name a language.
	DefaultLanguage = "en"

	// MaxNameLength bounds display names.
	MaxNameLength = 100

	// MaxEmailLength matches the width of the email column.
	MaxEmailLength = 255

	// Contact field bounds.
	MaxPhoneLength = 20
	MaxBioLength   = 500
)

// # Client Messages

const (
	MsgRegistered           = "Registration successful"
	MsgLoggedIn             = "Login successful"
	MsgRefreshed            = "Token refreshed"
	MsgLoggedOut            = "Logged out successfully"
	MsgSessionsRevoked      = "All sessions revoked"
	MsgPasswordChanged      = "Password changed successfully. Please log in again."
	MsgResetRequested       = "If an account with that email exists, a password reset link has been sent."
	MsgPasswordReset        = "Password has been reset. Please log in with your new password."
	MsgEmailVerified        = "Email verified successfully"
	MsgAccountDeactivated   = "Account deactivated"
	MsgAccountDeleted       = "Account deleted"
	MsgPreferencesUpdated   = "Preferences updated"
	msgInvalidCredentials   = "Invalid email or password"
	msgWrongCurrentPassword = "Current password is incorrect"
	msgUserUnavailable      = "User not found or inactive"
	msgInvalidResetToken    = "Reset token is invalid or expired"
	msgInvalidVerifyToken   = "Verification token is invalid or expired"
)
