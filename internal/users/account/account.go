// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles the authenticated user's own profile and settings.

It provides functionalities for users to view and update their profile,
configure notification and privacy preferences, change their password and
manage their active device sessions, up to deactivating or deleting the account.

# Architecture

  - Entities: Profile (DTO), ProfileChanges.
  - Domain: Lifecycle rules live in the auth package; this package depends on
    it through the [Identity] contract.
  - Security: Every route runs behind RequireAuth and acts on the caller only.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/recipehub/internal/users/auth"
)

// # Domain Entities

// Profile is the private view of the authenticated user.
type Profile struct {
	auth.PublicUser
	NotificationPreferences auth.Preferences `json:"notification_preferences"`
	PrivacySettings         auth.Preferences `json:"privacy_settings"`
}

// NewProfile projects a user for the owner's eyes.
func NewProfile(user *auth.User) *Profile {
	return &Profile{
		PublicUser:              user.Public(),
		NotificationPreferences: auth.Merge(auth.DefaultNotificationPrefs(), user.NotificationPrefs, nil),
		PrivacySettings:         auth.Merge(auth.DefaultPrivacySettings(), user.PrivacySettings, nil),
	}
}

// ProfileChanges is a partial profile update. Nil fields are left untouched.
type ProfileChanges struct {
	Name              *string
	Phone             *string
	Bio               *string
	PreferredLanguage *string
}

// Empty reports whether no field is set.
func (changes ProfileChanges) Empty() bool {
	return changes.Name == nil && changes.Phone == nil && changes.Bio == nil && changes.PreferredLanguage == nil
}

// # Contracts

// ProfileRepository defines the persistence contract for profile fields.
type ProfileRepository interface {
	/*
		UpdateProfile applies the non-nil fields to an active account.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - changes: ProfileChanges (already validated and normalized)
		  - at: time.Time

		Returns:
		  - error: apperr.NotFound when no active account matched
	*/
	UpdateProfile(context context.Context, userID string, changes ProfileChanges, at time.Time) error
}

// Identity is the part of the auth service the account routes rely on.
type Identity interface {
	GetUser(context context.Context, userID string) (*auth.User, error)
	ChangePassword(context context.Context, input auth.ChangePasswordInput) (int64, error)
	ListSessions(context context.Context, userID, currentTokenID string) ([]auth.SessionView, error)
	RevokeAllSessions(context context.Context, userID string) (int64, error)
	UpdateNotificationPreferences(context context.Context, userID string, updates auth.Preferences) (auth.Preferences, error)
	UpdatePrivacySettings(context context.Context, userID string, updates auth.Preferences) (auth.Preferences, error)
	Deactivate(context context.Context, userID, reason string) (int64, error)
	Delete(context context.Context, userID string) error
}
