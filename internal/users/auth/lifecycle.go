// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/recipehub/internal/platform/apperr"
)

// # Account Lookup

// GetUser returns the active account with the given ID.
func (service *Service) GetUser(context context.Context, userID string) (*User, error) {
	return service.activeUser(context, "get_user", "Failed to load account", userID)
}

// activeUser is [Service.loadActive] with storage errors converted by [Service.fail].
func (service *Service) activeUser(context context.Context, operation, message, userID string) (*User, error) {
	user, err := service.loadActive(context, userID)
	if err != nil {
		return nil, service.fail(context, operation, message, err)
	}
	return user, nil
}

// loadActive reports a missing or deactivated account as UserNotFound.
func (service *Service) loadActive(context context.Context, userID string) (*User, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.UserNotFound(msgUserUnavailable)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.UserNotFound(msgUserUnavailable)
	}
	return user, nil
}

// # Deactivation & Deletion

/*
Deactivate disables an active account and revokes all of its sessions.
There is no reactivation.

Parameters:
  - context: context.Context
  - userID: string
  - reason: string (free text, logged only)

Returns:
  - int64: Number of revoked sessions
  - error: UserNotFound if the account is unknown or already inactive
*/
func (service *Service) Deactivate(context context.Context, userID, reason string) (int64, error) {
	var revoked int64

	err := service.tx.WithinTx(context, func(ctx context.Context) error {
		if err := service.users.Deactivate(ctx, userID, service.now()); err != nil {
			if apperr.IsNotFound(err) {
				return apperr.UserNotFound(msgUserUnavailable)
			}
			return err
		}

		var err error
		revoked, err = service.sessions.RevokeAll(ctx, userID)
		return err
	})
	if err != nil {
		return 0, service.fail(context, "deactivate", "Account deactivation failed", err)
	}

	service.metrics.revoked(revokeReasonDeactivation, revoked)
	service.logger.InfoContext(context, "account_deactivated",
		slog.String("user_id", userID),
		slog.String("reason", reason),
		slog.Int64("sessions_revoked", revoked),
	)

	return revoked, nil
}

// Delete permanently removes an account. Its sessions are removed with it.
func (service *Service) Delete(context context.Context, userID string) error {
	deleted, err := service.users.Delete(context, userID)
	if err != nil {
		return service.fail(context, "delete", "Account deletion failed", err)
	}
	if !deleted {
		return apperr.UserNotFound(msgUserUnavailable)
	}

	service.logger.InfoContext(context, "account_deleted", slog.String("user_id", userID))

	return nil
}

// # Preferences

// UpdateNotificationPreferences merges whitelisted updates into the
// notification preferences of an active account and returns the result.
func (service *Service) UpdateNotificationPreferences(context context.Context, userID string, updates Preferences) (Preferences, error) {
	return service.updatePreferences(context, "update_notification_preferences", userID,
		func(user *User) Preferences {
			return Merge(DefaultNotificationPrefs(), user.NotificationPrefs, updates)
		},
		service.users.UpdateNotificationPrefs,
	)
}

// UpdatePrivacySettings merges whitelisted updates into the privacy settings
// of an active account and returns the result.
func (service *Service) UpdatePrivacySettings(context context.Context, userID string, updates Preferences) (Preferences, error) {
	return service.updatePreferences(context, "update_privacy_settings", userID,
		func(user *User) Preferences {
			return Merge(DefaultPrivacySettings(), user.PrivacySettings, updates)
		},
		service.users.UpdatePrivacySettings,
	)
}

func (service *Service) updatePreferences(
	context context.Context,
	operation, userID string,
	merge func(user *User) Preferences,
	store func(context context.Context, userID string, prefs Preferences, at time.Time) error,
) (Preferences, error) {
	var merged Preferences

	err := service.tx.WithinTx(context, func(ctx context.Context) error {
		user, err := service.loadActive(ctx, userID)
		if err != nil {
			return err
		}

		merged = merge(user)
		return store(ctx, userID, merged, service.now())
	})
	if err != nil {
		return nil, service.fail(context, operation, "Failed to update preferences", err)
	}

	service.logger.InfoContext(context, "preferences_updated",
		slog.String("user_id", userID),
		slog.String("operation", operation),
	)

	return merged, nil
}

// # Housekeeping

// PurgeExpiredSessions physically removes sessions that are already expired.
// Session validity never depends on this running.
func (service *Service) PurgeExpiredSessions(context context.Context) (int64, error) {
	removed, err := service.sessions.DeleteExpired(context, service.now())
	if err != nil {
		return 0, service.fail(context, "purge_expired_sessions", "Session cleanup failed", err)
	}
	return removed, nil
}

// RunSessionJanitor calls [Service.PurgeExpiredSessions] every interval
// until context is done.
func (service *Service) RunSessionJanitor(context context.Context, interval, batchTimeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-context.Done():
			return
		case <-ticker.C:
			service.purgeOnce(context, batchTimeout)
		}
	}
}

func (service *Service) purgeOnce(parent context.Context, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	removed, err := service.PurgeExpiredSessions(ctx)
	if err != nil {
		return
	}
	if removed > 0 {
		service.logger.InfoContext(ctx, "expired_sessions_purged", slog.Int64("count", removed))
	}
}
