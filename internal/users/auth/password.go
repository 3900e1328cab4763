// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/taibuivan/recipehub/internal/platform/apperr"
	"github.com/taibuivan/recipehub/internal/platform/mail"
	"github.com/taibuivan/recipehub/internal/platform/sec"
	"github.com/taibuivan/recipehub/internal/platform/validate"
)

// Email validity labels, matching ResetTokenTTL and VerificationTokenTTL.
const (
	resetValidity        = "1 hour"
	verificationValidity = "24 hours"
)

// Password reset stages used as the "stage" label.
const (
	resetStageRequested = "requested"
	resetStageCompleted = "completed"
)

// # Password Change

// ChangePasswordInput carries an authenticated password change.
type ChangePasswordInput struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

/*
ChangePassword replaces the password of an active account and revokes all of
its sessions, including the one making the call.

Returns:
  - int64: Number of revoked sessions
  - error: UserNotFound, InvalidCredentials (wrong current password),
    ValidationError (weak new password) or a generic failure
*/
func (service *Service) ChangePassword(context context.Context, input ChangePasswordInput) (int64, error) {
	user, err := service.activeUser(context, "change_password", "Password change failed", input.UserID)
	if err != nil {
		return 0, err
	}

	if !service.hasher.Verify(input.CurrentPassword, user.PasswordHash) {
		return 0, apperr.InvalidCredentials(msgWrongCurrentPassword)
	}
	if err := checkPassword(FieldNewPassword, input.NewPassword); err != nil {
		return 0, err
	}

	revoked, err := service.replacePassword(context, user.ID, input.NewPassword)
	if err != nil {
		return 0, service.fail(context, "change_password", "Password change failed", err)
	}

	service.metrics.revoked(revokeReasonPasswordChange, revoked)
	service.logger.InfoContext(context, "password_changed",
		slog.String("user_id", user.ID),
		slog.Int64("sessions_revoked", revoked),
	)

	return revoked, nil
}

// # Password Reset

/*
RequestPasswordReset mails a single-use reset link to an active account.

Description: The outcome is the same whether or not the address belongs to
an account. Lookup, storage and delivery failures are logged and swallowed
so that the response cannot reveal which addresses are registered.

Returns:
  - error: ValidationError for a malformed address, nil otherwise
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) error {
	email = validate.NormalizeEmail(email)
	if err := checkEmail(email); err != nil {
		return err
	}

	user, err := service.users.FindActiveByEmail(context, email)
	if err != nil {
		if !apperr.IsNotFound(err) {
			service.logger.ErrorContext(context, "password_reset_lookup_failed", slog.Any("error", err))
		}
		return nil
	}

	token, err := sec.GenerateSecureToken(service.random)
	if err != nil {
		service.logger.ErrorContext(context, "password_reset_token_failed", slog.Any("error", err))
		return nil
	}

	if err := service.resetTokens.Save(context, token, user.ID, ResetTokenTTL); err != nil {
		service.logger.ErrorContext(context, "password_reset_store_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return nil
	}

	service.metrics.passwordReset(resetStageRequested)
	service.logger.InfoContext(context, "password_reset_requested", slog.String("user_id", user.ID))

	message, err := mail.PasswordReset(user.Email, user.Name, service.link("/reset-password", token), resetValidity)
	service.deliver(context, user.ID, message, err)

	return nil
}

/*
ResetPassword consumes a reset token and sets a new password.

Description: The token is consumed before the password is written, so a
failure after consumption requires a new reset request. Every session of the
account is revoked.

Returns:
  - error: ValidationError (weak password), InvalidToken (unknown, expired or
    used token, or account no longer active) or a generic failure
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return apperr.InvalidToken(msgInvalidResetToken)
	}
	if err := checkPassword(FieldNewPassword, newPassword); err != nil {
		return err
	}

	userID, err := service.resetTokens.Consume(context, token)
	if err != nil {
		return service.fail(context, "reset_password", "Password reset failed", err)
	}

	user, err := service.users.FindByID(context, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.InvalidToken(msgInvalidResetToken)
		}
		return service.fail(context, "reset_password", "Password reset failed", err)
	}
	if !user.IsActive {
		return apperr.InvalidToken(msgInvalidResetToken)
	}

	revoked, err := service.replacePassword(context, user.ID, newPassword)
	if err != nil {
		return service.fail(context, "reset_password", "Password reset failed", err)
	}

	service.metrics.passwordReset(resetStageCompleted)
	service.metrics.revoked(revokeReasonPasswordReset, revoked)
	service.logger.InfoContext(context, "password_reset_completed",
		slog.String("user_id", user.ID),
		slog.Int64("sessions_revoked", revoked),
	)

	return nil
}

// # Email Verification

// VerifyEmail consumes a verification token and marks its account verified.
func (service *Service) VerifyEmail(context context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperr.InvalidToken(msgInvalidVerifyToken)
	}

	userID, err := service.verificationTokens.Consume(context, token)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeInvalidToken) {
			return apperr.InvalidToken(msgInvalidVerifyToken)
		}
		return service.fail(context, "verify_email", "Email verification failed", err)
	}

	if err := service.users.MarkVerified(context, userID, service.now()); err != nil {
		if apperr.IsNotFound(err) {
			return apperr.InvalidToken(msgInvalidVerifyToken)
		}
		return service.fail(context, "verify_email", "Email verification failed", err)
	}

	service.logger.InfoContext(context, "email_verified", slog.String("user_id", userID))

	return nil
}

// sendVerification stores a verification token for user and mails the link.
// Failures are logged only.
func (service *Service) sendVerification(context context.Context, user *User) {
	if service.verificationTokens == nil {
		return
	}

	token, err := sec.GenerateSecureToken(service.random)
	if err != nil {
		service.logger.ErrorContext(context, "verification_token_failed", slog.Any("error", err))
		return
	}

	if err := service.verificationTokens.Save(context, token, user.ID, VerificationTokenTTL); err != nil {
		service.logger.ErrorContext(context, "verification_store_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return
	}

	message, err := mail.EmailVerification(user.Email, user.Name, service.link("/verify-email", token), verificationValidity)
	service.deliver(context, user.ID, message, err)
}

// # Internal Helpers

// replacePassword hashes and stores a new password and revokes every session
// of userID in one transaction.
func (service *Service) replacePassword(context context.Context, userID, newPassword string) (int64, error) {
	var revoked int64

	err := service.tx.WithinTx(context, func(ctx context.Context) error {
		hash, err := service.hasher.Hash(newPassword)
		if err != nil {
			return err
		}

		if err := service.users.UpdatePassword(ctx, userID, hash, service.now()); err != nil {
			return err
		}

		revoked, err = service.sessions.RevokeAll(ctx, userID)
		return err
	})

	return revoked, err
}

// deliver sends a rendered message. renderErr is the error of the template
// that produced message.
func (service *Service) deliver(context context.Context, userID string, message mail.Message, renderErr error) {
	if service.mailer == nil {
		return
	}
	if renderErr != nil {
		service.logger.ErrorContext(context, "mail_render_failed", slog.Any("error", renderErr))
		return
	}

	if err := service.mailer.Send(context, message); err != nil {
		service.logger.ErrorContext(context, "mail_delivery_failed",
			slog.String("user_id", userID),
			slog.String("subject", message.Subject),
			slog.Any("error", err),
		)
	}
}

// link builds an absolute front-end URL carrying token.
func (service *Service) link(path, token string) string {
	return service.appBaseURL + path + "?" + url.Values{"token": {token}}.Encode()
}
