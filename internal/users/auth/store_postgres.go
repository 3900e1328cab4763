// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/recipehub/internal/platform/apperr"
	"github.com/taibuivan/recipehub/internal/platform/dberr"
	"github.com/taibuivan/recipehub/internal/platform/postgres"
)

// Constraint names from data/migrations.
const (
	constraintAccountEmail = "account_email_key"
	constraintSessionPK    = "session_pkey"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
//
// Every statement runs on the transaction bound to the context, if any.
type PostgresUserRepository struct {
	db postgres.DB
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(db postgres.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `
	id, name, email, passwordhash, preferredlanguage, COALESCE(phone, ''), COALESCE(bio, ''),
	tier, isactive, isverified, emailverifiedat, lastloginat, notificationprefs, privacysettings,
	createdat, updatedat`

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.PreferredLanguage,
		&user.Phone,
		&user.Bio,
		&user.Tier,
		&user.IsActive,
		&user.IsVerified,
		&user.EmailVerifiedAt,
		&user.LastLoginAt,
		&user.NotificationPrefs,
		&user.PrivacySettings,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new user record into the users.account table.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist, timestamps already set by the service)

Returns:
  - error: apperr.DuplicateEmail on the email unique constraint, wrapped errors otherwise
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, name, email, passwordhash, preferredlanguage, phone, bio, tier,
			isactive, isverified, lastloginat, notificationprefs, privacysettings, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := postgres.Conn(context, repository.db).Exec(context, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.PreferredLanguage,
		user.Phone,
		user.Bio,
		string(user.Tier),
		user.IsActive,
		user.IsVerified,
		user.LastLoginAt,
		user.NotificationPrefs,
		user.PrivacySettings,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err, constraintAccountEmail) {
			return apperr.DuplicateEmail()
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

// FindByID retrieves a user record by primary key.
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users.account WHERE id = $1`

	user, err := scanUser(postgres.Conn(context, repository.db).QueryRow(context, query, id))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
FindActiveByEmail retrieves an active user by normalized email.

Deactivated accounts are reported as not found so that login cannot tell
them apart from unknown addresses.
*/
func (repository *PostgresUserRepository) FindActiveByEmail(context context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users.account WHERE email = $1 AND isactive`

	user, err := scanUser(postgres.Conn(context, repository.db).QueryRow(context, query, email))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

// ExistsByEmail reports whether an account owns email.
func (repository *PostgresUserRepository) ExistsByEmail(context context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users.account WHERE email = $1)`

	var exists bool
	if err := postgres.Conn(context, repository.db).QueryRow(context, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_user_repo_exists_by_email_failed: %w", err)
	}

	return exists, nil
}

// UpdatePassword replaces only the user's password hash.
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, passwordHash string, at time.Time) error {
	const query = `UPDATE users.account SET passwordhash = $2, updatedat = $3 WHERE id = $1`
	return repository.execOne(context, "update_password", query, userID, passwordHash, at)
}

// TouchLastLogin records the time of a successful login.
func (repository *PostgresUserRepository) TouchLastLogin(context context.Context, userID string, at time.Time) error {
	const query = `UPDATE users.account SET lastloginat = $2 WHERE id = $1`
	return repository.execOne(context, "touch_last_login", query, userID, at)
}

// MarkVerified updates the user's status to isverified = true.
func (repository *PostgresUserRepository) MarkVerified(context context.Context, userID string, at time.Time) error {
	const query = `
		UPDATE users.account
		SET isverified = TRUE, emailverifiedat = COALESCE(emailverifiedat, $2), updatedat = $2
		WHERE id = $1`
	return repository.execOne(context, "mark_verified", query, userID, at)
}

// Deactivate flips an active account to inactive.
func (repository *PostgresUserRepository) Deactivate(context context.Context, userID string, at time.Time) error {
	const query = `UPDATE users.account SET isactive = FALSE, updatedat = $2 WHERE id = $1 AND isactive`
	return repository.execOne(context, "deactivate", query, userID, at)
}

// Delete removes the account. users.session rows cascade.
func (repository *PostgresUserRepository) Delete(context context.Context, userID string) (bool, error) {
	const query = `DELETE FROM users.account WHERE id = $1`

	tag, err := postgres.Conn(context, repository.db).Exec(context, query, userID)
	if err != nil {
		return false, fmt.Errorf("postgres_user_repo_delete_failed: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// UpdateNotificationPrefs overwrites the notification preference document.
func (repository *PostgresUserRepository) UpdateNotificationPrefs(context context.Context, userID string, prefs Preferences, at time.Time) error {
	const query = `UPDATE users.account SET notificationprefs = $2, updatedat = $3 WHERE id = $1`
	return repository.execOne(context, "update_notification_prefs", query, userID, prefs, at)
}

// UpdatePrivacySettings overwrites the privacy settings document.
func (repository *PostgresUserRepository) UpdatePrivacySettings(context context.Context, userID string, settings Preferences, at time.Time) error {
	const query = `UPDATE users.account SET privacysettings = $2, updatedat = $3 WHERE id = $1`
	return repository.execOne(context, "update_privacy_settings", query, userID, settings, at)
}

// execOne runs an UPDATE that must touch exactly one account.
func (repository *PostgresUserRepository) execOne(context context.Context, action, query string, args ...any) error {
	tag, err := postgres.Conn(context, repository.db).Exec(context, query, args...)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_%s_failed: %w", action, err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// # Session Repository

// PostgresSessionRepository implements the SessionRepository interface using pgx.
type PostgresSessionRepository struct {
	db postgres.DB
}

// NewSessionRepository creates a new PostgreSQL implementation of the SessionRepository.
func NewSessionRepository(db postgres.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

const sessionColumns = `
	tokenid, userid, COALESCE(ipaddress, ''), COALESCE(useragent, ''),
	createdat, lastactivityat, expiresat, isactive`

func scanSession(row pgx.Row) (*Session, error) {
	session := &Session{}
	err := row.Scan(
		&session.TokenID,
		&session.UserID,
		&session.IPAddress,
		&session.UserAgent,
		&session.CreatedAt,
		&session.LastActivityAt,
		&session.ExpiresAt,
		&session.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

/*
Create persists a new session for an issued access token.

Returns:
  - error: apperr.DuplicateToken if the token id is already taken. A collision
    means the random source is broken.
*/
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	const query = `
		INSERT INTO users.session (
			tokenid, userid, ipaddress, useragent, createdat, lastactivityat, expiresat, isactive
		) VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8)`

	_, err := postgres.Conn(context, repository.db).Exec(context, query,
		session.TokenID,
		session.UserID,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
		session.LastActivityAt,
		session.ExpiresAt,
		session.IsActive,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err, constraintSessionPK) {
			return apperr.DuplicateToken(fmt.Errorf("session token id collision: %w", err))
		}
		return fmt.Errorf("postgres_session_repo_create_failed: %w", err)
	}

	return nil
}

// FindByTokenID returns the session for a token id in any state.
func (repository *PostgresSessionRepository) FindByTokenID(context context.Context, tokenID string) (*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM users.session WHERE tokenid = $1`

	session, err := scanSession(postgres.Conn(context, repository.db).QueryRow(context, query, tokenID))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_session_repo_find_failed: %w", err)
	}

	return session, nil
}

// CheckAndTouch moves lastactivityat to now only for a valid session, and
// reports whether one was touched. Validity and the write share one statement.
func (repository *PostgresSessionRepository) CheckAndTouch(context context.Context, tokenID string, now time.Time) (bool, error) {
	const query = `
		UPDATE users.session
		SET lastactivityat = $2
		WHERE tokenid = $1 AND isactive AND expiresat > $2`

	tag, err := postgres.Conn(context, repository.db).Exec(context, query, tokenID, now)
	if err != nil {
		return false, fmt.Errorf("postgres_session_repo_check_and_touch_failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Revoke flips one active session to inactive.
func (repository *PostgresSessionRepository) Revoke(context context.Context, tokenID string) (bool, error) {
	const query = `UPDATE users.session SET isactive = FALSE WHERE tokenid = $1 AND isactive`

	tag, err := postgres.Conn(context, repository.db).Exec(context, query, tokenID)
	if err != nil {
		return false, fmt.Errorf("postgres_session_repo_revoke_failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// RevokeAll flips every active session of a user to inactive.
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, userID string) (int64, error) {
	const query = `UPDATE users.session SET isactive = FALSE WHERE userid = $1 AND isactive`

	tag, err := postgres.Conn(context, repository.db).Exec(context, query, userID)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_revoke_all_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ListActive returns the valid sessions of a user ordered by last activity, newest first.
func (repository *PostgresSessionRepository) ListActive(context context.Context, userID string, now time.Time) ([]Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM users.session
		WHERE userid = $1 AND isactive AND expiresat > $2
		ORDER BY lastactivityat DESC`

	rows, err := postgres.Conn(context, repository.db).Query(context, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_list_active_failed: %w", err)
	}
	defer rows.Close()

	sessions := make([]Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_session_repo_list_active_scan_failed: %w", err)
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_session_repo_list_active_rows_failed: %w", err)
	}

	return sessions, nil
}

// DeleteExpired physically removes sessions whose ExpiresAt is before cutoff.
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM users.session WHERE expiresat < $1`

	tag, err := postgres.Conn(context, repository.db).Exec(context, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_delete_expired_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}
