// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/recipehub/internal/platform/apperr"
	"github.com/taibuivan/recipehub/internal/platform/database/schema"
	"github.com/taibuivan/recipehub/internal/platform/postgres"
)

// PostgresProfileRepository implements [ProfileRepository] using pgx.
type PostgresProfileRepository struct {
	db postgres.DB
}

// NewProfileRepository creates a new PostgreSQL implementation of the ProfileRepository.
func NewProfileRepository(db postgres.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

/*
UpdateProfile modifies the mutable profile fields of an active account.

Description: A NULL parameter keeps the stored value. An empty phone or bio
is stored as NULL.

Returns:
  - error: apperr.NotFound when no active account matched, wrapped errors otherwise
*/
func (repository *PostgresProfileRepository) UpdateProfile(context context.Context, userID string, changes ProfileChanges, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = COALESCE($2, %[2]s),
		    %[3]s = CASE WHEN $3::text IS NULL THEN %[3]s ELSE NULLIF($3, '') END,
		    %[4]s = CASE WHEN $4::text IS NULL THEN %[4]s ELSE NULLIF($4, '') END,
		    %[5]s = COALESCE($5, %[5]s),
		    %[6]s = $6
		WHERE %[7]s = $1 AND %[8]s`,
		schema.UserAccount.Table,
		schema.UserAccount.Name,
		schema.UserAccount.Phone,
		schema.UserAccount.Bio,
		schema.UserAccount.PreferredLanguage,
		schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID,
		schema.UserAccount.IsActive,
	)

	tag, err := postgres.Conn(context, repository.db).Exec(context, query,
		userID,
		changes.Name,
		changes.Phone,
		changes.Bio,
		changes.PreferredLanguage,
		at,
	)
	if err != nil {
		return fmt.Errorf("postgres_profile_repo_update_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}
