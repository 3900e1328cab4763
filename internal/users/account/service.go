// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/recipehub/internal/platform/apperr"
	"github.com/taibuivan/recipehub/internal/platform/validate"
	"github.com/taibuivan/recipehub/internal/users/auth"
)

// Service implements profile use cases for the authenticated user.
type Service struct {
	profileRepository ProfileRepository
	identity          Identity
	now               func() time.Time
	logger            *slog.Logger
}

// NewService constructs a new account [Service].
func NewService(profileRepo ProfileRepository, identity Identity, logger *slog.Logger) *Service {
	return &Service{
		profileRepository: profileRepo,
		identity:          identity,
		now:               time.Now,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the private profile of an active user.

Returns:
  - *Profile: The owner's view, preferences included
  - error: UserNotFound or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*Profile, error) {
	user, err := service.identity.GetUser(context, userID)
	if err != nil {
		return nil, err
	}
	return NewProfile(user), nil
}

/*
UpdateProfile applies a partial set of changes to the profile.

Description: Text fields are trimmed and the name is NFC-normalized. An
empty phone or bio clears it; the name cannot be cleared. The language must
be a valid BCP 47 tag.

Returns:
  - *Profile: The updated profile
  - error: ValidationError, UserNotFound or a generic failure
*/
func (service *Service) UpdateProfile(context context.Context, userID string, changes ProfileChanges) (*Profile, error) {
	changes, err := normalizeChanges(changes)
	if err != nil {
		return nil, err
	}

	if changes.Empty() {
		return service.GetProfile(context, userID)
	}

	if err := service.profileRepository.UpdateProfile(context, userID, changes, service.now()); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.UserNotFound("User not found or inactive")
		}
		service.logger.ErrorContext(context, "profile_update_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return nil, apperr.Failed("Profile update failed", err)
	}

	service.logger.InfoContext(context, "profile_updated", slog.String("user_id", userID))

	return service.GetProfile(context, userID)
}

// normalizeChanges trims every set field and validates the result.
func normalizeChanges(changes ProfileChanges) (ProfileChanges, error) {
	v := &validate.Validator{}

	if changes.Name != nil {
		name := validate.NormalizeName(*changes.Name)
		v.Required(auth.FieldName, name).MaxLen(auth.FieldName, name, auth.MaxNameLength)
		changes.Name = &name
	}
	if changes.Phone != nil {
		phone := strings.TrimSpace(*changes.Phone)
		v.MaxLen(auth.FieldPhone, phone, auth.MaxPhoneLength)
		changes.Phone = &phone
	}
	if changes.Bio != nil {
		bio := strings.TrimSpace(*changes.Bio)
		v.MaxLen(auth.FieldBio, bio, auth.MaxBioLength)
		changes.Bio = &bio
	}
	if err := v.Err(); err != nil {
		return changes, err
	}

	if changes.PreferredLanguage != nil {
		lang, err := auth.NormalizeLanguage(*changes.PreferredLanguage)
		if err != nil {
			return changes, err
		}
		changes.PreferredLanguage = &lang
	}

	return changes, nil
}
