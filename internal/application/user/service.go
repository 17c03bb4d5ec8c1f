package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trueque-app/trueque-api/internal/domain/apperrors"
	"github.com/trueque-app/trueque-api/internal/domain/user"
)

// Service handles user profiles.
type Service struct {
	userRepo user.Repository
	logger   zerolog.Logger
}

// NewService creates a user service.
func NewService(userRepo user.Repository, logger zerolog.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperrors.NotFound("user not found")
	}
	return u, nil
}

// UpdateInput is the input for editing a profile. Nil fields are left
// unchanged.
type UpdateInput struct {
	Name     *string `json:"name"`
	Language *string `json:"language"`
	Picture  *string `json:"picture"`
}

// Update edits the caller's own profile. Changing the language also
// moves the user to that language's default region.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, input UpdateInput) (*user.User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var v apperrors.Violations
	if input.Name != nil {
		if err := user.ValidateName(*input.Name); err != nil {
			v.Add("name", err.Error())
		}
	}
	if input.Language != nil {
		if err := user.ValidateLanguage(*input.Language); err != nil {
			v.Add("language", err.Error())
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if input.Name != nil {
		u.Name = *input.Name
	}
	if input.Language != nil && *input.Language != u.Language {
		u.Language = *input.Language
		u.Region = user.RegionForLanguage(*input.Language)
	}
	if input.Picture != nil {
		u.Picture = input.Picture
	}
	u.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword replaces the caller's password after checking the
// current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !u.HasPasswordAuth() {
		return apperrors.Conflict("account has no password")
	}
	if !user.VerifyPassword(u.PasswordHash, current) {
		return apperrors.Authorization("current password is incorrect")
	}
	if err := user.ValidatePassword(next); err != nil {
		return apperrors.Validation("validation failed", apperrors.FieldError{Field: "password", Message: err.Error()})
	}

	hash, err := user.HashPassword(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return s.userRepo.Update(ctx, u)
}
