package user

import (
	"context"
	"fmt"
	"log/slog"

	errors "github.com/kanbanhq/board-management/internal"
	"github.com/kanbanhq/board-management/internal/auth"
	"github.com/kanbanhq/board-management/internal/permission"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User, passwordHash string) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error

	SetProfile(ctx context.Context, userID int64, profileID *int64) error
	SetPasswordHash(ctx context.Context, userID int64, hash string) error
	SetActive(ctx context.Context, userID int64, active bool) error
	ProfileExists(ctx context.Context, profileID int64) (bool, error)
}

// Service owns account administration. Mutations that alter a single user's
// permission sources or terminate their sessions invalidate that user's
// cached contexts only.
type Service struct {
	repo        RepositoryAPI
	invalidator *permission.Invalidator
	bcryptCost  int
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, invalidator *permission.Invalidator, bcryptCost int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		invalidator: invalidator,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

func (s *Service) GetAll(ctx context.Context) ([]*User, error) {
	users, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByEmail(ctx, dto.Email); err == nil && existing != nil {
		return nil, errors.NewConflictError("Email already in use", errors.ErrCodeDuplicateAssignment)
	}

	if dto.ProfileID != nil {
		exists, err := s.repo.ProfileExists(ctx, *dto.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("failed to check profile: %w", err)
		}
		if !exists {
			return nil, errors.ErrProfileNotFound
		}
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		Email:     dto.Email,
		Name:      dto.Name,
		ProfileID: dto.ProfileID,
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, u, hash); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", u.ID, "email", u.Email)
	return u, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		u.Name = *dto.Name
	}
	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	// Deactivation must take effect before cached contexts expire on
	// their own.
	if dto.IsActive != nil && !*dto.IsActive {
		s.invalidator.InvalidateUser(ctx, id)
	}
	return u, nil
}

// AssignProfile sets or clears the user's direct permission profile.
func (s *Service) AssignProfile(ctx context.Context, userID int64, profileID *int64) error {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return err
	}

	if profileID != nil {
		exists, err := s.repo.ProfileExists(ctx, *profileID)
		if err != nil {
			return fmt.Errorf("failed to check profile: %w", err)
		}
		if !exists {
			return errors.ErrProfileNotFound
		}
	}

	if err := s.repo.SetProfile(ctx, userID, profileID); err != nil {
		return fmt.Errorf("failed to assign profile: %w", err)
	}

	s.logger.InfoContext(ctx, "user profile assigned", "user_id", userID)
	s.invalidator.InvalidateUser(ctx, userID)
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return err
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.SetPasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.logger.InfoContext(ctx, "user password changed", "user_id", userID)
	s.invalidator.InvalidateUser(ctx, userID)
	return nil
}

func (s *Service) Deactivate(ctx context.Context, userID int64) error {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, userID, false); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deactivated", "user_id", userID)
	s.invalidator.InvalidateUser(ctx, userID)
	return nil
}

func (s *Service) Delete(ctx context.Context, userID int64) error {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", userID)
	s.invalidator.InvalidateUser(ctx, userID)
	return nil
}
