package profile

import (
	"context"
	"fmt"
	"log/slog"

	errors "github.com/kanbanhq/board-management/internal"
	"github.com/kanbanhq/board-management/internal/permission"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*Profile, error)
	GetByID(ctx context.Context, id int64) (*Profile, error)
	Create(ctx context.Context, p *Profile) error
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, id int64) error

	HasPermission(ctx context.Context, profileID, permissionID int64) (bool, error)
	AddPermission(ctx context.Context, profileID, permissionID int64) error
	RemovePermission(ctx context.Context, profileID, permissionID int64) error
	PermissionExists(ctx context.Context, permissionID int64) (bool, error)
}

// Service owns profile CRUD and profile→permission assignment. Every
// mutation here can change the effective permissions of many users at once
// (the profile may be shared by several teams), so each one triggers the
// coordinator's broad invalidation before the success response goes out.
type Service struct {
	repo        RepositoryAPI
	invalidator *permission.Invalidator
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, invalidator *permission.Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		invalidator: invalidator,
		logger:      logger,
	}
}

func (s *Service) GetAll(ctx context.Context) ([]*Profile, error) {
	profiles, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, dto CreateProfileDTO) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p := &Profile{
		Name:          dto.Name,
		Description:   dto.Description,
		Color:         dto.Color,
		IsDefault:     dto.IsDefault,
		PermissionIDs: []int64{},
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.InfoContext(ctx, "profile created", "profile_id", p.ID, "name", p.Name)
	return p, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateProfileDTO) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		p.Name = *dto.Name
	}
	if dto.Description != nil {
		p.Description = *dto.Description
	}
	if dto.Color != nil {
		p.Color = *dto.Color
	}
	if dto.IsDefault != nil {
		p.IsDefault = *dto.IsDefault
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.invalidator.InvalidateAll(ctx)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	s.logger.InfoContext(ctx, "profile deleted", "profile_id", id)
	s.invalidator.InvalidateAll(ctx)
	return nil
}

// AssignPermission adds a permission to a profile. The join table has no
// unique constraint, so the existing-row check here is what prevents
// duplicates.
func (s *Service) AssignPermission(ctx context.Context, profileID, permissionID int64) error {
	if _, err := s.repo.GetByID(ctx, profileID); err != nil {
		return err
	}

	exists, err := s.repo.PermissionExists(ctx, permissionID)
	if err != nil {
		return fmt.Errorf("failed to check permission: %w", err)
	}
	if !exists {
		return errors.ErrPermissionNotFound
	}

	assigned, err := s.repo.HasPermission(ctx, profileID, permissionID)
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if assigned {
		return errors.ErrDuplicateAssignment
	}

	if err := s.repo.AddPermission(ctx, profileID, permissionID); err != nil {
		return fmt.Errorf("failed to assign permission: %w", err)
	}

	s.logger.InfoContext(ctx, "permission assigned to profile", "profile_id", profileID, "permission_id", permissionID)
	s.invalidator.InvalidateAll(ctx)
	return nil
}

func (s *Service) RemovePermission(ctx context.Context, profileID, permissionID int64) error {
	if _, err := s.repo.GetByID(ctx, profileID); err != nil {
		return err
	}

	if err := s.repo.RemovePermission(ctx, profileID, permissionID); err != nil {
		return fmt.Errorf("failed to remove permission: %w", err)
	}

	s.logger.InfoContext(ctx, "permission removed from profile", "profile_id", profileID, "permission_id", permissionID)
	s.invalidator.InvalidateAll(ctx)
	return nil
}
