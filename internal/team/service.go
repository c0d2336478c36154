package team

import (
	"context"
	"fmt"
	"log/slog"

	errors "github.com/kanbanhq/board-management/internal"
	"github.com/kanbanhq/board-management/internal/permission"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*Team, error)
	GetByID(ctx context.Context, id int64) (*Team, error)
	Create(ctx context.Context, t *Team) error
	Update(ctx context.Context, t *Team) error
	Delete(ctx context.Context, id int64) error

	GetMembers(ctx context.Context, teamID int64) ([]*Member, error)
	IsMember(ctx context.Context, teamID, userID int64) (bool, error)
	AddMember(ctx context.Context, teamID, userID int64, role string) error
	RemoveMember(ctx context.Context, teamID, userID int64) error
	UserExists(ctx context.Context, userID int64) (bool, error)

	HasProfile(ctx context.Context, teamID, profileID int64) (bool, error)
	AssignProfile(ctx context.Context, teamID, profileID int64) error
	UnassignProfile(ctx context.Context, teamID, profileID int64) error
	ProfileExists(ctx context.Context, profileID int64) (bool, error)
}

// Service owns team CRUD, membership, and team→profile assignment. The
// invalidation scope differs per mutation: membership changes touch one
// user's effective permissions, profile assignment and team deletion touch
// every member's, so the former invalidates one user and the latter
// invalidates everything.
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

func (s *Service) GetAll(ctx context.Context) ([]*Team, error) {
	teams, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Team, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, dto CreateTeamDTO) (*Team, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t := &Team{
		Name:        dto.Name,
		Description: dto.Description,
		Color:       dto.Color,
		ProfileIDs:  []int64{},
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	s.logger.InfoContext(ctx, "team created", "team_id", t.ID, "name", t.Name)
	return t, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateTeamDTO) (*Team, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		t.Name = *dto.Name
	}
	if dto.Description != nil {
		t.Description = *dto.Description
	}
	if dto.Color != nil {
		t.Color = *dto.Color
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	s.logger.InfoContext(ctx, "team deleted", "team_id", id)
	s.invalidator.InvalidateAll(ctx)
	return nil
}

func (s *Service) GetMembers(ctx context.Context, teamID int64) ([]*Member, error) {
	if _, err := s.repo.GetByID(ctx, teamID); err != nil {
		return nil, err
	}
	return s.repo.GetMembers(ctx, teamID)
}

func (s *Service) AddMember(ctx context.Context, teamID int64, dto AddMemberDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	if _, err := s.repo.GetByID(ctx, teamID); err != nil {
		return err
	}

	exists, err := s.repo.UserExists(ctx, dto.UserID)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return errors.ErrUserNotFound
	}

	member, err := s.repo.IsMember(ctx, teamID, dto.UserID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if member {
		return errors.ErrDuplicateAssignment
	}

	role := dto.Role
	if role == "" {
		role = "member"
	}
	if err := s.repo.AddMember(ctx, teamID, dto.UserID, role); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	s.logger.InfoContext(ctx, "member added to team", "team_id", teamID, "user_id", dto.UserID, "role", role)
	s.invalidator.InvalidateUser(ctx, dto.UserID)
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, teamID, userID int64) error {
	if _, err := s.repo.GetByID(ctx, teamID); err != nil {
		return err
	}

	member, err := s.repo.IsMember(ctx, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return errors.ErrMembershipNotFound
	}

	if err := s.repo.RemoveMember(ctx, teamID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.logger.InfoContext(ctx, "member removed from team", "team_id", teamID, "user_id", userID)
	s.invalidator.InvalidateUser(ctx, userID)
	return nil
}

// AssignProfile attaches a permission profile to a team. The team_profiles
// table has no unique constraint, so duplicates are rejected here.
func (s *Service) AssignProfile(ctx context.Context, teamID, profileID int64) error {
	if _, err := s.repo.GetByID(ctx, teamID); err != nil {
		return err
	}

	exists, err := s.repo.ProfileExists(ctx, profileID)
	if err != nil {
		return fmt.Errorf("failed to check profile: %w", err)
	}
	if !exists {
		return errors.ErrProfileNotFound
	}

	assigned, err := s.repo.HasProfile(ctx, teamID, profileID)
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if assigned {
		return errors.ErrDuplicateAssignment
	}

	if err := s.repo.AssignProfile(ctx, teamID, profileID); err != nil {
		return fmt.Errorf("failed to assign profile: %w", err)
	}

	s.logger.InfoContext(ctx, "profile assigned to team", "team_id", teamID, "profile_id", profileID)
	s.invalidator.InvalidateAll(ctx)
	return nil
}

func (s *Service) UnassignProfile(ctx context.Context, teamID, profileID int64) error {
	if _, err := s.repo.GetByID(ctx, teamID); err != nil {
		return err
	}

	if err := s.repo.UnassignProfile(ctx, teamID, profileID); err != nil {
		return fmt.Errorf("failed to unassign profile: %w", err)
	}

	s.logger.InfoContext(ctx, "profile unassigned from team", "team_id", teamID, "profile_id", profileID)
	s.invalidator.InvalidateAll(ctx)
	return nil
}
