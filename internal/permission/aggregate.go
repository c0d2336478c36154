package permission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kanbanhq/board-management/internal/cache"
	profileDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/profile"
	teamDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/team"
	userDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/user"
)

// aggregateTTL bounds staleness of the admin permission-data view. A single
// consolidated read path replaces the parallel legacy/optimized endpoints
// the original application grew.
const aggregateTTL = 10 * time.Second

// AggregateRepositoryAPI lists the raw rows of the permission graph.
type AggregateRepositoryAPI interface {
	ListPermissions(ctx context.Context) ([]profileDatamodel.Permission, error)
	ListProfiles(ctx context.Context) ([]profileDatamodel.Profile, error)
	ListProfilePermissions(ctx context.Context) ([]profileDatamodel.ProfilePermission, error)
	ListUsers(ctx context.Context) ([]userDatamodel.User, error)
	ListTeams(ctx context.Context) ([]teamDatamodel.Team, error)
	ListUserTeams(ctx context.Context) ([]teamDatamodel.UserTeam, error)
	ListTeamProfiles(ctx context.Context) ([]teamDatamodel.TeamProfile, error)
}

type PermissionView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type ProfileView struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Color         string  `json:"color"`
	IsDefault     bool    `json:"is_default"`
	PermissionIDs []int64 `json:"permission_ids"`
}

type UserView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	ProfileID *int64 `json:"profile_id,omitempty"`
	IsActive  bool   `json:"is_active"`
}

type TeamView struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Color       string  `json:"color"`
	ProfileIDs  []int64 `json:"profile_ids"`
	MemberIDs   []int64 `json:"member_ids"`
}

// PermissionData is the consolidated payload consumed by the admin screens:
// the four collection views of the permission graph in one response.
type PermissionData struct {
	Permissions []PermissionView `json:"permissions"`
	Profiles    []ProfileView    `json:"profiles"`
	Users       []UserView       `json:"users"`
	Teams       []TeamView       `json:"teams"`
	GeneratedAt time.Time        `json:"generated_at"`
}

type AggregateService struct {
	repo   AggregateRepositoryAPI
	cache  cache.Cache
	logger *slog.Logger
}

func NewAggregateService(repo AggregateRepositoryAPI, c cache.Cache, logger *slog.Logger) *AggregateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregateService{repo: repo, cache: c, logger: logger}
}

// PermissionData returns the cached aggregate, rebuilding it on miss. Cache
// failures degrade to a direct rebuild; they never fail the read.
func (s *AggregateService) PermissionData(ctx context.Context) (*PermissionData, error) {
	if data, err := s.cache.Get(ctx, cache.PermissionDataKey); err == nil {
		var cached PermissionData
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
		// corrupt entry, drop and rebuild
		_ = s.cache.Del(ctx, cache.PermissionDataKey)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "permission data cache unavailable, rebuilding", "error", err)
	}

	built, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(built); err == nil {
		if err := s.cache.Set(ctx, cache.PermissionDataKey, payload, aggregateTTL); err != nil {
			s.logger.WarnContext(ctx, "failed to cache permission data aggregate", "error", err)
		}
	}

	return built, nil
}

// build is the single normalization pass from raw rows to the four views.
func (s *AggregateService) build(ctx context.Context) (*PermissionData, error) {
	permissions, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	profilePerms, err := s.repo.ListProfilePermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profile permissions: %w", err)
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	teams, err := s.repo.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	userTeams, err := s.repo.ListUserTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user teams: %w", err)
	}
	teamProfiles, err := s.repo.ListTeamProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list team profiles: %w", err)
	}

	permsByProfile := make(map[int64][]int64)
	for _, pp := range profilePerms {
		permsByProfile[pp.ProfileID] = append(permsByProfile[pp.ProfileID], pp.PermissionID)
	}
	profilesByTeam := make(map[int64][]int64)
	for _, tp := range teamProfiles {
		profilesByTeam[tp.TeamID] = append(profilesByTeam[tp.TeamID], tp.ProfileID)
	}
	membersByTeam := make(map[int64][]int64)
	for _, ut := range userTeams {
		membersByTeam[ut.TeamID] = append(membersByTeam[ut.TeamID], ut.UserID)
	}

	out := &PermissionData{
		Permissions: make([]PermissionView, 0, len(permissions)),
		Profiles:    make([]ProfileView, 0, len(profiles)),
		Users:       make([]UserView, 0, len(users)),
		Teams:       make([]TeamView, 0, len(teams)),
		GeneratedAt: time.Now(),
	}

	for _, p := range permissions {
		out.Permissions = append(out.Permissions, PermissionView{
			ID:          p.ID,
			Name:        p.Name,
			DisplayName: Name(p.Name).Display(),
			Description: p.Description,
			Category:    p.Category,
		})
	}
	for _, p := range profiles {
		ids := permsByProfile[p.ID]
		if ids == nil {
			ids = []int64{}
		}
		out.Profiles = append(out.Profiles, ProfileView{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			Color:         p.Color,
			IsDefault:     p.IsDefault,
			PermissionIDs: ids,
		})
	}
	for _, u := range users {
		out.Users = append(out.Users, UserView{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			ProfileID: u.ProfileID,
			IsActive:  u.IsActive,
		})
	}
	for _, t := range teams {
		profileIDs := profilesByTeam[t.ID]
		if profileIDs == nil {
			profileIDs = []int64{}
		}
		memberIDs := membersByTeam[t.ID]
		if memberIDs == nil {
			memberIDs = []int64{}
		}
		out.Teams = append(out.Teams, TeamView{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Color:       t.Color,
			ProfileIDs:  profileIDs,
			MemberIDs:   memberIDs,
		})
	}

	return out, nil
}
