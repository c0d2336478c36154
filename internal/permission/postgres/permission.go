package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	profileDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/profile"
	teamDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/team"
	userDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/user"
	"github.com/kanbanhq/board-management/internal/permission"
)

// PermissionRepository implements the resolver and aggregate repository
// interfaces using GORM.
type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// GetUserProfile loads the user's direct profile reference. Missing user
// rows map to permission.ErrUserNotFound and deactivated accounts to
// permission.ErrUserInactive so the auth layer can fail closed on both.
func (r *PermissionRepository) GetUserProfile(ctx context.Context, userID int64) (*int64, string, error) {
	var row struct {
		ProfileID   *int64
		ProfileName *string
		IsActive    bool
	}

	query := `SELECT u.profile_id AS profile_id, p.name AS profile_name, u.is_active AS is_active
	          FROM users u
	          LEFT JOIN profiles p ON p.id = u.profile_id
	          WHERE u.id = ?`

	err := r.db.WithContext(ctx).Raw(query, userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", permission.ErrUserNotFound
		}
		return nil, "", err
	}
	if !row.IsActive {
		return nil, "", permission.ErrUserInactive
	}

	name := ""
	if row.ProfileName != nil {
		name = *row.ProfileName
	}
	return row.ProfileID, name, nil
}

// GetDirectPermissions follows user → profile → profile_permissions →
// permissions.
func (r *PermissionRepository) GetDirectPermissions(ctx context.Context, userID int64) ([]string, error) {
	query := `SELECT DISTINCT p.name
	          FROM permissions p
	          JOIN profile_permissions pp ON pp.permission_id = p.id
	          JOIN users u ON u.profile_id = pp.profile_id
	          WHERE u.id = ?`

	return r.scanNames(ctx, query, userID)
}

// GetTeamPermissions follows user → user_teams → team_profiles → profiles →
// profile_permissions → permissions. Teams without profiles and profiles
// without permissions simply contribute nothing.
func (r *PermissionRepository) GetTeamPermissions(ctx context.Context, userID int64) ([]string, error) {
	query := `SELECT DISTINCT p.name
	          FROM permissions p
	          JOIN profile_permissions pp ON pp.permission_id = p.id
	          JOIN team_profiles tp ON tp.profile_id = pp.profile_id
	          JOIN user_teams ut ON ut.team_id = tp.team_id
	          WHERE ut.user_id = ?`

	return r.scanNames(ctx, query, userID)
}

// GetTeamMemberships keeps insertion order (joined_at, then id) so the team
// list renders stably; order carries no authorization meaning.
func (r *PermissionRepository) GetTeamMemberships(ctx context.Context, userID int64) ([]permission.TeamMembership, error) {
	query := `SELECT t.id, t.name, ut.role
	          FROM teams t
	          JOIN user_teams ut ON ut.team_id = t.id
	          WHERE ut.user_id = ?
	          ORDER BY ut.joined_at ASC, ut.id ASC`

	rows, err := r.db.WithContext(ctx).Raw(query, userID).Rows()
	if err != nil {
		return nil, fmt.Errorf("team memberships query: %w", err)
	}
	defer rows.Close()

	var memberships []permission.TeamMembership
	for rows.Next() {
		var m permission.TeamMembership
		if err := rows.Scan(&m.ID, &m.Name, &m.Role); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *PermissionRepository) scanNames(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("permission query: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ---- aggregate listings ----

func (r *PermissionRepository) ListPermissions(ctx context.Context) ([]profileDatamodel.Permission, error) {
	var out []profileDatamodel.Permission
	err := r.db.WithContext(ctx).Order("category, name").Find(&out).Error
	return out, err
}

func (r *PermissionRepository) ListProfiles(ctx context.Context) ([]profileDatamodel.Profile, error) {
	var out []profileDatamodel.Profile
	err := r.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

func (r *PermissionRepository) ListProfilePermissions(ctx context.Context) ([]profileDatamodel.ProfilePermission, error) {
	var out []profileDatamodel.ProfilePermission
	err := r.db.WithContext(ctx).Find(&out).Error
	return out, err
}

func (r *PermissionRepository) ListUsers(ctx context.Context) ([]userDatamodel.User, error) {
	var out []userDatamodel.User
	err := r.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

func (r *PermissionRepository) ListTeams(ctx context.Context) ([]teamDatamodel.Team, error) {
	var out []teamDatamodel.Team
	err := r.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

func (r *PermissionRepository) ListUserTeams(ctx context.Context) ([]teamDatamodel.UserTeam, error) {
	var out []teamDatamodel.UserTeam
	err := r.db.WithContext(ctx).Find(&out).Error
	return out, err
}

func (r *PermissionRepository) ListTeamProfiles(ctx context.Context) ([]teamDatamodel.TeamProfile, error) {
	var out []teamDatamodel.TeamProfile
	err := r.db.WithContext(ctx).Find(&out).Error
	return out, err
}
