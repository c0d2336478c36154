package postgres

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/kanbanhq/board-management/internal"
	teamDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/team"
	userDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/user"
	"github.com/kanbanhq/board-management/internal/team"
	"gorm.io/gorm"
)

// TeamRepository implements team.RepositoryAPI using GORM
type TeamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetAll(ctx context.Context) ([]*team.Team, error) {
	var rows []teamDatamodel.Team
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	teams := make([]*team.Team, 0, len(rows))
	for i := range rows {
		profileIDs, err := r.profileIDs(ctx, rows[i].ID)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team.FromDataModelWithProfiles(&rows[i], profileIDs))
	}
	return teams, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id int64) (*team.Team, error) {
	var row teamDatamodel.Team
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTeamNotFound
		}
		return nil, err
	}

	profileIDs, err := r.profileIDs(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return team.FromDataModelWithProfiles(&row, profileIDs), nil
}

func (r *TeamRepository) Create(ctx context.Context, t *team.Team) error {
	row := team.ToDataModel(t)
	row.CreatedAt = time.Now()
	row.UpdatedAt = row.CreatedAt
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	t.ID = row.ID
	t.CreatedAt = row.CreatedAt
	t.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *TeamRepository) Update(ctx context.Context, t *team.Team) error {
	return r.db.WithContext(ctx).Model(&teamDatamodel.Team{}).
		Where("id = ?", t.ID).
		Updates(map[string]interface{}{
			"name":        t.Name,
			"description": t.Description,
			"color":       t.Color,
			"updated_at":  time.Now(),
		}).Error
}

// Delete removes the team with its membership and profile rows in one
// transaction.
func (r *TeamRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&teamDatamodel.UserTeam{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", id).Delete(&teamDatamodel.TeamProfile{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&teamDatamodel.Team{}).Error
	})
}

func (r *TeamRepository) GetMembers(ctx context.Context, teamID int64) ([]*team.Member, error) {
	var members []*team.Member
	err := r.db.WithContext(ctx).Raw(`
		SELECT u.id AS user_id, u.email, u.name, ut.role, ut.joined_at
		FROM user_teams ut
		JOIN users u ON u.id = ut.user_id
		WHERE ut.team_id = ?
		ORDER BY ut.joined_at ASC, ut.id ASC`, teamID).
		Scan(&members).Error
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []*team.Member{}
	}
	return members, nil
}

func (r *TeamRepository) IsMember(ctx context.Context, teamID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&teamDatamodel.UserTeam{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *TeamRepository) AddMember(ctx context.Context, teamID, userID int64, role string) error {
	return r.db.WithContext(ctx).Create(&teamDatamodel.UserTeam{
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	}).Error
}

func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&teamDatamodel.UserTeam{}).Error
}

func (r *TeamRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

func (r *TeamRepository) HasProfile(ctx context.Context, teamID, profileID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&teamDatamodel.TeamProfile{}).
		Where("team_id = ? AND profile_id = ?", teamID, profileID).
		Count(&count).Error
	return count > 0, err
}

func (r *TeamRepository) AssignProfile(ctx context.Context, teamID, profileID int64) error {
	return r.db.WithContext(ctx).Create(&teamDatamodel.TeamProfile{
		TeamID:    teamID,
		ProfileID: profileID,
		CreatedAt: time.Now(),
	}).Error
}

func (r *TeamRepository) UnassignProfile(ctx context.Context, teamID, profileID int64) error {
	return r.db.WithContext(ctx).
		Where("team_id = ? AND profile_id = ?", teamID, profileID).
		Delete(&teamDatamodel.TeamProfile{}).Error
}

func (r *TeamRepository) ProfileExists(ctx context.Context, profileID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("profiles").
		Where("id = ?", profileID).
		Count(&count).Error
	return count > 0, err
}

func (r *TeamRepository) profileIDs(ctx context.Context, teamID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&teamDatamodel.TeamProfile{}).
		Where("team_id = ?", teamID).
		Order("profile_id ASC").
		Pluck("profile_id", &ids).Error
	return ids, err
}
