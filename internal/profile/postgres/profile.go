package postgres

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/kanbanhq/board-management/internal"
	profileDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/profile"
	"github.com/kanbanhq/board-management/internal/profile"
	"gorm.io/gorm"
)

// ProfileRepository implements profile.RepositoryAPI using GORM
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetAll(ctx context.Context) ([]*profile.Profile, error) {
	var rows []profileDatamodel.Profile
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	profiles := make([]*profile.Profile, 0, len(rows))
	for i := range rows {
		permissionIDs, err := r.permissionIDs(ctx, rows[i].ID)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile.FromDataModelWithPermissions(&rows[i], permissionIDs))
	}
	return profiles, nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (*profile.Profile, error) {
	var row profileDatamodel.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, err
	}

	permissionIDs, err := r.permissionIDs(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return profile.FromDataModelWithPermissions(&row, permissionIDs), nil
}

func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	row := profile.ToDataModel(p)
	row.CreatedAt = time.Now()
	row.UpdatedAt = row.CreatedAt
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	p.ID = row.ID
	p.CreatedAt = row.CreatedAt
	p.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	return r.db.WithContext(ctx).Model(&profileDatamodel.Profile{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"name":        p.Name,
			"description": p.Description,
			"color":       p.Color,
			"is_default":  p.IsDefault,
			"updated_at":  time.Now(),
		}).Error
}

// Delete removes the profile together with every row that references it:
// permission assignments, team links, and the direct profile pointer on
// users. Done in one transaction so cached contexts invalidated afterwards
// can never be rebuilt from a half deleted graph.
func (r *ProfileRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", id).Delete(&profileDatamodel.ProfilePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM team_profiles WHERE profile_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("UPDATE users SET profile_id = NULL WHERE profile_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&profileDatamodel.Profile{}).Error
	})
}

func (r *ProfileRepository) HasPermission(ctx context.Context, profileID, permissionID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&profileDatamodel.ProfilePermission{}).
		Where("profile_id = ? AND permission_id = ?", profileID, permissionID).
		Count(&count).Error
	return count > 0, err
}

func (r *ProfileRepository) AddPermission(ctx context.Context, profileID, permissionID int64) error {
	return r.db.WithContext(ctx).Create(&profileDatamodel.ProfilePermission{
		ProfileID:    profileID,
		PermissionID: permissionID,
	}).Error
}

func (r *ProfileRepository) RemovePermission(ctx context.Context, profileID, permissionID int64) error {
	return r.db.WithContext(ctx).
		Where("profile_id = ? AND permission_id = ?", profileID, permissionID).
		Delete(&profileDatamodel.ProfilePermission{}).Error
}

func (r *ProfileRepository) PermissionExists(ctx context.Context, permissionID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&profileDatamodel.Permission{}).
		Where("id = ?", permissionID).
		Count(&count).Error
	return count > 0, err
}

func (r *ProfileRepository) permissionIDs(ctx context.Context, profileID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&profileDatamodel.ProfilePermission{}).
		Where("profile_id = ?", profileID).
		Order("permission_id ASC").
		Pluck("permission_id", &ids).Error
	return ids, err
}
