package postgres

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/kanbanhq/board-management/internal"
	teamDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/team"
	userDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/user"
	"github.com/kanbanhq/board-management/internal/user"
	"gorm.io/gorm"
)

// UserRepository implements user.RepositoryAPI using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*user.User, error) {
	var rows []userDatamodel.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	users := make([]*user.User, 0, len(rows))
	for i := range rows {
		users = append(users, user.FromDataModel(&rows[i]))
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&row), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&row), nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User, passwordHash string) error {
	now := time.Now()
	row := &userDatamodel.User{
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: &passwordHash,
		ProfileID:    u.ProfileID,
		IsActive:     u.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	u.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"name":       u.Name,
			"is_active":  u.IsActive,
			"updated_at": time.Now(),
		}).Error
}

// Delete removes the account and its team memberships in one transaction.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&teamDatamodel.UserTeam{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&userDatamodel.User{}).Error
	})
}

func (r *UserRepository) SetProfile(ctx context.Context, userID int64, profileID *int64) error {
	return r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"profile_id": profileID,
			"updated_at": time.Now(),
		}).Error
}

func (r *UserRepository) SetPasswordHash(ctx context.Context, userID int64, hash string) error {
	return r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hash": hash,
			"updated_at":    time.Now(),
		}).Error
}

func (r *UserRepository) SetActive(ctx context.Context, userID int64, active bool) error {
	return r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now(),
		}).Error
}

func (r *UserRepository) ProfileExists(ctx context.Context, profileID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("profiles").
		Where("id = ?", profileID).
		Count(&count).Error
	return count > 0, err
}
