package profile

import (
	"time"

	profileDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/profile"
)

// Profile is a named, reusable bundle of permissions. It can be attached to
// users directly and to teams.
type Profile struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Color         string    `json:"color"`
	IsDefault     bool      `json:"is_default"`
	PermissionIDs []int64   `json:"permission_ids"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func FromDataModel(p *profileDatamodel.Profile) *Profile {
	return &Profile{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Color:         p.Color,
		IsDefault:     p.IsDefault,
		PermissionIDs: []int64{},
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func FromDataModelWithPermissions(p *profileDatamodel.Profile, permissionIDs []int64) *Profile {
	domainProfile := FromDataModel(p)
	if permissionIDs != nil {
		domainProfile.PermissionIDs = permissionIDs
	}
	return domainProfile
}

func ToDataModel(p *Profile) *profileDatamodel.Profile {
	return &profileDatamodel.Profile{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		IsDefault:   p.IsDefault,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
