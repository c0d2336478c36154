package team

import (
	"time"

	teamDatamodel "github.com/kanbanhq/board-management/internal/core/datamodel/team"
)

// Team groups users for the board UI and carries zero or more permission
// profiles that apply to every member.
type Team struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	ProfileIDs  []int64   `json:"profile_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Member is a user's membership row projected for API responses.
type Member struct {
	UserID   int64     `json:"user_id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

func FromDataModel(t *teamDatamodel.Team) *Team {
	return &Team{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Color:       t.Color,
		ProfileIDs:  []int64{},
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func FromDataModelWithProfiles(t *teamDatamodel.Team, profileIDs []int64) *Team {
	domainTeam := FromDataModel(t)
	if profileIDs != nil {
		domainTeam.ProfileIDs = profileIDs
	}
	return domainTeam
}

func ToDataModel(t *Team) *teamDatamodel.Team {
	return &teamDatamodel.Team{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Color:       t.Color,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
