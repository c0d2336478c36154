package team

import "time"

type Team struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	Color       string    `gorm:"column:color"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time `gorm:"column:updated_at;default:now()"`
}

// UserTeam is a user's membership in a team. Role is display metadata for
// the board UI and independent of the permission graph.
type UserTeam struct {
	ID       int64     `gorm:"primaryKey"`
	UserID   int64     `gorm:"column:user_id;not null"`
	TeamID   int64     `gorm:"column:team_id;not null"`
	Role     string    `gorm:"column:role;default:'member'"`
	JoinedAt time.Time `gorm:"column:joined_at;default:now()"`
}

// TeamProfile assigns a profile to a team; a team may carry several.
type TeamProfile struct {
	ID        int64     `gorm:"primaryKey"`
	TeamID    int64     `gorm:"column:team_id;not null"`
	ProfileID int64     `gorm:"column:profile_id;not null"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}
