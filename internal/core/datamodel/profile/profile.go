package profile

import "time"

type Profile struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	Color       string    `gorm:"column:color"`
	IsDefault   bool      `gorm:"column:is_default;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time `gorm:"column:updated_at;default:now()"`
}

type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	Category    string    `gorm:"column:category"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
}

// ProfilePermission has no unique constraint at the schema level; callers
// check for an existing row before insert.
type ProfilePermission struct {
	ID           int64     `gorm:"primaryKey"`
	ProfileID    int64     `gorm:"column:profile_id;not null"`
	PermissionID int64     `gorm:"column:permission_id;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;default:now()"`
}
