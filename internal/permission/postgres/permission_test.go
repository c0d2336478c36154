package postgres_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/kanbanhq/board-management/internal/permission"
	permissionPostgres "github.com/kanbanhq/board-management/internal/permission/postgres"
)

func TestPermissionPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Permission Postgres Suite")
}

// SQLite-compatible models for testing

type SQLiteUser struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash *string   `gorm:"column:password_hash"`
	ProfileID    *int64    `gorm:"column:profile_id"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (SQLiteUser) TableName() string { return "users" }

type SQLiteProfile struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"column:name;uniqueIndex;not null"`
	Description string `gorm:"column:description"`
	Color       string `gorm:"column:color"`
	IsDefault   bool   `gorm:"column:is_default"`
}

func (SQLiteProfile) TableName() string { return "profiles" }

type SQLitePermission struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"column:name;uniqueIndex;not null"`
	Description string `gorm:"column:description"`
	Category    string `gorm:"column:category"`
}

func (SQLitePermission) TableName() string { return "permissions" }

type SQLiteProfilePermission struct {
	ID           int64 `gorm:"primaryKey"`
	ProfileID    int64 `gorm:"column:profile_id;not null"`
	PermissionID int64 `gorm:"column:permission_id;not null"`
}

func (SQLiteProfilePermission) TableName() string { return "profile_permissions" }

type SQLiteTeam struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"column:name;not null"`
	Description string `gorm:"column:description"`
	Color       string `gorm:"column:color"`
}

func (SQLiteTeam) TableName() string { return "teams" }

type SQLiteUserTeam struct {
	ID       int64     `gorm:"primaryKey"`
	UserID   int64     `gorm:"column:user_id;not null"`
	TeamID   int64     `gorm:"column:team_id;not null"`
	Role     string    `gorm:"column:role"`
	JoinedAt time.Time `gorm:"column:joined_at"`
}

func (SQLiteUserTeam) TableName() string { return "user_teams" }

type SQLiteTeamProfile struct {
	ID        int64 `gorm:"primaryKey"`
	TeamID    int64 `gorm:"column:team_id;not null"`
	ProfileID int64 `gorm:"column:profile_id;not null"`
}

func (SQLiteTeamProfile) TableName() string { return "team_profiles" }

func openTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	err = db.AutoMigrate(
		&SQLiteUser{}, &SQLiteProfile{}, &SQLitePermission{},
		&SQLiteProfilePermission{}, &SQLiteTeam{}, &SQLiteUserTeam{}, &SQLiteTeamProfile{},
	)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return db
}

var _ = Describe("Permission PostgreSQL Repository", func() {
	var (
		db   *gorm.DB
		repo *permissionPostgres.PermissionRepository
		ctx  context.Context
	)

	// seeded IDs
	var (
		userID     int64
		profileAID int64
		profileBID int64
		teamID     int64
		viewBoards SQLitePermission
		editBoards SQLitePermission
	)

	BeforeEach(func() {
		db = openTestDB()
		repo = permissionPostgres.NewPermissionRepository(db)
		ctx = context.Background()

		viewBoards = SQLitePermission{Name: "view_boards", Description: "View boards", Category: "boards"}
		editBoards = SQLitePermission{Name: "edit_boards", Description: "Edit boards", Category: "boards"}
		Expect(db.Create(&viewBoards).Error).To(Succeed())
		Expect(db.Create(&editBoards).Error).To(Succeed())

		profileA := SQLiteProfile{Name: "Profile A"}
		profileB := SQLiteProfile{Name: "Profile B"}
		Expect(db.Create(&profileA).Error).To(Succeed())
		Expect(db.Create(&profileB).Error).To(Succeed())
		profileAID = profileA.ID
		profileBID = profileB.ID

		Expect(db.Create(&SQLiteProfilePermission{ProfileID: profileAID, PermissionID: viewBoards.ID}).Error).To(Succeed())
		Expect(db.Create(&SQLiteProfilePermission{ProfileID: profileBID, PermissionID: editBoards.ID}).Error).To(Succeed())

		user := SQLiteUser{Email: "dana@kanbanhq.dev", Name: "Dana", ProfileID: &profileAID, IsActive: true}
		Expect(db.Create(&user).Error).To(Succeed())
		userID = user.ID

		team := SQLiteTeam{Name: "Platform"}
		Expect(db.Create(&team).Error).To(Succeed())
		teamID = team.ID

		Expect(db.Create(&SQLiteUserTeam{UserID: userID, TeamID: teamID, Role: "member", JoinedAt: time.Now()}).Error).To(Succeed())
		Expect(db.Create(&SQLiteTeamProfile{TeamID: teamID, ProfileID: profileBID}).Error).To(Succeed())
	})

	Describe("GetUserProfile", func() {
		It("should return the direct profile reference", func() {
			profileID, profileName, err := repo.GetUserProfile(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(profileID).NotTo(BeNil())
			Expect(*profileID).To(Equal(profileAID))
			Expect(profileName).To(Equal("Profile A"))
		})

		It("should return a nil reference for a user without a profile", func() {
			user := SQLiteUser{Email: "sam@kanbanhq.dev", Name: "Sam", IsActive: true}
			Expect(db.Create(&user).Error).To(Succeed())

			profileID, profileName, err := repo.GetUserProfile(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(profileID).To(BeNil())
			Expect(profileName).To(BeEmpty())
		})

		It("should report a missing user", func() {
			_, _, err := repo.GetUserProfile(ctx, 99999)
			Expect(err).To(MatchError(permission.ErrUserNotFound))
		})

		It("should report a deactivated user", func() {
			Expect(db.Model(&SQLiteUser{}).Where("id = ?", userID).Update("is_active", false).Error).To(Succeed())

			_, _, err := repo.GetUserProfile(ctx, userID)
			Expect(err).To(MatchError(permission.ErrUserInactive))
		})
	})

	Describe("GetDirectPermissions", func() {
		It("should follow user, profile, permissions", func() {
			names, err := repo.GetDirectPermissions(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(ConsistOf("view_boards"))
		})

		It("should be empty for a user without a profile", func() {
			user := SQLiteUser{Email: "sam@kanbanhq.dev", Name: "Sam", IsActive: true}
			Expect(db.Create(&user).Error).To(Succeed())

			names, err := repo.GetDirectPermissions(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(BeEmpty())
		})
	})

	Describe("GetTeamPermissions", func() {
		It("should follow user, teams, team profiles, permissions", func() {
			names, err := repo.GetTeamPermissions(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(ConsistOf("edit_boards"))
		})

		It("should contribute nothing for a team without profiles", func() {
			bare := SQLiteTeam{Name: "Bare"}
			Expect(db.Create(&bare).Error).To(Succeed())
			user := SQLiteUser{Email: "sam@kanbanhq.dev", Name: "Sam", IsActive: true}
			Expect(db.Create(&user).Error).To(Succeed())
			Expect(db.Create(&SQLiteUserTeam{UserID: user.ID, TeamID: bare.ID, Role: "member", JoinedAt: time.Now()}).Error).To(Succeed())

			names, err := repo.GetTeamPermissions(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(BeEmpty())
		})

		It("should stop granting after the user leaves the team", func() {
			Expect(db.Where("user_id = ? AND team_id = ?", userID, teamID).Delete(&SQLiteUserTeam{}).Error).To(Succeed())

			names, err := repo.GetTeamPermissions(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(BeEmpty())

			// the direct profile half is untouched
			direct, err := repo.GetDirectPermissions(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(direct).To(ConsistOf("view_boards"))
		})

		It("should deduplicate a permission granted by several team profiles", func() {
			other := SQLiteProfile{Name: "Profile C"}
			Expect(db.Create(&other).Error).To(Succeed())
			Expect(db.Create(&SQLiteProfilePermission{ProfileID: other.ID, PermissionID: editBoards.ID}).Error).To(Succeed())
			Expect(db.Create(&SQLiteTeamProfile{TeamID: teamID, ProfileID: other.ID}).Error).To(Succeed())

			names, err := repo.GetTeamPermissions(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(ConsistOf("edit_boards"))
		})
	})

	Describe("GetTeamMemberships", func() {
		It("should keep join order", func() {
			second := SQLiteTeam{Name: "Design"}
			Expect(db.Create(&second).Error).To(Succeed())
			Expect(db.Create(&SQLiteUserTeam{UserID: userID, TeamID: second.ID, Role: "lead", JoinedAt: time.Now().Add(time.Hour)}).Error).To(Succeed())

			memberships, err := repo.GetTeamMemberships(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(memberships).To(HaveLen(2))
			Expect(memberships[0].Name).To(Equal("Platform"))
			Expect(memberships[0].Role).To(Equal("member"))
			Expect(memberships[1].Name).To(Equal("Design"))
			Expect(memberships[1].Role).To(Equal("lead"))
		})
	})

	Describe("aggregate listings", func() {
		It("should list the raw rows of the graph", func() {
			perms, err := repo.ListPermissions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(HaveLen(2))

			profiles, err := repo.ListProfiles(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(profiles).To(HaveLen(2))

			links, err := repo.ListProfilePermissions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(links).To(HaveLen(2))

			teamProfiles, err := repo.ListTeamProfiles(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(teamProfiles).To(HaveLen(1))
		})
	})
})
