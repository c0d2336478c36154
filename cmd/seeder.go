package cmd

import (
	"fmt"
	"log"

	"github.com/kanbanhq/board-management/internal/permission"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			for _, table := range []string{"profile_permissions", "team_profiles", "user_teams", "teams", "users", "profiles", "permissions"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		seedPermissions(db)

		adminProfileID := seedProfile(db, "Administrator", "Full access to boards and administration", "#d62828", permission.KnownNames())
		memberProfileID := seedProfile(db, "Member", "Day to day board usage", "#2a9d8f", []permission.Name{
			permission.ViewBoards,
			permission.CreateBoards,
			permission.EditBoards,
			permission.ManageTasks,
		})
		seedProfile(db, "Viewer", "Read only access", "#457b9d", []permission.Name{
			permission.ViewBoards,
		})

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		adminID := seedUser(db, "admin@kanbanhq.dev", "Admin", string(hash), &adminProfileID)
		memberID := seedUser(db, "dana@kanbanhq.dev", "Dana", string(hash), nil)

		teamID := seedTeam(db, "Platform", "Platform engineering board", "#264653")
		seedTeamProfile(db, teamID, memberProfileID)
		seedMembership(db, teamID, memberID, "member")
		seedMembership(db, teamID, adminID, "lead")

		fmt.Println("Seeding complete")
	},
}

func seedPermissions(db *gorm.DB) {
	for _, name := range permission.KnownNames() {
		var pid int64
		if err := db.Raw("SELECT id FROM permissions WHERE name = ?", string(name)).Row().Scan(&pid); err == nil {
			continue
		}
		if err := db.Exec("INSERT INTO permissions (name, description, category, created_at) VALUES (?, ?, ?, now())",
			string(name), name.Display(), name.Category()).Error; err != nil {
			log.Fatalf("failed to insert permission %s: %v", name, err)
		}
	}
	fmt.Println("Seeded permissions")
}

func seedProfile(db *gorm.DB, name, description, color string, perms []permission.Name) int64 {
	var id int64
	if err := db.Raw("SELECT id FROM profiles WHERE name = ?", name).Row().Scan(&id); err != nil {
		if err := db.Exec("INSERT INTO profiles (name, description, color, is_default, created_at, updated_at) VALUES (?, ?, ?, false, now(), now())",
			name, description, color).Error; err != nil {
			log.Fatalf("failed to insert profile %s: %v", name, err)
		}
		if err := db.Raw("SELECT id FROM profiles WHERE name = ?", name).Row().Scan(&id); err != nil {
			log.Fatalf("failed to lookup profile %s: %v", name, err)
		}
	}

	for _, p := range perms {
		var pid int64
		if err := db.Raw("SELECT id FROM permissions WHERE name = ?", string(p)).Row().Scan(&pid); err != nil {
			log.Fatalf("permission not found %s: %v", p, err)
		}
		var exists int
		if err := db.Raw("SELECT 1 FROM profile_permissions WHERE profile_id = ? AND permission_id = ?", id, pid).Row().Scan(&exists); err == nil {
			continue
		}
		if err := db.Exec("INSERT INTO profile_permissions (profile_id, permission_id, created_at) VALUES (?, ?, now())", id, pid).Error; err != nil {
			log.Fatalf("failed to grant %s to profile %s: %v", p, name, err)
		}
	}

	fmt.Println("Seeded profile:", name)
	return id
}

func seedUser(db *gorm.DB, email, name, hash string, profileID *int64) int64 {
	var id int64
	if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&id); err == nil {
		fmt.Println("user already exists:", email)
		return id
	}

	if err := db.Exec("INSERT INTO users (email, name, password_hash, profile_id, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
		email, name, hash, profileID).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&id); err != nil {
		log.Fatalf("failed to lookup user %s: %v", email, err)
	}

	fmt.Println("Seeded user:", email)
	return id
}

func seedTeam(db *gorm.DB, name, description, color string) int64 {
	var id int64
	if err := db.Raw("SELECT id FROM teams WHERE name = ?", name).Row().Scan(&id); err == nil {
		return id
	}

	if err := db.Exec("INSERT INTO teams (name, description, color, created_at, updated_at) VALUES (?, ?, ?, now(), now())",
		name, description, color).Error; err != nil {
		log.Fatalf("failed to insert team %s: %v", name, err)
	}
	if err := db.Raw("SELECT id FROM teams WHERE name = ?", name).Row().Scan(&id); err != nil {
		log.Fatalf("failed to lookup team %s: %v", name, err)
	}

	fmt.Println("Seeded team:", name)
	return id
}

func seedTeamProfile(db *gorm.DB, teamID, profileID int64) {
	var exists int
	if err := db.Raw("SELECT 1 FROM team_profiles WHERE team_id = ? AND profile_id = ?", teamID, profileID).Row().Scan(&exists); err == nil {
		return
	}
	if err := db.Exec("INSERT INTO team_profiles (team_id, profile_id, created_at) VALUES (?, ?, now())", teamID, profileID).Error; err != nil {
		log.Fatalf("failed to assign profile to team: %v", err)
	}
}

func seedMembership(db *gorm.DB, teamID, userID int64, role string) {
	var exists int
	if err := db.Raw("SELECT 1 FROM user_teams WHERE team_id = ? AND user_id = ?", teamID, userID).Row().Scan(&exists); err == nil {
		return
	}
	if err := db.Exec("INSERT INTO user_teams (team_id, user_id, role, joined_at) VALUES (?, ?, ?, now())", teamID, userID, role).Error; err != nil {
		log.Fatalf("failed to add member to team: %v", err)
	}
}
