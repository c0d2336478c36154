package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kanbanhq/board-management/internal/auth"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetCredentialsByEmail looks a user up for login. Email comparison is
// case-insensitive; addresses are stored as entered but matched folded.
func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (*auth.Credential, error) {
	var cred auth.Credential

	query := `SELECT id, email, name, password_hash, profile_id, is_active
	          FROM users
	          WHERE LOWER(email) = LOWER(?)`

	row := r.db.WithContext(ctx).Raw(query, email).Row()
	if err := row.Scan(&cred.UserID, &cred.Email, &cred.Name, &cred.PasswordHash, &cred.ProfileID, &cred.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	return &cred, nil
}
