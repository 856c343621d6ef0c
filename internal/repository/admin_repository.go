package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/anonboard/backend/internal/database"
	"github.com/anonboard/backend/internal/models"
)

type AdminRepository struct {
	db *database.DB
}

func NewAdminRepository(db *database.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// GetByUsername retrieves an admin by username
func (r *AdminRepository) GetByUsername(username string) (*models.Admin, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM admins
		WHERE username = $1
	`

	admin := &models.Admin{}
	err := r.db.QueryRow(query, username).Scan(
		&admin.ID,
		&admin.Username,
		&admin.PasswordHash,
		&admin.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("admin %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	return admin, nil
}

// CountAdmins returns the number of admin accounts
func (r *AdminRepository) CountAdmins() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

// CreateAdmin inserts a new admin account
func (r *AdminRepository) CreateAdmin(username, passwordHash string) (*models.Admin, error) {
	admin := &models.Admin{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
	}

	query := `
		INSERT INTO admins (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`
	err := r.db.QueryRow(query, admin.ID, admin.Username, admin.PasswordHash).
		Scan(&admin.ID, &admin.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	return admin, nil
}
