package auth

import (
	"fmt"

	"github.com/anonboard/backend/internal/models"
)

// AdminSeeder is the slice of the admin repository needed for seeding
type AdminSeeder interface {
	CountAdmins() (int, error)
	CreateAdmin(username, passwordHash string) (*models.Admin, error)
}

// EnsureDefaultAdmin creates the default operator account when no admins
// exist at all. A non-empty admins table is left untouched regardless of
// the usernames in it, so a renamed account never blocks startup.
func EnsureDefaultAdmin(store AdminSeeder, username, password string) error {
	count, err := store.CountAdmins()
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash default admin password: %w", err)
	}

	if _, err := store.CreateAdmin(username, hash); err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	return nil
}
