package auth

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/anonboard/backend/internal/models"
)

type fakeAdminSeeder struct {
	count    int
	countErr error
	created  []models.Admin
}

func (f *fakeAdminSeeder) CountAdmins() (int, error) {
	return f.count, f.countErr
}

func (f *fakeAdminSeeder) CreateAdmin(username, passwordHash string) (*models.Admin, error) {
	admin := models.Admin{ID: uuid.New(), Username: username, PasswordHash: passwordHash}
	f.created = append(f.created, admin)
	return &admin, nil
}

func TestEnsureDefaultAdmin_SeedsEmptyTable(t *testing.T) {
	store := &fakeAdminSeeder{count: 0}

	if err := EnsureDefaultAdmin(store, "admin", "admin123"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("Expected one admin to be created, got %d", len(store.created))
	}

	if store.created[0].Username != "admin" {
		t.Errorf("Expected username admin, got %s", store.created[0].Username)
	}

	if err := CheckPassword(store.created[0].PasswordHash, "admin123"); err != nil {
		t.Errorf("Stored hash does not verify against the seed password: %v", err)
	}
}

func TestEnsureDefaultAdmin_SkipsWhenAdminsExist(t *testing.T) {
	// The single existing admin may have any name; seeding must neither
	// create another account nor fail the caller.
	store := &fakeAdminSeeder{count: 1}

	if err := EnsureDefaultAdmin(store, "admin", "admin123"); err != nil {
		t.Fatalf("Expected no error when admins already exist, got %v", err)
	}

	if len(store.created) != 0 {
		t.Fatalf("Expected no admin to be created, got %d", len(store.created))
	}
}

func TestEnsureDefaultAdmin_CountError(t *testing.T) {
	store := &fakeAdminSeeder{countErr: errors.New("db unavailable")}

	if err := EnsureDefaultAdmin(store, "admin", "admin123"); err == nil {
		t.Fatal("Expected error when the count fails")
	}
}
