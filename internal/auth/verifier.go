package auth

import (
	"github.com/anonboard/backend/internal/models"
)

// AdminStore is the subset of the admin repository the verifier needs
type AdminStore interface {
	GetByUsername(username string) (*models.Admin, error)
}

// Verifier checks admin credentials. Every admin-gated mutation goes
// through Verify; a lookup failure and a wrong password are both reported
// as a plain "not ok" so callers can't distinguish them.
type Verifier struct {
	admins AdminStore
}

func NewVerifier(admins AdminStore) *Verifier {
	return &Verifier{admins: admins}
}

// Verify returns the admin and true when the username/password pair is
// valid, nil and false otherwise.
func (v *Verifier) Verify(username, password string) (*models.Admin, bool) {
	admin, err := v.admins.GetByUsername(username)
	if err != nil {
		return nil, false
	}

	if err := CheckPassword(admin.PasswordHash, password); err != nil {
		return nil, false
	}

	return admin, true
}
