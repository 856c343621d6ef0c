package halls

import "errors"

var (
	// ErrUnauthorized means the supplied admin credentials did not verify
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation means the request payload was rejected before any
	// persistence was attempted
	ErrValidation = errors.New("validation failed")

	// ErrHallNotFound covers malformed ids, unknown halls, and halls that
	// are expired or already flagged inactive — callers cannot tell these
	// apart by design
	ErrHallNotFound = errors.New("hall not found")
)
