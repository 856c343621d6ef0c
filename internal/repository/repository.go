package repository

import "errors"

// ErrNotFound is returned when a query matches no rows. Callers check it
// with errors.Is.
var ErrNotFound = errors.New("not found")
