package models

import (
	"time"

	"github.com/google/uuid"
)

// HallMessage is a chat message inside a hall. UserNumber is the
// caller-supplied display label, not an authenticated identity.
type HallMessage struct {
	ID         uuid.UUID `json:"id" db:"id"`
	HallID     uuid.UUID `json:"hall_id" db:"hall_id"`
	UserNumber string    `json:"user_number" db:"user_number"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
