package models

import (
	"time"

	"github.com/google/uuid"
)

// Hall statuses. The transition is one-way: active halls expire, expired
// halls never come back.
const (
	HallStatusActive  = "active"
	HallStatusExpired = "expired"
)

// Hall is a time-boxed discussion room created by an admin. ExpiresAt is
// fixed at creation time and never changes afterwards.
type Hall struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Topic     string     `json:"topic" db:"topic"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	Status    string     `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
}

type CreateHallRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Topic    string `json:"topic"`
}

type DeleteHallRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
