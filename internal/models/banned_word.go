package models

import (
	"time"

	"github.com/google/uuid"
)

// BannedWord is a site-wide blocklist entry. Matching is case-insensitive
// substring matching against submitted text.
type BannedWord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Word      string    `json:"word" db:"word"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type AddBannedWordRequest struct {
	Word string `json:"word" binding:"required"`
}
