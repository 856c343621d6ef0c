package models

import (
	"time"

	"github.com/google/uuid"
)

// Site image kinds
const (
	ImageKindBanner     = "banner"
	ImageKindBackground = "background"
)

// SiteImage is a banner or background record. The newest record of a kind
// wins; older ones are kept as history.
type SiteImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Kind      string    `json:"-" db:"kind"`
	ImageURL  string    `json:"imageUrl" db:"image_url"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type SetSiteImageRequest struct {
	ImageURL string `json:"imageUrl" binding:"required,url"`
}
