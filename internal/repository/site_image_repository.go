package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/anonboard/backend/internal/database"
	"github.com/anonboard/backend/internal/models"
)

type SiteImageRepository struct {
	db *database.DB
}

func NewSiteImageRepository(db *database.DB) *SiteImageRepository {
	return &SiteImageRepository{db: db}
}

// Set records a new image of the given kind. Older records are kept; reads
// always take the newest one.
func (r *SiteImageRepository) Set(kind, imageURL string) (*models.SiteImage, error) {
	img := &models.SiteImage{
		ID:       uuid.New(),
		Kind:     kind,
		ImageURL: imageURL,
	}

	query := `
		INSERT INTO site_images (id, kind, image_url, updated_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, updated_at
	`
	err := r.db.QueryRow(query, img.ID, img.Kind, img.ImageURL).Scan(&img.ID, &img.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to set %s image: %w", kind, err)
	}

	return img, nil
}

// GetLatest returns the most recently set image of a kind
func (r *SiteImageRepository) GetLatest(kind string) (*models.SiteImage, error) {
	query := `
		SELECT id, kind, image_url, updated_at
		FROM site_images
		WHERE kind = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`

	img := &models.SiteImage{}
	err := r.db.QueryRow(query, kind).Scan(&img.ID, &img.Kind, &img.ImageURL, &img.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s image: %w", kind, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s image: %w", kind, err)
	}

	return img, nil
}
