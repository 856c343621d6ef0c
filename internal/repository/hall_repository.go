package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anonboard/backend/internal/database"
	"github.com/anonboard/backend/internal/models"
)

type HallRepository struct {
	db *database.DB
}

func NewHallRepository(db *database.DB) *HallRepository {
	return &HallRepository{db: db}
}

// Create persists a new hall
func (r *HallRepository) Create(hall *models.Hall) error {
	query := `
		INSERT INTO halls (id, topic, created_by, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, expires_at
	`

	err := r.db.QueryRow(
		query,
		hall.ID,
		hall.Topic,
		hall.CreatedBy,
		hall.Status,
		hall.CreatedAt,
		hall.ExpiresAt,
	).Scan(&hall.ID, &hall.CreatedAt, &hall.ExpiresAt)

	if err != nil {
		return fmt.Errorf("failed to create hall: %w", err)
	}

	return nil
}

// GetActiveByID retrieves a hall that is active and unexpired as of now.
// The expires_at check is done here so a hall the sweeper has not yet
// flipped is still invisible.
func (r *HallRepository) GetActiveByID(id uuid.UUID, now time.Time) (*models.Hall, error) {
	query := `
		SELECT id, topic, created_by, status, created_at, expires_at
		FROM halls
		WHERE id = $1 AND status = $2 AND expires_at > $3
	`

	hall := &models.Hall{}
	err := r.db.QueryRow(query, id, models.HallStatusActive, now).Scan(
		&hall.ID,
		&hall.Topic,
		&hall.CreatedBy,
		&hall.Status,
		&hall.CreatedAt,
		&hall.ExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("hall %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hall: %w", err)
	}

	return hall, nil
}

// ListActive returns active, unexpired halls ordered newest-created first
func (r *HallRepository) ListActive(now time.Time) ([]models.Hall, error) {
	query := `
		SELECT id, topic, created_by, status, created_at, expires_at
		FROM halls
		WHERE status = $1 AND expires_at > $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, models.HallStatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list halls: %w", err)
	}
	defer rows.Close()

	halls := []models.Hall{}
	for rows.Next() {
		var hall models.Hall
		err := rows.Scan(
			&hall.ID,
			&hall.Topic,
			&hall.CreatedBy,
			&hall.Status,
			&hall.CreatedAt,
			&hall.ExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hall: %w", err)
		}
		halls = append(halls, hall)
	}

	return halls, nil
}

// ExpireBefore flips every active hall whose expires_at has passed to
// expired, in one batch. Returns the number of halls transitioned.
func (r *HallRepository) ExpireBefore(now time.Time) (int64, error) {
	query := `
		UPDATE halls
		SET status = $1
		WHERE status = $2 AND expires_at < $3
	`

	result, err := r.db.Exec(query, models.HallStatusExpired, models.HallStatusActive, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire halls: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// Delete removes a hall record regardless of status
func (r *HallRepository) Delete(id uuid.UUID) error {
	query := `DELETE FROM halls WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete hall: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("hall %s: %w", id, ErrNotFound)
	}

	return nil
}

// Exists reports whether a hall record exists at all, expired or not
func (r *HallRepository) Exists(id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM halls WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check hall existence: %w", err)
	}
	return exists, nil
}
