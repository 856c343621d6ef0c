package repository

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/anonboard/backend/internal/database"
	"github.com/anonboard/backend/internal/models"
)

type HallMessageRepository struct {
	db *database.DB
}

func NewHallMessageRepository(db *database.DB) *HallMessageRepository {
	return &HallMessageRepository{db: db}
}

// Append inserts a new message. Messages are immutable once created; there
// is deliberately no update method.
func (r *HallMessageRepository) Append(message *models.HallMessage) error {
	query := `
		INSERT INTO hall_messages (id, hall_id, user_number, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		query,
		message.ID,
		message.HallID,
		message.UserNumber,
		message.Content,
		message.CreatedAt,
	).Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	return nil
}

// ListByHall returns all messages of a hall in persisted order. The seq
// column is an insertion-order serial, so equal timestamps still come
// back in the order they were written.
func (r *HallMessageRepository) ListByHall(hallID uuid.UUID) ([]models.HallMessage, error) {
	query := `
		SELECT id, hall_id, user_number, content, created_at
		FROM hall_messages
		WHERE hall_id = $1
		ORDER BY created_at ASC, seq ASC
	`

	rows, err := r.db.Query(query, hallID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.HallMessage{}
	for rows.Next() {
		var msg models.HallMessage
		err := rows.Scan(
			&msg.ID,
			&msg.HallID,
			&msg.UserNumber,
			&msg.Content,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// DeleteAllByHall removes every message of a hall. Used only by the
// hall-deletion cascade.
func (r *HallMessageRepository) DeleteAllByHall(hallID uuid.UUID) (int64, error) {
	query := `DELETE FROM hall_messages WHERE hall_id = $1`

	result, err := r.db.Exec(query, hallID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
