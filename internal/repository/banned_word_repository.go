package repository

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/anonboard/backend/internal/database"
	"github.com/anonboard/backend/internal/models"
)

type BannedWordRepository struct {
	db *database.DB
}

func NewBannedWordRepository(db *database.DB) *BannedWordRepository {
	return &BannedWordRepository{db: db}
}

// Add adds a word to the site-wide blocklist
func (r *BannedWordRepository) Add(word string) error {
	query := `INSERT INTO banned_words (id, word, created_at) VALUES ($1, $2, NOW()) ON CONFLICT (word) DO NOTHING`
	_, err := r.db.Exec(query, uuid.New(), word)
	if err != nil {
		return fmt.Errorf("failed to add banned word: %w", err)
	}
	return nil
}

// Remove removes a word from the blocklist
func (r *BannedWordRepository) Remove(word string) error {
	query := `DELETE FROM banned_words WHERE word = $1`
	result, err := r.db.Exec(query, word)
	if err != nil {
		return fmt.Errorf("failed to remove banned word: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remove banned word: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("banned word %q: %w", word, ErrNotFound)
	}
	return nil
}

// List returns every blocklist entry
func (r *BannedWordRepository) List() ([]models.BannedWord, error) {
	query := `SELECT id, word, created_at FROM banned_words ORDER BY word`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query banned words: %w", err)
	}
	defer rows.Close()

	res := []models.BannedWord{}
	for rows.Next() {
		var b models.BannedWord
		if err := rows.Scan(&b.ID, &b.Word, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan banned word: %w", err)
		}
		res = append(res, b)
	}
	return res, nil
}

// Words returns just the word strings, for the moderation snapshot
func (r *BannedWordRepository) Words() ([]string, error) {
	entries, err := r.List()
	if err != nil {
		return nil, err
	}
	words := make([]string, 0, len(entries))
	for _, e := range entries {
		words = append(words, e.Word)
	}
	return words, nil
}
