package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/anonboard/backend/internal/database"
	"github.com/anonboard/backend/internal/models"
)

type PostRepository struct {
	db *database.DB
}

func NewPostRepository(db *database.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create creates a new post
func (r *PostRepository) Create(post *models.Post) error {
	query := `
		INSERT INTO posts (id, content, likes, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		query,
		post.ID,
		post.Content,
		post.Likes,
		post.CreatedAt,
	).Scan(&post.ID, &post.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// List returns all posts, newest first
func (r *PostRepository) List() ([]models.Post, error) {
	query := `
		SELECT id, content, likes, created_at
		FROM posts
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(&post.ID, &post.Content, &post.Likes, &post.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	return posts, nil
}

// AddLike atomically adjusts a post's like counter and returns the new
// count. delta is +1 or -1.
func (r *PostRepository) AddLike(id uuid.UUID, delta int) (int, error) {
	query := `
		UPDATE posts
		SET likes = likes + $2
		WHERE id = $1
		RETURNING likes
	`

	var likes int
	err := r.db.QueryRow(query, id, delta).Scan(&likes)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update likes: %w", err)
	}

	return likes, nil
}

// Exists reports whether a post exists
func (r *PostRepository) Exists(id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check post existence: %w", err)
	}
	return exists, nil
}

// AddComment attaches a comment to a post
func (r *PostRepository) AddComment(comment *models.Comment) error {
	query := `
		INSERT INTO post_comments (id, post_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		query,
		comment.ID,
		comment.PostID,
		comment.Content,
		comment.CreatedAt,
	).Scan(&comment.ID, &comment.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// ListComments returns a post's comments oldest first
func (r *PostRepository) ListComments(postID uuid.UUID) ([]models.Comment, error) {
	query := `
		SELECT id, post_id, content, created_at
		FROM post_comments
		WHERE post_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	return comments, nil
}
