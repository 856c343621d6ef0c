package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/anonboard/backend/internal/models"
	"github.com/anonboard/backend/internal/repository"
)

// Moderator screens user-submitted text before it is stored
type Moderator interface {
	Moderate(ctx context.Context, text string) bool
}

type PostHandler struct {
	posts     *repository.PostRepository
	moderator Moderator
}

func NewPostHandler(posts *repository.PostRepository, moderator Moderator) *PostHandler {
	return &PostHandler{
		posts:     posts,
		moderator: moderator,
	}
}

// CreatePost stores an anonymous post after moderation
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !h.moderator.Moderate(c.Request.Context(), req.Content) {
		ErrorResponse(c, http.StatusBadRequest, "Content rejected by moderation")
		return
	}

	post := &models.Post{
		ID:        uuid.New(),
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	if err := h.posts.Create(post); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to create post")
		return
	}

	c.JSON(http.StatusCreated, post)
}

// ListPosts returns all posts, newest first
func (h *PostHandler) ListPosts(c *gin.Context) {
	posts, err := h.posts.List()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to list posts")
		return
	}

	c.JSON(http.StatusOK, posts)
}

// LikePost adjusts a post's like counter. liked=true increments,
// liked=false takes the like back.
func (h *PostHandler) LikePost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Post not found")
		return
	}

	var req models.LikePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	delta := 1
	if !req.Liked {
		delta = -1
	}

	likes, err := h.posts.AddLike(postID, delta)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorResponse(c, http.StatusNotFound, "Post not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to update likes")
		return
	}

	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

// CreateComment attaches a moderated anonymous comment to a post
func (h *PostHandler) CreateComment(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Post not found")
		return
	}

	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !h.moderator.Moderate(c.Request.Context(), req.Content) {
		ErrorResponse(c, http.StatusBadRequest, "Content rejected by moderation")
		return
	}

	exists, err := h.posts.Exists(postID)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to create comment")
		return
	}
	if !exists {
		ErrorResponse(c, http.StatusNotFound, "Post not found")
		return
	}

	comment := &models.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	if err := h.posts.AddComment(comment); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to create comment")
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// ListComments returns a post's comments, oldest first
func (h *PostHandler) ListComments(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Post not found")
		return
	}

	comments, err := h.posts.ListComments(postID)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to list comments")
		return
	}

	c.JSON(http.StatusOK, comments)
}
