package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/anonboard/backend/internal/cache"
	"github.com/anonboard/backend/internal/halls"
	"github.com/anonboard/backend/internal/models"
)

type HallHandler struct {
	halls *halls.Service
	redis *cache.RedisClient
}

func NewHallHandler(hallService *halls.Service, redis *cache.RedisClient) *HallHandler {
	return &HallHandler{
		halls: hallService,
		redis: redis,
	}
}

// CreateHall opens a new hall. Credentials travel in the body so the
// endpoint stays usable without a prior login round trip.
func (h *HallHandler) CreateHall(c *gin.Context) {
	var req models.CreateHallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	hall, err := h.halls.CreateHall(req.Username, req.Password, req.Topic)
	if err != nil {
		switch {
		case errors.Is(err, halls.ErrUnauthorized):
			ErrorResponse(c, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, halls.ErrValidation):
			ErrorResponse(c, http.StatusBadRequest, err.Error())
		default:
			ErrorResponse(c, http.StatusInternalServerError, "Failed to create hall")
		}
		return
	}

	c.JSON(http.StatusCreated, hall)
}

// ListHalls returns the active halls, newest first
func (h *HallHandler) ListHalls(c *gin.Context) {
	listed, err := h.halls.ListActiveHalls()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to list halls")
		return
	}

	c.JSON(http.StatusOK, listed)
}

// GetHall returns one active hall. Expired and unknown halls both 404.
func (h *HallHandler) GetHall(c *gin.Context) {
	hall, err := h.halls.GetHall(c.Param("id"))
	if err != nil {
		if errors.Is(err, halls.ErrHallNotFound) {
			ErrorResponse(c, http.StatusNotFound, "Hall not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get hall")
		return
	}

	c.JSON(http.StatusOK, hall)
}

// DeleteHall removes a hall and its messages
func (h *HallHandler) DeleteHall(c *gin.Context) {
	var req models.DeleteHallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	id := c.Param("id")
	if err := h.halls.DeleteHall(req.Username, req.Password, id); err != nil {
		switch {
		case errors.Is(err, halls.ErrUnauthorized):
			ErrorResponse(c, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, halls.ErrHallNotFound):
			ErrorResponse(c, http.StatusNotFound, "Hall not found")
		default:
			ErrorResponse(c, http.StatusInternalServerError, "Failed to delete hall")
		}
		return
	}

	// Drop the online set; a stale count for a deleted hall is useless
	if h.redis != nil {
		if hallID, err := uuid.Parse(id); err == nil {
			h.redis.ClearHallMembers(hallID)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Hall deleted"})
}

// ListMessages returns a hall's chat history, oldest first. History is
// readable even after the hall expires.
func (h *HallHandler) ListMessages(c *gin.Context) {
	messages, err := h.halls.ListMessages(c.Param("id"))
	if err != nil {
		if errors.Is(err, halls.ErrHallNotFound) {
			ErrorResponse(c, http.StatusNotFound, "Hall not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get messages")
		return
	}

	c.JSON(http.StatusOK, messages)
}

// OnlineCount returns how many users are connected to a hall
func (h *HallHandler) OnlineCount(c *gin.Context) {
	hallID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Hall not found")
		return
	}

	var count int64
	if h.redis != nil {
		count, err = h.redis.CountHallMembers(hallID)
		if err != nil {
			ErrorResponse(c, http.StatusInternalServerError, "Failed to count members")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
