package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anonboard/backend/internal/auth"
	"github.com/anonboard/backend/internal/models"
	"github.com/anonboard/backend/internal/repository"
)

// BlocklistReloader lets the handler push blocklist edits to the
// moderation gate without waiting for the periodic refresh
type BlocklistReloader interface {
	LoadBlocklist() error
}

type AdminHandler struct {
	verifier   *auth.Verifier
	jwtService *auth.JWTService
	images     *repository.SiteImageRepository
	words      *repository.BannedWordRepository
	reloader   BlocklistReloader
}

func NewAdminHandler(
	verifier *auth.Verifier,
	jwtService *auth.JWTService,
	images *repository.SiteImageRepository,
	words *repository.BannedWordRepository,
	reloader BlocklistReloader,
) *AdminHandler {
	return &AdminHandler{
		verifier:   verifier,
		jwtService: jwtService,
		images:     images,
		words:      words,
		reloader:   reloader,
	}
}

// Login checks admin credentials and issues a JWT
func (h *AdminHandler) Login(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	admin, ok := h.verifier.Verify(req.Username, req.Password)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.jwtService.GenerateToken(admin.ID, admin.Username)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, models.AdminLoginResponse{Token: token})
}

// GetBanner returns the current banner image record
func (h *AdminHandler) GetBanner(c *gin.Context) {
	h.getImage(c, models.ImageKindBanner)
}

// GetBackground returns the current background image record
func (h *AdminHandler) GetBackground(c *gin.Context) {
	h.getImage(c, models.ImageKindBackground)
}

func (h *AdminHandler) getImage(c *gin.Context, kind string) {
	// The frontend polls these; a cached stale URL is worse than the
	// extra request.
	c.Header("Cache-Control", "no-store, max-age=0")

	image, err := h.images.GetLatest(kind)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorResponse(c, http.StatusNotFound, "No image set")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get image")
		return
	}

	c.JSON(http.StatusOK, image)
}

// SetBanner stores a new banner image URL
func (h *AdminHandler) SetBanner(c *gin.Context) {
	h.setImage(c, models.ImageKindBanner)
}

// SetBackground stores a new background image URL
func (h *AdminHandler) SetBackground(c *gin.Context) {
	h.setImage(c, models.ImageKindBackground)
}

func (h *AdminHandler) setImage(c *gin.Context, kind string) {
	var req models.SetSiteImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	image, err := h.images.Set(kind, req.ImageURL)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to set image")
		return
	}

	c.JSON(http.StatusOK, image)
}

// AddBannedWord adds a word to the blocklist and reloads the gate
func (h *AdminHandler) AddBannedWord(c *gin.Context) {
	var req models.AddBannedWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.words.Add(req.Word); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to add word")
		return
	}

	h.reloadBlocklist()
	c.JSON(http.StatusCreated, gin.H{"word": req.Word})
}

// RemoveBannedWord removes a word from the blocklist and reloads the gate
func (h *AdminHandler) RemoveBannedWord(c *gin.Context) {
	word := c.Param("word")
	if err := h.words.Remove(word); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorResponse(c, http.StatusNotFound, "Word not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to remove word")
		return
	}

	h.reloadBlocklist()
	c.JSON(http.StatusOK, gin.H{"message": "Word removed"})
}

// ListBannedWords returns the blocklist
func (h *AdminHandler) ListBannedWords(c *gin.Context) {
	listed, err := h.words.List()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to list words")
		return
	}

	c.JSON(http.StatusOK, listed)
}

func (h *AdminHandler) reloadBlocklist() {
	if h.reloader == nil {
		return
	}
	if err := h.reloader.LoadBlocklist(); err != nil {
		log.Printf("Failed to reload blocklist after edit: %v", err)
	}
}
