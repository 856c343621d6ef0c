package halls

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/anonboard/backend/internal/models"
	"github.com/anonboard/backend/internal/repository"
)

// TTL is the fixed lifetime of every hall. expiresAt = createdAt + TTL,
// set once at creation and never touched again.
const TTL = 12 * time.Hour

// HallStore is the persistence surface for hall records
type HallStore interface {
	Create(hall *models.Hall) error
	GetActiveByID(id uuid.UUID, now time.Time) (*models.Hall, error)
	ListActive(now time.Time) ([]models.Hall, error)
	Delete(id uuid.UUID) error
	Exists(id uuid.UUID) (bool, error)
}

// MessageStore is the persistence surface for hall chat messages
type MessageStore interface {
	Append(message *models.HallMessage) error
	ListByHall(hallID uuid.UUID) ([]models.HallMessage, error)
	DeleteAllByHall(hallID uuid.UUID) (int64, error)
}

// AdminVerifier checks admin credentials before any hall mutation
type AdminVerifier interface {
	Verify(username, password string) (*models.Admin, bool)
}

// Service is the only mutator of hall existence. Creation and deletion are
// admin-gated; the read paths re-check expires_at themselves and never
// trust a stale status column alone.
type Service struct {
	halls    HallStore
	messages MessageStore
	verifier AdminVerifier
	now      func() time.Time
}

func NewService(halls HallStore, messages MessageStore, verifier AdminVerifier) *Service {
	return &Service{
		halls:    halls,
		messages: messages,
		verifier: verifier,
		now:      time.Now,
	}
}

// CreateHall verifies the admin credentials, validates the topic and
// persists a new active hall expiring TTL from now
func (s *Service) CreateHall(username, password, topic string) (*models.Hall, error) {
	admin, ok := s.verifier.Verify(username, password)
	if !ok {
		return nil, ErrUnauthorized
	}

	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrValidation)
	}

	now := s.now()
	hall := &models.Hall{
		ID:        uuid.New(),
		Topic:     topic,
		CreatedBy: &admin.ID,
		Status:    models.HallStatusActive,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
	}

	if err := s.halls.Create(hall); err != nil {
		return nil, err
	}

	return hall, nil
}

// ListActiveHalls returns active, unexpired halls newest first. Halls whose
// expiry has passed but whose sweep is still pending are filtered out by
// the store's expires_at check.
func (s *Service) ListActiveHalls() ([]models.Hall, error) {
	return s.halls.ListActive(s.now())
}

// GetHall returns an active, unexpired hall. Malformed ids, unknown halls
// and expired halls all come back as ErrHallNotFound.
func (s *Service) GetHall(id string) (*models.Hall, error) {
	hallID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrHallNotFound
	}

	hall, err := s.halls.GetActiveByID(hallID, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrHallNotFound
	}
	if err != nil {
		return nil, err
	}

	return hall, nil
}

// DeleteHall removes a hall and all of its messages. The two deletes are
// not transactional; a partial failure is logged with enough context to
// reconcile by hand and is never reported as success.
func (s *Service) DeleteHall(username, password, id string) error {
	if _, ok := s.verifier.Verify(username, password); !ok {
		return ErrUnauthorized
	}

	hallID, err := uuid.Parse(id)
	if err != nil {
		return ErrHallNotFound
	}

	exists, err := s.halls.Exists(hallID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrHallNotFound
	}

	deleted, err := s.messages.DeleteAllByHall(hallID)
	if err != nil {
		return fmt.Errorf("failed to cascade messages for hall %s: %w", hallID, err)
	}

	if err := s.halls.Delete(hallID); err != nil {
		log.Printf("INCONSISTENCY: hall %s deletion failed after removing %d messages: %v", hallID, deleted, err)
		return fmt.Errorf("failed to delete hall %s after message cascade: %w", hallID, err)
	}

	return nil
}

// ListMessages returns a hall's history oldest first. This is the direct,
// unrestricted lookup path: it works for expired halls too, so history
// survives expiry (though not deletion).
func (s *Service) ListMessages(id string) ([]models.HallMessage, error) {
	hallID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrHallNotFound
	}

	return s.messages.ListByHall(hallID)
}

// AppendMessage persists a chat message for an active hall. Callers run
// content through the moderation gate first; this only enforces the
// active-hall invariant and non-empty content.
func (s *Service) AppendMessage(hallID uuid.UUID, userNumber, content string) (*models.HallMessage, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	if _, err := s.halls.GetActiveByID(hallID, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}

	message := &models.HallMessage{
		ID:         uuid.New(),
		HallID:     hallID,
		UserNumber: userNumber,
		Content:    content,
		CreatedAt:  s.now(),
	}

	if err := s.messages.Append(message); err != nil {
		return nil, err
	}

	return message, nil
}
