package halls

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonboard/backend/internal/models"
	"github.com/anonboard/backend/internal/repository"
)

// fakeHallStore mimics the SQL store's read semantics: active reads check
// both status and expires_at.
type fakeHallStore struct {
	halls     map[uuid.UUID]*models.Hall
	createErr error
	deleteErr error
}

func newFakeHallStore() *fakeHallStore {
	return &fakeHallStore{halls: make(map[uuid.UUID]*models.Hall)}
}

func (f *fakeHallStore) Create(hall *models.Hall) error {
	if f.createErr != nil {
		return f.createErr
	}
	copied := *hall
	f.halls[hall.ID] = &copied
	return nil
}

func (f *fakeHallStore) GetActiveByID(id uuid.UUID, now time.Time) (*models.Hall, error) {
	hall, ok := f.halls[id]
	if !ok || hall.Status != models.HallStatusActive || !hall.ExpiresAt.After(now) {
		return nil, repository.ErrNotFound
	}
	copied := *hall
	return &copied, nil
}

func (f *fakeHallStore) ListActive(now time.Time) ([]models.Hall, error) {
	out := []models.Hall{}
	for _, hall := range f.halls {
		if hall.Status == models.HallStatusActive && hall.ExpiresAt.After(now) {
			out = append(out, *hall)
		}
	}
	return out, nil
}

func (f *fakeHallStore) Delete(id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.halls[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.halls, id)
	return nil
}

func (f *fakeHallStore) Exists(id uuid.UUID) (bool, error) {
	_, ok := f.halls[id]
	return ok, nil
}

type fakeMessageStore struct {
	byHall    map[uuid.UUID][]models.HallMessage
	appendErr error
	deleteErr error
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{byHall: make(map[uuid.UUID][]models.HallMessage)}
}

func (f *fakeMessageStore) Append(message *models.HallMessage) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.byHall[message.HallID] = append(f.byHall[message.HallID], *message)
	return nil
}

func (f *fakeMessageStore) ListByHall(hallID uuid.UUID) ([]models.HallMessage, error) {
	return f.byHall[hallID], nil
}

func (f *fakeMessageStore) DeleteAllByHall(hallID uuid.UUID) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	n := int64(len(f.byHall[hallID]))
	delete(f.byHall, hallID)
	return n, nil
}

type fakeVerifier struct {
	admin models.Admin
}

func (f *fakeVerifier) Verify(username, password string) (*models.Admin, bool) {
	if username == "admin" && password == "admin123" {
		return &f.admin, true
	}
	return nil, false
}

func newTestService(at time.Time) (*Service, *fakeHallStore, *fakeMessageStore) {
	hallStore := newFakeHallStore()
	msgStore := newFakeMessageStore()
	verifier := &fakeVerifier{admin: models.Admin{ID: uuid.New(), Username: "admin"}}

	svc := NewService(hallStore, msgStore, verifier)
	svc.now = func() time.Time { return at }

	return svc, hallStore, msgStore
}

func TestCreateHall_SetsFixedExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)

	hall, err := svc.CreateHall("admin", "admin123", "AMA")
	require.NoError(t, err)

	assert.Equal(t, "AMA", hall.Topic)
	assert.Equal(t, models.HallStatusActive, hall.Status)
	assert.Equal(t, now, hall.CreatedAt)
	assert.Equal(t, now.Add(12*time.Hour), hall.ExpiresAt)
	require.NotNil(t, hall.CreatedBy)
}

func TestCreateHall_Unauthorized(t *testing.T) {
	svc, _, _ := newTestService(time.Now())

	_, err := svc.CreateHall("admin", "wrong-password", "AMA")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.CreateHall("nobody", "admin123", "AMA")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreateHall_EmptyTopic(t *testing.T) {
	svc, _, _ := newTestService(time.Now())

	_, err := svc.CreateHall("admin", "admin123", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListActiveHalls_MasksExpiredButUnswept(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, hallStore, _ := newTestService(now)

	// Stored status says active but expires_at has already passed; the
	// sweeper just has not run yet.
	stale := &models.Hall{
		ID:        uuid.New(),
		Topic:     "stale",
		Status:    models.HallStatusActive,
		CreatedAt: now.Add(-13 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	require.NoError(t, hallStore.Create(stale))

	fresh, err := svc.CreateHall("admin", "admin123", "fresh")
	require.NoError(t, err)

	listed, err := svc.ListActiveHalls()
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, fresh.ID, listed[0].ID)
}

func TestGetHall_NotFoundCases(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, hallStore, _ := newTestService(now)

	t.Run("malformed id", func(t *testing.T) {
		_, err := svc.GetHall("not-a-uuid")
		assert.ErrorIs(t, err, ErrHallNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.GetHall("7b6a1db1-93a4-4f27-9f63-2a7c1f4e8d10")
		assert.ErrorIs(t, err, ErrHallNotFound)
	})

	t.Run("expired hall", func(t *testing.T) {
		expired := &models.Hall{
			ID:        uuid.New(),
			Topic:     "over",
			Status:    models.HallStatusActive,
			CreatedAt: now.Add(-13 * time.Hour),
			ExpiresAt: now.Add(-time.Hour),
		}
		require.NoError(t, hallStore.Create(expired))

		_, err := svc.GetHall(expired.ID.String())
		assert.ErrorIs(t, err, ErrHallNotFound)
	})
}

func TestGetHall_ReturnsActiveHall(t *testing.T) {
	svc, _, _ := newTestService(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	created, err := svc.CreateHall("admin", "admin123", "AMA")
	require.NoError(t, err)

	got, err := svc.GetHall(created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "AMA", got.Topic)
}

func TestDeleteHall_CascadesMessages(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _, msgStore := newTestService(now)

	hall, err := svc.CreateHall("admin", "admin123", "AMA")
	require.NoError(t, err)

	_, err = svc.AppendMessage(hall.ID, "42", "first")
	require.NoError(t, err)
	_, err = svc.AppendMessage(hall.ID, "7", "second")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteHall("admin", "admin123", hall.ID.String()))

	_, err = svc.GetHall(hall.ID.String())
	assert.ErrorIs(t, err, ErrHallNotFound)

	remaining, err := msgStore.ListByHall(hall.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeleteHall_Unauthorized(t *testing.T) {
	svc, _, _ := newTestService(time.Now())

	hall, err := svc.CreateHall("admin", "admin123", "AMA")
	require.NoError(t, err)

	err = svc.DeleteHall("admin", "wrong", hall.ID.String())
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Hall untouched
	_, err = svc.GetHall(hall.ID.String())
	assert.NoError(t, err)
}

func TestDeleteHall_NotFound(t *testing.T) {
	svc, _, _ := newTestService(time.Now())

	err := svc.DeleteHall("admin", "admin123", "f3b9c7a2-0d4e-4b1a-8c5d-6e7f8a9b0c1d")
	assert.ErrorIs(t, err, ErrHallNotFound)

	err = svc.DeleteHall("admin", "admin123", "garbage-id")
	assert.ErrorIs(t, err, ErrHallNotFound)
}

func TestDeleteHall_PartialFailureIsReported(t *testing.T) {
	svc, hallStore, _ := newTestService(time.Now())

	hall, err := svc.CreateHall("admin", "admin123", "AMA")
	require.NoError(t, err)

	hallStore.deleteErr = errors.New("connection reset")

	err = svc.DeleteHall("admin", "admin123", hall.ID.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), hall.ID.String())
}

func TestAppendMessage_RequiresActiveHall(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, hallStore, _ := newTestService(now)

	expired := &models.Hall{
		ID:        uuid.New(),
		Topic:     "over",
		Status:    models.HallStatusExpired,
		CreatedAt: now.Add(-13 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	require.NoError(t, hallStore.Create(expired))

	_, err := svc.AppendMessage(expired.ID, "1", "hello")
	assert.ErrorIs(t, err, ErrHallNotFound)

	_, err = svc.AppendMessage(uuid.New(), "1", "hello")
	assert.ErrorIs(t, err, ErrHallNotFound)
}

func TestAppendMessage_Persists(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now)

	hall, err := svc.CreateHall("admin", "admin123", "AMA")
	require.NoError(t, err)

	msg, err := svc.AppendMessage(hall.ID, "42", "hello")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, msg.ID)
	assert.Equal(t, hall.ID, msg.HallID)
	assert.Equal(t, "42", msg.UserNumber)
	assert.Equal(t, now, msg.CreatedAt)

	history, err := svc.ListMessages(hall.ID.String())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, msg.ID, history[0].ID)
}

func TestAppendMessage_EmptyContent(t *testing.T) {
	svc, _, _ := newTestService(time.Now())

	hall, err := svc.CreateHall("admin", "admin123", "AMA")
	require.NoError(t, err)

	_, err = svc.AppendMessage(hall.ID, "42", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListMessages_SurvivesExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, hallStore, _ := newTestService(now)

	hall, err := svc.CreateHall("admin", "admin123", "AMA")
	require.NoError(t, err)
	_, err = svc.AppendMessage(hall.ID, "42", "hello")
	require.NoError(t, err)

	// Expire the hall in place
	hallStore.halls[hall.ID].Status = models.HallStatusExpired

	_, err = svc.GetHall(hall.ID.String())
	assert.ErrorIs(t, err, ErrHallNotFound)

	history, err := svc.ListMessages(hall.ID.String())
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
