package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonboard/backend/internal/halls"
	"github.com/anonboard/backend/internal/models"
)

type fakeHallService struct {
	mu      sync.Mutex
	active  map[uuid.UUID]bool
	appends []models.HallMessage
}

func newFakeHallService(active ...uuid.UUID) *fakeHallService {
	f := &fakeHallService{active: make(map[uuid.UUID]bool)}
	for _, id := range active {
		f.active[id] = true
	}
	return f
}

func (f *fakeHallService) GetHall(id string) (*models.Hall, error) {
	hallID, err := uuid.Parse(id)
	if err != nil || !f.active[hallID] {
		return nil, halls.ErrHallNotFound
	}
	return &models.Hall{ID: hallID, Status: models.HallStatusActive}, nil
}

func (f *fakeHallService) AppendMessage(hallID uuid.UUID, userNumber, content string) (*models.HallMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.active[hallID] {
		return nil, halls.ErrHallNotFound
	}

	msg := models.HallMessage{
		ID:         uuid.New(),
		HallID:     hallID,
		UserNumber: userNumber,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	f.appends = append(f.appends, msg)
	return &msg, nil
}

// fakePresence records membership changes and exposes published payloads
// so tests can loop them back into the hub, standing in for Redis.
type fakePresence struct {
	mu        sync.Mutex
	members   map[uuid.UUID]map[string]bool
	published chan []byte
}

func newFakePresence() *fakePresence {
	return &fakePresence{
		members:   make(map[uuid.UUID]map[string]bool),
		published: make(chan []byte, 32),
	}
}

func (f *fakePresence) PublishHallMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	f.published <- data
	return nil
}

func (f *fakePresence) AddHallMember(hallID uuid.UUID, userNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[hallID] == nil {
		f.members[hallID] = make(map[string]bool)
	}
	f.members[hallID][userNumber] = true
	return nil
}

func (f *fakePresence) RemoveHallMember(hallID uuid.UUID, userNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[hallID], userNumber)
	return nil
}

func (f *fakePresence) memberCount(hallID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.members[hallID])
}

type acceptAll struct{}

func (acceptAll) Moderate(ctx context.Context, text string) bool { return true }

type rejectAll struct{}

func (rejectAll) Moderate(ctx context.Context, text string) bool { return false }

func newTestClient(h *Hub, userNumber string) *Client {
	c := &Client{
		hub:        h,
		send:       make(chan []byte, 16),
		userNumber: userNumber,
		moderator:  acceptAll{},
	}
	h.register <- c
	return c
}

func joinHall(t *testing.T, h *Hub, c *Client, hallID uuid.UUID) {
	t.Helper()
	h.join <- joinRequest{client: c, hallID: hallID, userNumber: c.userNumber}
	expectEvent(t, c, models.EventHallJoined)
}

func expectEvent(t *testing.T, c *Client, event string) models.WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg models.WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		require.Equal(t, event, msg.Event)
		return msg
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s event", event)
		return models.WSMessage{}
	}
}

func expectSilence(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected payload: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RoomScopedDispatch(t *testing.T) {
	hallA := uuid.New()
	hallB := uuid.New()
	svc := newFakeHallService(hallA, hallB)
	presence := newFakePresence()

	h := NewHub(svc, presence)
	go h.Run()
	go h.loopback(presence)

	sender := newTestClient(h, "1")
	peer := newTestClient(h, "2")
	outsider := newTestClient(h, "3")

	joinHall(t, h, sender, hallA)
	joinHall(t, h, peer, hallA)
	joinHall(t, h, outsider, hallB)

	h.submit <- submission{client: sender, hallID: hallA, userNumber: "1", content: "hello"}

	// Sender and the other hall member both receive the message
	for _, c := range []*Client{sender, peer} {
		msg := expectEvent(t, c, models.EventMessageNew)
		payload, _ := json.Marshal(msg.Payload)
		var got models.HallMessage
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, hallA, got.HallID)
		assert.Equal(t, "hello", got.Content)
		assert.NotEqual(t, uuid.Nil, got.ID)
	}

	// The member of the other hall sees nothing
	expectSilence(t, outsider)
}

// loopback feeds published payloads back into the dispatch queue the way
// the Redis subscription would.
func (h *Hub) loopback(p *fakePresence) {
	for data := range p.published {
		h.Dispatch(data)
	}
}

func TestHub_DispatchOrderMatchesSubmitOrder(t *testing.T) {
	hallID := uuid.New()
	svc := newFakeHallService(hallID)
	presence := newFakePresence()

	h := NewHub(svc, presence)
	go h.Run()
	go h.loopback(presence)

	c := newTestClient(h, "1")
	joinHall(t, h, c, hallID)

	contents := []string{"first", "second", "third"}
	for _, content := range contents {
		h.submit <- submission{client: c, hallID: hallID, userNumber: "1", content: content}
	}

	for _, want := range contents {
		msg := expectEvent(t, c, models.EventMessageNew)
		payload, _ := json.Marshal(msg.Payload)
		var got models.HallMessage
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, want, got.Content)
	}
}

func TestHub_SubmitWithoutJoin(t *testing.T) {
	hallID := uuid.New()
	svc := newFakeHallService(hallID)
	presence := newFakePresence()

	h := NewHub(svc, presence)
	go h.Run()

	c := newTestClient(h, "1")

	h.submit <- submission{client: c, hallID: hallID, userNumber: "1", content: "hello"}

	expectEvent(t, c, models.EventError)
	svc.mu.Lock()
	assert.Empty(t, svc.appends, "nothing may be persisted for a non-member")
	svc.mu.Unlock()
}

func TestHub_RejoinUnderNewUserNumber(t *testing.T) {
	hallA := uuid.New()
	hallB := uuid.New()
	svc := newFakeHallService(hallA, hallB)
	presence := newFakePresence()

	h := NewHub(svc, presence)
	go h.Run()

	c := newTestClient(h, "1")
	joinHall(t, h, c, hallA)
	require.Equal(t, 1, presence.memberCount(hallA))

	// The client announces a different user number on its next join; the
	// entry recorded for the old number must still be cleaned up.
	c.userNumber = "2"
	joinHall(t, h, c, hallB)

	require.Eventually(t, func() bool {
		return presence.memberCount(hallA) == 0 && presence.memberCount(hallB) == 1
	}, time.Second, time.Millisecond, "stale presence entry left in the previous hall")
}

func TestHub_JoinUnknownHall(t *testing.T) {
	svc := newFakeHallService()
	presence := newFakePresence()

	h := NewHub(svc, presence)
	go h.Run()

	c := newTestClient(h, "1")
	h.join <- joinRequest{client: c, hallID: uuid.New()}

	expectEvent(t, c, models.EventError)
}

func TestHub_JoinSwitchesRooms(t *testing.T) {
	hallA := uuid.New()
	hallB := uuid.New()
	svc := newFakeHallService(hallA, hallB)
	presence := newFakePresence()

	h := NewHub(svc, presence)
	go h.Run()
	go h.loopback(presence)

	mover := newTestClient(h, "1")
	stayer := newTestClient(h, "2")

	joinHall(t, h, mover, hallA)
	joinHall(t, h, stayer, hallA)
	joinHall(t, h, mover, hallB)

	require.Eventually(t, func() bool {
		return h.CountRoomMembers(hallA) == 1 && h.CountRoomMembers(hallB) == 1
	}, time.Second, time.Millisecond)

	// Messages in the old hall no longer reach the mover
	h.submit <- submission{client: stayer, hallID: hallA, userNumber: "2", content: "left behind"}
	expectEvent(t, stayer, models.EventMessageNew)
	expectSilence(t, mover)
}

func TestHub_DisconnectTeardown(t *testing.T) {
	hallID := uuid.New()
	svc := newFakeHallService(hallID)
	presence := newFakePresence()

	h := NewHub(svc, presence)
	go h.Run()

	c := newTestClient(h, "1")
	joinHall(t, h, c, hallID)
	require.Equal(t, 1, presence.memberCount(hallID))

	h.unregister <- c

	require.Eventually(t, func() bool {
		return h.CountRoomMembers(hallID) == 0 && presence.memberCount(hallID) == 0
	}, time.Second, time.Millisecond)

	// send channel is closed
	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

type fakeLimiter struct {
	mu    sync.Mutex
	allow bool
	err   error
	calls []string
}

func (f *fakeLimiter) AllowAction(sender, action string, rate, burst int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sender+":"+action)
	return f.allow, f.err
}

func TestClient_SharedLimiterBlocksSend(t *testing.T) {
	hallID := uuid.New()
	svc := newFakeHallService(hallID)
	presence := newFakePresence()

	h := NewHub(svc, presence)
	go h.Run()
	go h.loopback(presence)

	c := newTestClient(h, "1")
	limiter := &fakeLimiter{allow: false}
	c.limiter = limiter
	joinHall(t, h, c, hallID)

	c.handleMessageSend(map[string]interface{}{
		"hall_id":     hallID.String(),
		"user_number": "1",
		"content":     "hello",
	})

	expectEvent(t, c, models.EventError)

	limiter.mu.Lock()
	assert.Equal(t, []string{"1:hall-message"}, limiter.calls)
	limiter.mu.Unlock()

	svc.mu.Lock()
	assert.Empty(t, svc.appends, "rate-limited content must never be persisted")
	svc.mu.Unlock()
}

func TestClient_SharedLimiterAllowsSend(t *testing.T) {
	hallID := uuid.New()
	svc := newFakeHallService(hallID)
	presence := newFakePresence()

	h := NewHub(svc, presence)
	go h.Run()
	go h.loopback(presence)

	c := newTestClient(h, "1")
	c.limiter = &fakeLimiter{allow: true}
	joinHall(t, h, c, hallID)

	c.handleMessageSend(map[string]interface{}{
		"hall_id":     hallID.String(),
		"user_number": "1",
		"content":     "hello",
	})

	expectEvent(t, c, models.EventMessageNew)
}

func TestClient_SharedLimiterErrorFallsThrough(t *testing.T) {
	hallID := uuid.New()
	svc := newFakeHallService(hallID)
	presence := newFakePresence()

	h := NewHub(svc, presence)
	go h.Run()
	go h.loopback(presence)

	c := newTestClient(h, "1")
	c.limiter = &fakeLimiter{err: errors.New("redis down")}
	joinHall(t, h, c, hallID)

	// Limiter outage degrades to the local bucket, it does not block sends
	c.handleMessageSend(map[string]interface{}{
		"hall_id":     hallID.String(),
		"user_number": "1",
		"content":     "hello",
	})

	expectEvent(t, c, models.EventMessageNew)
}

func TestClient_ModerationRejectGoesToSenderOnly(t *testing.T) {
	hallID := uuid.New()
	svc := newFakeHallService(hallID)
	presence := newFakePresence()

	h := NewHub(svc, presence)
	go h.Run()
	go h.loopback(presence)

	sender := newTestClient(h, "1")
	sender.moderator = rejectAll{}
	peer := newTestClient(h, "2")

	joinHall(t, h, sender, hallID)
	joinHall(t, h, peer, hallID)

	sender.handleMessageSend(map[string]interface{}{
		"hall_id":     hallID.String(),
		"user_number": "1",
		"content":     "anything",
	})

	expectEvent(t, sender, models.EventModerationRejected)
	expectSilence(t, peer)

	svc.mu.Lock()
	assert.Empty(t, svc.appends, "rejected content must never be persisted")
	svc.mu.Unlock()
}
