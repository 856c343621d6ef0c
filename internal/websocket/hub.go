package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/anonboard/backend/internal/halls"
	"github.com/anonboard/backend/internal/models"
)

// HallService is the slice of the hall service the hub needs
type HallService interface {
	GetHall(id string) (*models.Hall, error)
	AppendMessage(hallID uuid.UUID, userNumber, content string) (*models.HallMessage, error)
}

// Presence mirrors join/leave into the shared online sets and carries
// persisted messages to every instance's hub
type Presence interface {
	PublishHallMessage(message interface{}) error
	AddHallMember(hallID uuid.UUID, userNumber string) error
	RemoveHallMember(hallID uuid.UUID, userNumber string) error
}

type joinRequest struct {
	client     *Client
	hallID     uuid.UUID
	userNumber string
}

// membership records which hall a client is in and the user number it
// joined under, so teardown removes the right presence entry even if the
// client later announces a different number.
type membership struct {
	hallID     uuid.UUID
	userNumber string
}

type submission struct {
	client     *Client
	hallID     uuid.UUID
	userNumber string
	content    string
}

// Hub maintains the set of connected clients grouped by hall and fans
// persisted messages out to hall members.
//
// The run loop is the single writer on the persist-then-publish path, so
// messages reach Redis in the order they were persisted; Redis delivers
// the channel in publish order, which keeps every hub's dispatch order
// aligned with history.
type Hub struct {
	// All connected clients, joined or not
	clients map[*Client]bool

	// Hall members, and the reverse index for teardown
	rooms map[uuid.UUID]map[*Client]bool
	room  map[*Client]membership

	// Register requests from new connections
	register chan *Client

	// Unregister requests from disconnecting clients
	unregister chan *Client

	// Join requests (hall.join), also used for implicit room switches
	join chan joinRequest

	// Moderated message submissions awaiting persist + publish
	submit chan submission

	// Raw payloads arriving from the Redis subscription
	dispatch chan []byte

	halls    HallService
	presence Presence

	mu sync.RWMutex
}

// NewHub creates a new Hub
func NewHub(hallService HallService, presence Presence) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		room:       make(map[*Client]membership),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest, 16),
		submit:     make(chan submission, 256),
		dispatch:   make(chan []byte, 256),
		halls:      hallService,
		presence:   presence,
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.leaveLocked(client)
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case req := <-h.join:
			h.handleJoin(req)

		case sub := <-h.submit:
			h.handleSubmit(sub)

		case payload := <-h.dispatch:
			h.dispatchToRoom(payload)
		}
	}
}

// Dispatch queues a payload from the shared message channel for
// delivery to its hall's members
func (h *Hub) Dispatch(payload []byte) {
	h.dispatch <- payload
}

// handleJoin validates the hall and moves the client into its room. A
// client is a member of at most one hall; joining another leaves the
// previous one first.
func (h *Hub) handleJoin(req joinRequest) {
	hall, err := h.halls.GetHall(req.hallID.String())
	if err != nil {
		req.client.sendError("Hall not found or expired", "NOT_FOUND")
		return
	}

	h.mu.Lock()
	h.leaveLocked(req.client)
	if h.rooms[hall.ID] == nil {
		h.rooms[hall.ID] = make(map[*Client]bool)
	}
	h.rooms[hall.ID][req.client] = true
	h.room[req.client] = membership{hallID: hall.ID, userNumber: req.userNumber}
	h.mu.Unlock()

	if err := h.presence.AddHallMember(hall.ID, req.userNumber); err != nil {
		log.Printf("Failed to record hall member %s in hall %s: %v", req.userNumber, hall.ID, err)
	}

	req.client.sendEvent(models.WSMessage{
		Event: models.EventHallJoined,
		Payload: models.WSHallJoinPayload{
			HallID:     hall.ID,
			UserNumber: req.userNumber,
		},
	})
}

// handleSubmit persists an already-moderated message and publishes it.
// Delivery to room members happens on the dispatch side once the message
// comes back over the shared channel.
func (h *Hub) handleSubmit(sub submission) {
	h.mu.RLock()
	m, joined := h.room[sub.client]
	member := joined && m.hallID == sub.hallID
	h.mu.RUnlock()

	if !member {
		sub.client.sendError("Join the hall before sending messages", "NOT_JOINED")
		return
	}

	message, err := h.halls.AppendMessage(sub.hallID, sub.userNumber, sub.content)
	if err != nil {
		if errors.Is(err, halls.ErrHallNotFound) {
			sub.client.sendError("Hall not found or expired", "NOT_FOUND")
		} else if errors.Is(err, halls.ErrValidation) {
			sub.client.sendError(err.Error(), "VALIDATION")
		} else {
			log.Printf("Failed to persist message in hall %s: %v", sub.hallID, err)
			sub.client.sendError("Failed to send message", "INTERNAL")
		}
		return
	}

	if err := h.presence.PublishHallMessage(models.WSMessage{
		Event:   models.EventMessageNew,
		Payload: message,
	}); err != nil {
		log.Printf("Failed to publish message %s: %v", message.ID, err)
	}
}

// dispatchToRoom forwards a published message to every member of its
// hall, the sender included. Clients in other halls never see it.
func (h *Hub) dispatchToRoom(payload []byte) {
	var envelope struct {
		Event   string             `json:"event"`
		Payload models.HallMessage `json:"payload"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		log.Printf("Dropping malformed hub payload: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[envelope.Payload.HallID] {
		select {
		case client.send <- payload:
		default:
			// Client's send channel is full, skip
		}
	}
}

// leaveLocked removes the client from its current room. Callers hold h.mu.
func (h *Hub) leaveLocked(client *Client) {
	m, ok := h.room[client]
	if !ok {
		return
	}

	delete(h.room, client)
	if members := h.rooms[m.hallID]; members != nil {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, m.hallID)
		}
	}

	if err := h.presence.RemoveHallMember(m.hallID, m.userNumber); err != nil {
		log.Printf("Failed to remove hall member %s from hall %s: %v", m.userNumber, m.hallID, err)
	}
}

// CountRoomMembers returns how many clients this instance has in a hall
func (h *Hub) CountRoomMembers(hallID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[hallID])
}
