package websocket

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/anonboard/backend/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 10240 // 10KB
)

// Moderator screens message content before it may be persisted
type Moderator interface {
	Moderate(ctx context.Context, text string) bool
}

// ActionLimiter is a rate limiter shared across server instances, keyed
// by sender and action
type ActionLimiter interface {
	AllowAction(sender, action string, rate, burst int) (bool, error)
}

// Client represents a WebSocket client
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	userNumber  string
	connectedAt time.Time

	moderator Moderator

	// shared limiter for message submissions; may be nil
	limiter      ActionLimiter
	limiterRate  int
	limiterBurst int

	// simple token-bucket rate limiter, the local fallback
	tokens       int
	maxTokens    int
	refillPeriod time.Duration
	lastRefill   time.Time
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, moderator Moderator, limiter ActionLimiter, rate, burst int) *Client {
	return &Client{
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, 256),
		connectedAt:  time.Now(),
		moderator:    moderator,
		limiter:      limiter,
		limiterRate:  rate,
		limiterBurst: burst,
		tokens:       20,
		maxTokens:    20,
		refillPeriod: time.Second,
		lastRefill:   time.Now(),
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Rate limit: simple token bucket (in-memory)
		now := time.Now()
		elapsed := now.Sub(c.lastRefill)
		if elapsed >= c.refillPeriod {
			add := int(elapsed / c.refillPeriod)
			c.tokens += add
			if c.tokens > c.maxTokens {
				c.tokens = c.maxTokens
			}
			c.lastRefill = now
		}

		if c.tokens <= 0 {
			c.sendError("rate_limited", "RATE_LIMITED")
			continue
		}
		c.tokens--

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage handles incoming WebSocket messages
func (c *Client) handleMessage(data []byte) {
	var wsMsg models.WSMessage
	if err := json.Unmarshal(data, &wsMsg); err != nil {
		c.sendError("Invalid message format", "BAD_REQUEST")
		return
	}

	switch wsMsg.Event {
	case models.EventHallJoin:
		c.handleHallJoin(wsMsg.Payload)

	case models.EventMessageSend:
		c.handleMessageSend(wsMsg.Payload)

	default:
		c.sendError("Unknown event type", "BAD_REQUEST")
	}
}

// handleHallJoin forwards a join request to the hub
func (c *Client) handleHallJoin(payload interface{}) {
	data, _ := json.Marshal(payload)
	var req models.WSHallJoinPayload
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("Invalid join payload", "BAD_REQUEST")
		return
	}

	if strings.TrimSpace(req.UserNumber) == "" {
		c.sendError("user_number is required", "BAD_REQUEST")
		return
	}

	c.userNumber = req.UserNumber
	c.hub.join <- joinRequest{client: c, hallID: req.HallID, userNumber: req.UserNumber}
}

// handleMessageSend screens the content and, if it passes, hands the
// message to the hub for persist + publish. Moderation runs here so a
// slow scoring call only stalls this client's read loop.
func (c *Client) handleMessageSend(payload interface{}) {
	data, _ := json.Marshal(payload)
	var req models.WSMessageSendPayload
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("Invalid message payload", "BAD_REQUEST")
		return
	}

	// Shared limiter first; the local bucket in ReadPump stays as the
	// fallback when none is configured or Redis errors.
	if c.limiter != nil {
		allowed, err := c.limiter.AllowAction(req.UserNumber, "hall-message", c.limiterRate, c.limiterBurst)
		if err != nil {
			log.Printf("Shared rate limiter failed, falling back to local bucket: %v", err)
		} else if !allowed {
			c.sendError("rate_limited", "RATE_LIMITED")
			return
		}
	}

	if !c.moderator.Moderate(context.Background(), req.Content) {
		c.sendEvent(models.WSMessage{
			Event: models.EventModerationRejected,
			Payload: models.WSModerationRejectedPayload{
				HallID:  req.HallID,
				Message: "Message rejected by moderation",
			},
		})
		return
	}

	c.hub.submit <- submission{
		client:     c,
		hallID:     req.HallID,
		userNumber: req.UserNumber,
		content:    req.Content,
	}
}

// sendEvent marshals and queues an event for this client only
func (c *Client) sendEvent(msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	select {
	case c.send <- data:
	default:
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message, code string) {
	c.sendEvent(models.WSMessage{
		Event: models.EventError,
		Payload: models.WSErrorPayload{
			Message: message,
			Code:    code,
		},
	})
}
