package websocket

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Handler handles WebSocket connections. Connections are anonymous; the
// client identifies itself with a user number when it joins a hall.
type Handler struct {
	hub       *Hub
	moderator Moderator
	limiter   ActionLimiter
	rate      int
	burst     int
	upgrader  websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. The origin check is built
// once here; an empty origin list allows any origin.
func NewHandler(hub *Hub, moderator Moderator, limiter ActionLimiter, messageRate int, allowedOrigins []string) *Handler {
	h := &Handler{
		hub:       hub,
		moderator: moderator,
		limiter:   limiter,
		rate:      messageRate,
		burst:     messageRate * 2,
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return false
			}
			// allow exact match or wildcard like *.example.com
			for _, pattern := range allowedOrigins {
				if matchOrigin(pattern, origin) {
					return true
				}
			}
			return false
		},
	}

	return h
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := NewClient(h.hub, conn, h.moderator, h.limiter, h.rate, h.burst)

	h.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

// matchOrigin supports exact matches or wildcard patterns like
// *.example.com. Wildcards match the bare host and its subdomains only;
// evil-example.com does not satisfy *.example.com.
func matchOrigin(pattern, origin string) bool {
	if pattern == origin {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		// strip scheme from origin if present
		// e.g., https://sub.example.com -> sub.example.com
		originHost := origin
		if u, err := url.Parse(origin); err == nil && u.Hostname() != "" {
			originHost = u.Hostname()
		}
		patHost := strings.TrimPrefix(pattern, "*.")
		if originHost == patHost || strings.HasSuffix(originHost, "."+patHost) {
			return true
		}
	}
	return false
}
