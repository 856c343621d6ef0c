package websocket

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchOrigin(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		origin  string
		want    bool
	}{
		{"exact match", "https://app.example.com", "https://app.example.com", true},
		{"exact mismatch", "https://app.example.com", "https://other.example.com", false},
		{"wildcard subdomain", "*.example.com", "https://sub.example.com", true},
		{"wildcard nested subdomain", "*.example.com", "https://a.b.example.com", true},
		{"wildcard bare host", "*.example.com", "https://example.com", true},
		{"wildcard suffix lookalike", "*.example.com", "https://evil-example.com", false},
		{"wildcard embedded lookalike", "*.example.com", "https://example.com.evil.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchOrigin(tt.pattern, tt.origin))
		})
	}
}

func TestHandlerCheckOrigin(t *testing.T) {
	h := NewHandler(nil, nil, nil, 5, []string{"https://app.example.com", "*.example.org"})

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"allowed exact", "https://app.example.com", true},
		{"allowed wildcard", "https://chat.example.org", true},
		{"lookalike host", "https://evil-example.org", false},
		{"unknown origin", "https://attacker.test", false},
		{"missing origin", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, h.upgrader.CheckOrigin(req))
		})
	}
}

func TestHandlerCheckOrigin_EmptyListAllowsAll(t *testing.T) {
	h := NewHandler(nil, nil, nil, 5, nil)

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "https://anywhere.test")
	assert.True(t, h.upgrader.CheckOrigin(req))
}
