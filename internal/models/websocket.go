package models

import "github.com/google/uuid"

// WebSocket event types
const (
	EventHallJoin           = "hall.join"
	EventHallJoined         = "hall.joined"
	EventMessageSend        = "message.send"
	EventMessageNew         = "message.new"
	EventModerationRejected = "moderation.rejected"
	EventError              = "error"
)

type WSMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type WSHallJoinPayload struct {
	HallID     uuid.UUID `json:"hall_id"`
	UserNumber string    `json:"user_number"`
}

type WSMessageSendPayload struct {
	HallID     uuid.UUID `json:"hall_id"`
	UserNumber string    `json:"user_number"`
	Content    string    `json:"content"`
}

type WSModerationRejectedPayload struct {
	HallID  uuid.UUID `json:"hall_id"`
	Message string    `json:"message"`
}

type WSErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
