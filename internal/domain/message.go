package domain

import "time"

// MessageDirection distinguishes inbound from outbound traffic.
type MessageDirection string

const (
	MessageDirectionIn  MessageDirection = "IN"
	MessageDirectionOut MessageDirection = "OUT"
)

// MessageStatus tracks delivery state for outbound messages.
type MessageStatus string

const (
	MessageStatusReceived MessageStatus = "RECEIVED"
	MessageStatusQueued   MessageStatus = "QUEUED"
	MessageStatusSent     MessageStatus = "SENT"
	MessageStatusFailed   MessageStatus = "FAILED"
)

// Message is a persisted chat message. A message always carries content or
// media, never neither; that invariant is enforced before creation.
type Message struct {
	ID               string
	TenantID         string
	ConversationID   string
	LeadID           string
	GatewayMessageID *string
	Direction        MessageDirection
	Type             string
	Content          string
	MediaRef         *string
	Status           MessageStatus
	SentByAgentID    *string
	CreatedAt        time.Time
}
