package events

import (
	"time"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLeadCreated        EventType = "lead_created"
	EventLeadStageChanged   EventType = "lead_stage_changed"
	EventLeadAssigned       EventType = "lead_assigned"
	EventMessageReceived    EventType = "message_received"
	EventMessageQueued      EventType = "message_queued"
	EventConversationOpened EventType = "conversation_opened"
)

// Event represents a domain event emitted by services. Events fan out to
// in-process subscribers and, when a broker is configured, to AMQP consumers
// keyed by tenant.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	TenantID      string      `json:"tenant_id"`
	LeadID        string      `json:"lead_id,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// LeadCreatedPayload payload.
type LeadCreatedPayload struct {
	Phone       string             `json:"phone"`
	CountryCode string             `json:"country_code"`
	Name        string             `json:"name,omitempty"`
	Stage       domain.FunnelStage `json:"stage"`
	Source      string             `json:"source"`
}

// LeadStageChangedPayload payload.
type LeadStageChangedPayload struct {
	OldStage domain.FunnelStage `json:"old_stage"`
	NewStage domain.FunnelStage `json:"new_stage"`
}

// LeadAssignedPayload payload.
type LeadAssignedPayload struct {
	AssignedTo *string `json:"assigned_to,omitempty"`
}

// MessageReceivedPayload payload.
type MessageReceivedPayload struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Type           string `json:"type"`
	Preview        string `json:"preview"`
	HasMedia       bool   `json:"has_media"`
}

// MessageQueuedPayload payload.
type MessageQueuedPayload struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Type           string `json:"type"`
	AgentID        string `json:"agent_id,omitempty"`
}

// ConversationOpenedPayload payload.
type ConversationOpenedPayload struct {
	ConversationID string `json:"conversation_id"`
	InstanceID     string `json:"instance_id"`
	ChatID         string `json:"chat_id"`
}
