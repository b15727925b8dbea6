package dto

import (
	"time"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
)

// ConversationResponse representation.
type ConversationResponse struct {
	ID            string                    `json:"id"`
	LeadID        string                    `json:"lead_id"`
	InstanceID    string                    `json:"instance_id"`
	ChatID        string                    `json:"chat_id"`
	Status        domain.ConversationStatus `json:"status"`
	UnreadCount   int                       `json:"unread_count"`
	LastMessageAt *time.Time                `json:"last_message_at"`
	CreatedAt     time.Time                 `json:"created_at"`
}

// NewConversationResponse maps a domain conversation.
func NewConversationResponse(c *domain.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:            c.ID,
		LeadID:        c.LeadID,
		InstanceID:    c.InstanceID,
		ChatID:        c.ChatID,
		Status:        c.Status,
		UnreadCount:   c.UnreadCount,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
	}
}

// UpdateConversationStatusRequest payload.
type UpdateConversationStatusRequest struct {
	Status domain.ConversationStatus `json:"status"`
}

// SendMessageRequest payload.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// MessageResponse representation.
type MessageResponse struct {
	ID             string                  `json:"id"`
	ConversationID string                  `json:"conversation_id"`
	LeadID         string                  `json:"lead_id"`
	Direction      domain.MessageDirection `json:"direction"`
	Type           string                  `json:"type"`
	Content        string                  `json:"content"`
	HasMedia       bool                    `json:"has_media"`
	Status         domain.MessageStatus    `json:"status"`
	SentByAgentID  *string                 `json:"sent_by_agent_id"`
	CreatedAt      time.Time               `json:"created_at"`
}

// NewMessageResponse maps a domain message. Storage references stay internal;
// clients fetch media through the presign endpoint.
func NewMessageResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		LeadID:         m.LeadID,
		Direction:      m.Direction,
		Type:           m.Type,
		Content:        m.Content,
		HasMedia:       m.MediaRef != nil && *m.MediaRef != "",
		Status:         m.Status,
		SentByAgentID:  m.SentByAgentID,
		CreatedAt:      m.CreatedAt,
	}
}

// MediaURLResponse carries a presigned download URL.
type MediaURLResponse struct {
	URL string `json:"url"`
}
