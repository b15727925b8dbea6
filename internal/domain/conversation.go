package domain

import "time"

// ConversationStatus enumerates inbox states.
type ConversationStatus string

const (
	ConversationStatusOpen     ConversationStatus = "OPEN"
	ConversationStatusPending  ConversationStatus = "PENDING"
	ConversationStatusResolved ConversationStatus = "RESOLVED"
)

// Conversation groups messages exchanged with a lead on one gateway instance.
type Conversation struct {
	ID            string
	TenantID      string
	LeadID        string
	InstanceID    string
	ChatID        string
	Status        ConversationStatus
	UnreadCount   int
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
