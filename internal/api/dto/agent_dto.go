package dto

import (
	"time"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
)

// RegisterAgentRequest payload.
type RegisterAgentRequest struct {
	TenantID string           `json:"tenant_id"`
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Role     domain.AgentRole `json:"role"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AgentResponse representation.
type AgentResponse struct {
	ID       string             `json:"id"`
	TenantID string             `json:"tenant_id"`
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Role     domain.AgentRole   `json:"role"`
	Status   domain.AgentStatus `json:"status"`
}

// AuthResponse wraps an agent plus its token.
type AuthResponse struct {
	Agent     AgentResponse `json:"agent"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// NewAgentResponse maps a domain agent.
func NewAgentResponse(agent *domain.Agent) AgentResponse {
	return AgentResponse{
		ID:       agent.ID,
		TenantID: agent.TenantID,
		Name:     agent.Name,
		Email:    agent.Email,
		Role:     agent.Role,
		Status:   agent.Status,
	}
}
