package dto

import (
	"time"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
)

// RegisterInstanceRequest payload.
type RegisterInstanceRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
}

// InstanceResponse representation. The gateway API key never leaves the
// server; the webhook token is only echoed on creation.
type InstanceResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	BaseURL      string    `json:"base_url"`
	WebhookToken string    `json:"webhook_token,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewInstanceResponse maps a domain instance.
func NewInstanceResponse(instance *domain.GatewayInstance, includeToken bool) InstanceResponse {
	resp := InstanceResponse{
		ID:        instance.ID,
		Name:      instance.Name,
		Phone:     instance.Phone,
		BaseURL:   instance.BaseURL,
		IsActive:  instance.IsActive,
		CreatedAt: instance.CreatedAt,
	}
	if includeToken {
		resp.WebhookToken = instance.WebhookToken
	}
	return resp
}
