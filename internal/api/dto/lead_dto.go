package dto

import (
	"time"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
)

// CreateLeadRequest payload.
type CreateLeadRequest struct {
	Phone       string                 `json:"phone"`
	Name        string                 `json:"name"`
	Email       *string                `json:"email"`
	Stage       domain.FunnelStage     `json:"stage"`
	Temperature domain.LeadTemperature `json:"temperature"`
	Labels      []string               `json:"labels"`
	Notes       string                 `json:"notes"`
}

// UpdateLeadRequest payload; absent fields stay unchanged.
type UpdateLeadRequest struct {
	Name        *string                 `json:"name"`
	Email       *string                 `json:"email"`
	Temperature *domain.LeadTemperature `json:"temperature"`
	Labels      *[]string               `json:"labels"`
	Notes       *string                 `json:"notes"`
}

// ChangeStageRequest payload.
type ChangeStageRequest struct {
	Stage domain.FunnelStage `json:"stage"`
}

// AssignLeadRequest payload; null agent_id unassigns.
type AssignLeadRequest struct {
	AgentID *string `json:"agent_id"`
}

// LeadResponse representation.
type LeadResponse struct {
	ID             string                 `json:"id"`
	Phone          string                 `json:"phone"`
	CountryCode    string                 `json:"country_code"`
	FormattedPhone string                 `json:"formatted_phone"`
	Name           string                 `json:"name"`
	WhatsappName   string                 `json:"whatsapp_name,omitempty"`
	Email          *string                `json:"email"`
	Stage          domain.FunnelStage     `json:"stage"`
	Temperature    domain.LeadTemperature `json:"temperature"`
	Labels         []string               `json:"labels"`
	AssignedTo     *string                `json:"assigned_to"`
	Notes          string                 `json:"notes,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	LastContactAt  *time.Time             `json:"last_contact_at"`
}

// NewLeadResponse maps a domain lead.
func NewLeadResponse(lead *domain.Lead, formattedPhone string) LeadResponse {
	return LeadResponse{
		ID:             lead.ID,
		Phone:          lead.Phone,
		CountryCode:    lead.CountryCode,
		FormattedPhone: formattedPhone,
		Name:           lead.Name,
		WhatsappName:   lead.WhatsappName,
		Email:          lead.Email,
		Stage:          lead.FunnelStage,
		Temperature:    lead.Temperature,
		Labels:         lead.Labels,
		AssignedTo:     lead.AssignedTo,
		Notes:          lead.Notes,
		CreatedAt:      lead.CreatedAt,
		UpdatedAt:      lead.UpdatedAt,
		LastContactAt:  lead.LastContactAt,
	}
}
