package domain

import "time"

// GatewayInstance is a connected WhatsApp gateway session for a tenant.
// BaseURL and APIKey are used when fetching media hosted by the gateway.
type GatewayInstance struct {
	ID           string
	TenantID     string
	Name         string
	Phone        string
	BaseURL      string
	APIKey       string
	WebhookToken string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
