package domain

import "time"

// AgentRole scopes what an agent may do inside a tenant.
type AgentRole string

const (
	AgentRoleAdmin  AgentRole = "ADMIN"
	AgentRoleMember AgentRole = "MEMBER"
)

// AgentStatus represents lifecycle states for an agent account.
type AgentStatus string

const (
	AgentStatusActive    AgentStatus = "ACTIVE"
	AgentStatusSuspended AgentStatus = "SUSPENDED"
)

// Agent is a CRM operator account belonging to a tenant.
type Agent struct {
	ID           string
	TenantID     string
	Name         string
	Email        string
	PasswordHash string
	Role         AgentRole
	Status       AgentStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
