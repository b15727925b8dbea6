package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
	"github.com/spec-kit/whatsapp-crm/internal/repository"
	apperrors "github.com/spec-kit/whatsapp-crm/pkg/util"
)

// InstanceService manages gateway instance registrations.
type InstanceService struct {
	instances repository.InstanceRepository
}

// NewInstanceService builds the service.
func NewInstanceService(instances repository.InstanceRepository) *InstanceService {
	return &InstanceService{instances: instances}
}

// RegisterInstance stores a gateway connection. The webhook token is minted
// server-side and returned once; the gateway operator configures it on the
// gateway's callback settings.
func (s *InstanceService) RegisterInstance(ctx context.Context, tenantID, name, phone, baseURL, apiKey string) (*domain.GatewayInstance, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("instance name required", nil)
	}

	instance := &domain.GatewayInstance{
		TenantID:     tenantID,
		Name:         strings.TrimSpace(name),
		Phone:        phone,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		APIKey:       apiKey,
		WebhookToken: uuid.NewString(),
		IsActive:     true,
	}
	if err := s.instances.Create(ctx, instance); err != nil {
		return nil, err
	}
	return instance, nil
}

// GetInstance fetches one instance, scoped to the tenant.
func (s *InstanceService) GetInstance(ctx context.Context, tenantID, id string) (*domain.GatewayInstance, error) {
	instance, err := s.instances.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("instance", map[string]any{"id": id})
		}
		return nil, err
	}
	if instance.TenantID != tenantID {
		return nil, apperrors.NewNotFound("instance", map[string]any{"id": id})
	}
	return instance, nil
}

// ListInstances lists a tenant's instances.
func (s *InstanceService) ListInstances(ctx context.Context, tenantID string) ([]domain.GatewayInstance, error) {
	return s.instances.ListByTenant(ctx, tenantID)
}
