package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
	"github.com/spec-kit/whatsapp-crm/internal/events"
	"github.com/spec-kit/whatsapp-crm/internal/phone"
	"github.com/spec-kit/whatsapp-crm/internal/repository"
	apperrors "github.com/spec-kit/whatsapp-crm/pkg/util"
)

// CreateLeadInput carries agent-entered lead fields.
type CreateLeadInput struct {
	Phone       string
	Name        string
	Email       *string
	Stage       domain.FunnelStage
	Temperature domain.LeadTemperature
	Labels      []string
	Notes       string
}

// UpdateLeadInput carries mutable lead fields; nil means leave unchanged.
type UpdateLeadInput struct {
	Name        *string
	Email       *string
	Temperature *domain.LeadTemperature
	Labels      *[]string
	Notes       *string
}

// LeadService owns agent-facing lead operations. Inbound ingestion creates
// leads through IngestService instead; the validation posture differs (agents
// get rejections, webhooks get coercion).
type LeadService struct {
	leads      repository.LeadRepository
	resolver   *LeadResolver
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewLeadService builds the service.
func NewLeadService(leads repository.LeadRepository, resolver *LeadResolver, dispatcher events.Dispatcher, logger *zap.Logger) *LeadService {
	return &LeadService{leads: leads, resolver: resolver, dispatcher: dispatcher, logger: logger}
}

// CreateLead validates and stores a manually entered lead.
func (s *LeadService) CreateLead(ctx context.Context, tenantID string, input CreateLeadInput) (*domain.Lead, error) {
	parsed := phone.Parse(input.Phone)
	validation := phone.Validate(parsed.LocalNumber, parsed.CountryCode)
	if !validation.Valid {
		return nil, apperrors.NewValidationError("invalid phone number",
			map[string]any{"phone": validation.Error})
	}

	if existing := s.resolver.FindLeadByPhone(ctx, tenantID, parsed.FullNumber); existing != nil {
		return nil, apperrors.NewConflict("lead with this phone already exists",
			map[string]any{"lead_id": existing.ID})
	}

	stage := input.Stage
	if stage == "" {
		stage = domain.FunnelStageNew
	}
	temperature := input.Temperature
	if temperature == "" {
		temperature = domain.LeadTemperatureCold
	}

	lead := &domain.Lead{
		TenantID:    tenantID,
		Phone:       validation.Normalized,
		CountryCode: parsed.CountryCode,
		Name:        strings.TrimSpace(input.Name),
		Email:       input.Email,
		FunnelStage: stage,
		Temperature: temperature,
		Labels:      input.Labels,
		Notes:       input.Notes,
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("lead with this phone already exists", nil)
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLeadCreated,
		TenantID:  tenantID,
		LeadID:    lead.ID,
		Timestamp: time.Now().UTC(),
		Payload: events.LeadCreatedPayload{
			Phone:       lead.Phone,
			CountryCode: lead.CountryCode,
			Name:        lead.Name,
			Stage:       lead.FunnelStage,
			Source:      "manual",
		},
	})
	return lead, nil
}

// GetLead fetches one lead.
func (s *LeadService) GetLead(ctx context.Context, tenantID, id string) (*domain.Lead, error) {
	lead, err := s.leads.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("lead", map[string]any{"id": id})
		}
		return nil, err
	}
	return lead, nil
}

// ListLeads lists leads matching the filter.
func (s *LeadService) ListLeads(ctx context.Context, filter repository.LeadFilter) ([]domain.Lead, error) {
	return s.leads.ListWithFilter(ctx, filter)
}

// UpdateLead applies partial edits.
func (s *LeadService) UpdateLead(ctx context.Context, tenantID, id string, input UpdateLeadInput) (*domain.Lead, error) {
	lead, err := s.GetLead(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		lead.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		lead.Email = input.Email
	}
	if input.Temperature != nil {
		lead.Temperature = *input.Temperature
	}
	if input.Labels != nil {
		lead.Labels = *input.Labels
	}
	if input.Notes != nil {
		lead.Notes = *input.Notes
	}

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// ChangeStage moves a lead through the funnel.
func (s *LeadService) ChangeStage(ctx context.Context, tenantID, id string, stage domain.FunnelStage) (*domain.Lead, error) {
	if !validStage(stage) {
		return nil, apperrors.NewValidationError("unknown funnel stage",
			map[string]any{"stage": string(stage)})
	}

	lead, err := s.GetLead(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if lead.FunnelStage == stage {
		return lead, nil
	}

	oldStage := lead.FunnelStage
	lead.FunnelStage = stage
	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLeadStageChanged,
		TenantID:  tenantID,
		LeadID:    lead.ID,
		Timestamp: time.Now().UTC(),
		Payload:   events.LeadStageChangedPayload{OldStage: oldStage, NewStage: stage},
	})
	return lead, nil
}

// AssignLead sets or clears the responsible agent.
func (s *LeadService) AssignLead(ctx context.Context, tenantID, id string, agentID *string) (*domain.Lead, error) {
	lead, err := s.GetLead(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	lead.AssignedTo = agentID
	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLeadAssigned,
		TenantID:  tenantID,
		LeadID:    lead.ID,
		Timestamp: time.Now().UTC(),
		Payload:   events.LeadAssignedPayload{AssignedTo: agentID},
	})
	return lead, nil
}

// FormatLeadPhone renders the lead's number for display.
func (s *LeadService) FormatLeadPhone(lead *domain.Lead) string {
	return phone.Format(lead.Phone, lead.CountryCode)
}

func (s *LeadService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event dispatch failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func validStage(stage domain.FunnelStage) bool {
	switch stage {
	case domain.FunnelStageNew, domain.FunnelStageContacted, domain.FunnelStageQualified,
		domain.FunnelStageProposal, domain.FunnelStageNegotiation,
		domain.FunnelStageWon, domain.FunnelStageLost:
		return true
	}
	return false
}
