package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/whatsapp-crm/internal/domain"
	"github.com/spec-kit/whatsapp-crm/internal/events"
	"github.com/spec-kit/whatsapp-crm/internal/message"
	"github.com/spec-kit/whatsapp-crm/internal/repository"
	apperrors "github.com/spec-kit/whatsapp-crm/pkg/util"
)

// ConversationService owns the agent-facing inbox: listing conversations,
// reading history, and queueing outbound messages.
type ConversationService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	validator     *message.Validator
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// NewConversationService builds the service.
func NewConversationService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	validator *message.Validator,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		validator:     validator,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// ListConversations returns the inbox, most recently active first.
func (s *ConversationService) ListConversations(ctx context.Context, tenantID string, status *domain.ConversationStatus, limit, offset int) ([]domain.Conversation, error) {
	return s.conversations.ListByTenant(ctx, tenantID, status, limit, offset)
}

// GetConversation fetches one conversation.
func (s *ConversationService) GetConversation(ctx context.Context, tenantID, id string) (*domain.Conversation, error) {
	conversation, err := s.conversations.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("conversation", map[string]any{"id": id})
		}
		return nil, err
	}
	return conversation, nil
}

// ListMessages returns conversation history, newest first.
func (s *ConversationService) ListMessages(ctx context.Context, tenantID, conversationID string, limit, offset int) ([]domain.Message, error) {
	if _, err := s.GetConversation(ctx, tenantID, conversationID); err != nil {
		return nil, err
	}
	return s.messages.ListByConversation(ctx, tenantID, conversationID, limit, offset)
}

// MarkRead clears the unread counter.
func (s *ConversationService) MarkRead(ctx context.Context, tenantID, id string) error {
	if err := s.conversations.MarkRead(ctx, tenantID, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("conversation", map[string]any{"id": id})
		}
		return err
	}
	return nil
}

// UpdateStatus transitions the conversation between inbox states.
func (s *ConversationService) UpdateStatus(ctx context.Context, tenantID, id string, status domain.ConversationStatus) error {
	switch status {
	case domain.ConversationStatusOpen, domain.ConversationStatusPending, domain.ConversationStatusResolved:
	default:
		return apperrors.NewValidationError("unknown conversation status",
			map[string]any{"status": string(status)})
	}
	if err := s.conversations.UpdateStatus(ctx, tenantID, id, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("conversation", map[string]any{"id": id})
		}
		return err
	}
	return nil
}

// SendMessage validates and queues an outbound agent message. Actual gateway
// delivery is asynchronous; the message starts QUEUED and a worker flips it
// to SENT or FAILED.
func (s *ConversationService) SendMessage(ctx context.Context, tenantID, conversationID, agentID, content string) (*domain.Message, error) {
	conversation, err := s.GetConversation(ctx, tenantID, conversationID)
	if err != nil {
		return nil, err
	}

	validation := s.validator.Validate(content, "")
	if !validation.IsValid {
		return nil, apperrors.NewValidationError("message content rejected",
			map[string]any{"reason": validation.Reason})
	}
	normalized := s.validator.Truncate(s.validator.Sanitize(content), 0)

	msg := &domain.Message{
		TenantID:       tenantID,
		ConversationID: conversation.ID,
		LeadID:         conversation.LeadID,
		Direction:      domain.MessageDirectionOut,
		Type:           "text",
		Content:        normalized,
		Status:         domain.MessageStatusQueued,
		SentByAgentID:  &agentID,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.conversations.TouchOutbound(ctx, tenantID, conversation.ID); err != nil {
		s.logger.Warn("conversation touch failed", zap.Error(err))
	}

	if s.dispatcher != nil {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventMessageQueued,
			TenantID:  tenantID,
			LeadID:    conversation.LeadID,
			Timestamp: time.Now().UTC(),
			Payload: events.MessageQueuedPayload{
				ConversationID: conversation.ID,
				MessageID:      msg.ID,
				Type:           msg.Type,
				AgentID:        agentID,
			},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event dispatch failed", zap.Error(err))
		}
	}
	return msg, nil
}
