package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/whatsapp-crm/internal/chatid"
	"github.com/spec-kit/whatsapp-crm/internal/domain"
	"github.com/spec-kit/whatsapp-crm/internal/events"
	"github.com/spec-kit/whatsapp-crm/internal/media"
	"github.com/spec-kit/whatsapp-crm/internal/message"
	"github.com/spec-kit/whatsapp-crm/internal/persistence"
	"github.com/spec-kit/whatsapp-crm/internal/phone"
	"github.com/spec-kit/whatsapp-crm/internal/repository"
)

// Skip reasons produced by the ingest pipeline itself, on top of the ones the
// message validator emits. Skipped payloads are acknowledged to the gateway
// without persistence.
const (
	SkipReasonGroupChat       = "group_chat"
	SkipReasonStatusBroadcast = "status_broadcast"
	SkipReasonLIDUnresolved   = "lid_unresolved"
	SkipReasonDuplicate       = "duplicate_message"
	SkipReasonUnsupportedType = "unsupported_type"
)

// dedupeTTL bounds how long a gateway message id is remembered. Gateways
// retry webhook delivery for at most a few hours.
const dedupeTTL = 24 * time.Hour

// InboundMessage is one webhook payload after DTO normalization.
type InboundMessage struct {
	GatewayMessageID string
	ChatID           string
	SenderName       string
	Type             string
	Content          string
	MediaURL         string
	FromMe           bool
}

// IngestResult reports what the pipeline did with a payload.
type IngestResult struct {
	Skipped        bool
	SkipReason     string
	LeadID         string
	ConversationID string
	MessageID      string
}

// IngestServiceDependencies bundles collaborators for NewIngestService.
type IngestServiceDependencies struct {
	Leads         repository.LeadRepository
	Conversations repository.ConversationRepository
	Messages      repository.MessageRepository
	Resolver      *LeadResolver
	Validator     *message.Validator
	Media         *media.Ingestor
	Dispatcher    events.Dispatcher
	Redis         *persistence.Redis
	Logger        *zap.Logger
}

// IngestService runs the inbound message pipeline: classify the chat id,
// deduplicate, resolve or create the lead, validate and normalize the
// payload, re-host media, persist, and emit events.
type IngestService struct {
	leads         repository.LeadRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	resolver      *LeadResolver
	validator     *message.Validator
	media         *media.Ingestor
	dispatcher    events.Dispatcher
	dedupe        deduper
	logger        *zap.Logger
}

// NewIngestService wires the pipeline. Without Redis deduplication is
// disabled.
func NewIngestService(deps IngestServiceDependencies) *IngestService {
	var dedupe deduper
	if deps.Redis != nil && deps.Redis.Client != nil {
		dedupe = &redisDeduper{client: deps.Redis.Client, ttl: dedupeTTL}
	}
	return &IngestService{
		leads:         deps.Leads,
		conversations: deps.Conversations,
		messages:      deps.Messages,
		resolver:      deps.Resolver,
		validator:     deps.Validator,
		media:         deps.Media,
		dispatcher:    deps.Dispatcher,
		dedupe:        dedupe,
		logger:        deps.Logger,
	}
}

// Ingest processes one payload for the given gateway instance. Skips are
// normal outcomes, not errors; an error return means persistence failed and
// the gateway should redeliver.
func (s *IngestService) Ingest(ctx context.Context, instance *domain.GatewayInstance, payload InboundMessage) (*IngestResult, error) {
	if chatid.IsGroupChat(payload.ChatID) {
		return &IngestResult{Skipped: true, SkipReason: SkipReasonGroupChat}, nil
	}
	if chatid.IsStatusBroadcast(payload.ChatID) {
		return &IngestResult{Skipped: true, SkipReason: SkipReasonStatusBroadcast}, nil
	}

	if dup, err := s.isDuplicate(ctx, instance.ID, payload.GatewayMessageID); err != nil {
		s.logger.Warn("dedupe check failed, ingesting anyway", zap.Error(err))
	} else if dup {
		return &IngestResult{Skipped: true, SkipReason: SkipReasonDuplicate}, nil
	}

	if s.validator.IsUnsupportedType(payload.Type) {
		return &IngestResult{Skipped: true, SkipReason: SkipReasonUnsupportedType}, nil
	}
	typeResult := s.validator.ValidateType(payload.Type)

	validation := s.validator.Validate(payload.Content, payload.MediaURL)
	if !validation.IsValid {
		return &IngestResult{Skipped: true, SkipReason: validation.Reason}, nil
	}

	lead, skipReason, err := s.resolveOrCreateLead(ctx, instance.TenantID, payload)
	if err != nil {
		s.releaseDedupe(ctx, instance.ID, payload.GatewayMessageID)
		return nil, err
	}
	if skipReason != "" {
		return &IngestResult{Skipped: true, SkipReason: skipReason}, nil
	}

	conversation, err := s.getOrCreateConversation(ctx, instance, lead, payload.ChatID)
	if err != nil {
		s.releaseDedupe(ctx, instance.ID, payload.GatewayMessageID)
		return nil, err
	}

	content := s.validator.Truncate(s.validator.Sanitize(payload.Content), 0)
	if s.validator.IsPlaceholder(content) {
		// Gateway media markers stand in for an attachment; they are never
		// user text and must not be stored as the message body.
		content = ""
	}

	var mediaRef *string
	if strings.TrimSpace(payload.MediaURL) != "" && s.media != nil {
		gateway := &media.GatewayConfig{BaseURL: instance.BaseURL, APIKey: instance.APIKey}
		if ref, err := s.media.Upload(ctx, payload.MediaURL, typeResult.NormalizedType, lead.ID, gateway); err == nil {
			mediaRef = &ref
		}
	}
	// A message must carry content or media. When the attachment was lost (or
	// storage is disabled) and no caption remains, the type label stands in.
	if mediaRef == nil && strings.TrimSpace(content) == "" {
		content = s.validator.PreviewContent("", typeResult.NormalizedType, 50)
	}

	direction := domain.MessageDirectionIn
	status := domain.MessageStatusReceived
	if payload.FromMe {
		direction = domain.MessageDirectionOut
		status = domain.MessageStatusSent
	}

	var gatewayID *string
	if payload.GatewayMessageID != "" {
		id := payload.GatewayMessageID
		gatewayID = &id
	}

	msg := &domain.Message{
		TenantID:         instance.TenantID,
		ConversationID:   conversation.ID,
		LeadID:           lead.ID,
		GatewayMessageID: gatewayID,
		Direction:        direction,
		Type:             typeResult.NormalizedType,
		Content:          content,
		MediaRef:         mediaRef,
		Status:           status,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		s.releaseDedupe(ctx, instance.ID, payload.GatewayMessageID)
		return nil, err
	}

	if payload.FromMe {
		if err := s.conversations.TouchOutbound(ctx, instance.TenantID, conversation.ID); err != nil {
			s.logger.Warn("conversation touch failed", zap.Error(err))
		}
	} else {
		if err := s.conversations.TouchInbound(ctx, instance.TenantID, conversation.ID); err != nil {
			s.logger.Warn("conversation touch failed", zap.Error(err))
		}
		s.touchLead(ctx, lead, payload.SenderName)
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventMessageReceived,
		TenantID:  instance.TenantID,
		LeadID:    lead.ID,
		Timestamp: time.Now().UTC(),
		Payload: events.MessageReceivedPayload{
			ConversationID: conversation.ID,
			MessageID:      msg.ID,
			Type:           msg.Type,
			Preview:        s.validator.PreviewContent(content, msg.Type, 50),
			HasMedia:       mediaRef != nil,
		},
	})

	return &IngestResult{
		LeadID:         lead.ID,
		ConversationID: conversation.ID,
		MessageID:      msg.ID,
	}, nil
}

// isDuplicate marks the gateway message id seen and reports whether it
// already was. With no Redis configured deduplication is disabled.
func (s *IngestService) isDuplicate(ctx context.Context, instanceID, gatewayMessageID string) (bool, error) {
	if s.dedupe == nil || gatewayMessageID == "" {
		return false, nil
	}
	first, err := s.dedupe.MarkSeen(ctx, dedupeKey(instanceID, gatewayMessageID))
	if err != nil {
		return false, err
	}
	return !first, nil
}

// releaseDedupe forgets the gateway message id after a failed ingest. The
// mark is taken before persistence, so without the release a gateway
// redelivery of a transiently failed message would be dropped as a duplicate.
func (s *IngestService) releaseDedupe(ctx context.Context, instanceID, gatewayMessageID string) {
	if s.dedupe == nil || gatewayMessageID == "" {
		return
	}
	if err := s.dedupe.Forget(ctx, dedupeKey(instanceID, gatewayMessageID)); err != nil {
		s.logger.Warn("dedupe release failed, redelivery may be dropped",
			zap.String("gateway_message_id", gatewayMessageID), zap.Error(err))
	}
}

func dedupeKey(instanceID, gatewayMessageID string) string {
	return "ingest:msg:" + instanceID + ":" + gatewayMessageID
}

// resolveOrCreateLead runs the resolver cascade and falls back to creating a
// fresh lead. Linked-id chats never become leads directly: their digits are
// not a dialable phone, so they only attach to leads already matchable by
// display name.
func (s *IngestService) resolveOrCreateLead(ctx context.Context, tenantID string, payload InboundMessage) (*domain.Lead, string, error) {
	rawPhone := chatid.ExtractPhoneFromChatID(payload.ChatID)

	if chatid.IsLID(payload.ChatID) {
		if lead := s.resolver.FindLeadByPhoneAndName(ctx, tenantID, rawPhone, payload.SenderName); lead != nil {
			return lead, "", nil
		}
		return nil, SkipReasonLIDUnresolved, nil
	}

	if lead := s.resolver.FindLeadByPhone(ctx, tenantID, rawPhone); lead != nil {
		return lead, "", nil
	}

	parsed := phone.Parse(rawPhone)
	validation := phone.Validate(parsed.LocalNumber, parsed.CountryCode)
	if !validation.Valid {
		s.logger.Warn("creating lead with unvalidated phone",
			zap.String("phone", parsed.FullNumber),
			zap.String("error", validation.Error))
	}

	lead := &domain.Lead{
		TenantID:      tenantID,
		Phone:         parsed.LocalNumber,
		CountryCode:   parsed.CountryCode,
		WhatsappName:  strings.TrimSpace(payload.SenderName),
		FunnelStage:   domain.FunnelStageNew,
		Temperature:   domain.LeadTemperatureCold,
		LastContactAt: timePtr(time.Now().UTC()),
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		// Concurrent webhooks for the same new contact race on the unique
		// phone index; the loser re-resolves the winner's row.
		if isUniqueViolation(err) {
			if existing, gerr := s.leads.GetByPhone(ctx, tenantID, lead.Phone, lead.CountryCode); gerr == nil {
				return existing, "", nil
			}
		}
		return nil, "", err
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
			Name:        lead.WhatsappName,
			Stage:       lead.FunnelStage,
			Source:      "whatsapp_inbound",
		},
	})
	return lead, "", nil
}

func (s *IngestService) getOrCreateConversation(ctx context.Context, instance *domain.GatewayInstance, lead *domain.Lead, chatID string) (*domain.Conversation, error) {
	conversation, err := s.conversations.GetByLeadAndInstance(ctx, instance.TenantID, lead.ID, instance.ID)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	conversation = &domain.Conversation{
		TenantID:   instance.TenantID,
		LeadID:     lead.ID,
		InstanceID: instance.ID,
		ChatID:     chatID,
		Status:     domain.ConversationStatusOpen,
	}
	if err := s.conversations.Create(ctx, conversation); err != nil {
		if isUniqueViolation(err) {
			return s.conversations.GetByLeadAndInstance(ctx, instance.TenantID, lead.ID, instance.ID)
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventConversationOpened,
		TenantID:  instance.TenantID,
		LeadID:    lead.ID,
		Timestamp: time.Now().UTC(),
		Payload: events.ConversationOpenedPayload{
			ConversationID: conversation.ID,
			InstanceID:     instance.ID,
			ChatID:         chatID,
		},
	})
	return conversation, nil
}

// touchLead records the contact moment and backfills the WhatsApp display
// name when the lead does not have one yet.
func (s *IngestService) touchLead(ctx context.Context, lead *domain.Lead, senderName string) {
	lead.LastContactAt = timePtr(time.Now().UTC())
	if lead.WhatsappName == "" && strings.TrimSpace(senderName) != "" {
		lead.WhatsappName = strings.TrimSpace(senderName)
	}
	if err := s.leads.Update(ctx, lead); err != nil {
		s.logger.Warn("lead touch failed", zap.String("lead_id", lead.ID), zap.Error(err))
	}
}

func (s *IngestService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event dispatch failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func timePtr(t time.Time) *time.Time {
	return &t
}
