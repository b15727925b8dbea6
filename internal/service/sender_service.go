package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/whatsapp-crm/internal/chatid"
	"github.com/spec-kit/whatsapp-crm/internal/config"
	"github.com/spec-kit/whatsapp-crm/internal/domain"
	"github.com/spec-kit/whatsapp-crm/internal/events"
	"github.com/spec-kit/whatsapp-crm/internal/phone"
	"github.com/spec-kit/whatsapp-crm/internal/repository"
)

// SenderService delivers queued outbound messages to the gateway. It runs off
// the event stream: SendMessage persists QUEUED and publishes, the handler
// here does the HTTP call and flips the status to SENT or FAILED.
type SenderService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	instances     repository.InstanceRepository
	leads         repository.LeadRepository
	client        *http.Client
	fallback      config.GatewayConfig
	logger        *zap.Logger
}

// NewSenderService builds the service. A nil client falls back to a client
// with a conservative timeout.
func NewSenderService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	instances repository.InstanceRepository,
	leads repository.LeadRepository,
	client *http.Client,
	fallback config.GatewayConfig,
	logger *zap.Logger,
) *SenderService {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SenderService{
		conversations: conversations,
		messages:      messages,
		instances:     instances,
		leads:         leads,
		client:        client,
		fallback:      fallback,
		logger:        logger,
	}
}

// RegisterHandlers subscribes the sender to queued-message events.
func (s *SenderService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventMessageQueued, s.handleQueued)
}

func (s *SenderService) handleQueued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MessageQueuedPayload)
	if !ok {
		return errors.New("unexpected payload for message_queued")
	}

	err := s.deliver(ctx, event.TenantID, payload)
	status := domain.MessageStatusSent
	if err != nil {
		status = domain.MessageStatusFailed
		s.logger.Error("outbound delivery failed",
			zap.String("message_id", payload.MessageID),
			zap.Error(err))
	}
	if uerr := s.messages.UpdateStatus(ctx, event.TenantID, payload.MessageID, status); uerr != nil {
		s.logger.Error("message status update failed",
			zap.String("message_id", payload.MessageID),
			zap.Error(uerr))
	}
	// Delivery failures are terminal for this attempt; the message row keeps
	// FAILED and the agent retries from the inbox.
	return nil
}

func (s *SenderService) deliver(ctx context.Context, tenantID string, payload events.MessageQueuedPayload) error {
	msg, err := s.messages.GetByID(ctx, tenantID, payload.MessageID)
	if err != nil {
		return err
	}
	conversation, err := s.conversations.GetByID(ctx, tenantID, payload.ConversationID)
	if err != nil {
		return err
	}
	instance, err := s.instances.GetByID(ctx, conversation.InstanceID)
	if err != nil {
		return err
	}

	chatID := conversation.ChatID
	if chatID == "" {
		lead, err := s.leads.GetByID(ctx, tenantID, conversation.LeadID)
		if err != nil {
			return err
		}
		chatID = chatid.BuildChatID(phone.ToWhatsAppFormat(lead.Phone, lead.CountryCode))
	}

	baseURL := instance.BaseURL
	apiKey := instance.APIKey
	if baseURL == "" {
		baseURL = s.fallback.BaseURL
		apiKey = s.fallback.APIKey
	}
	if baseURL == "" {
		return errors.New("no gateway configured for instance")
	}

	body, err := json.Marshal(map[string]string{
		"chat_id": chatID,
		"text":    msg.Content,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/send/text", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return nil
}
