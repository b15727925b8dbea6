package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/whatsapp-crm/internal/broker"
	"github.com/spec-kit/whatsapp-crm/internal/events"
)

// WebhookService bridges in-process domain events to the AMQP exchange so
// external automations (chatbots, BI, notification senders) can consume them.
type WebhookService struct {
	dispatcher events.Dispatcher
	publisher  *broker.Publisher
	logger     *zap.Logger
}

// NewWebhookService creates the service.
func NewWebhookService(dispatcher events.Dispatcher, publisher *broker.Publisher, logger *zap.Logger) *WebhookService {
	return &WebhookService{dispatcher: dispatcher, publisher: publisher, logger: logger}
}

// RegisterHandlers subscribes the bridge to every outward-facing event type.
func (w *WebhookService) RegisterHandlers() {
	if w.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventLeadCreated,
		events.EventLeadStageChanged,
		events.EventLeadAssigned,
		events.EventMessageReceived,
		events.EventMessageQueued,
		events.EventConversationOpened,
	} {
		w.dispatcher.Subscribe(eventType, w.forward)
	}
}

// forward pushes one event to the broker. Broker failures are logged, not
// propagated: fan-out must never fail the originating request.
func (w *WebhookService) forward(ctx context.Context, event events.Event) error {
	if w.publisher == nil {
		return nil
	}
	if err := w.publisher.Publish(ctx, event); err != nil {
		w.logger.Error("event fan-out failed",
			zap.String("type", string(event.Type)),
			zap.String("tenant_id", event.TenantID),
			zap.Error(err))
	}
	return nil
}
