package worker

import (
	"github.com/spec-kit/whatsapp-crm/internal/events"
	"github.com/spec-kit/whatsapp-crm/internal/service"
)

// StartWebhookWorker registers the AMQP fan-out handlers.
func StartWebhookWorker(webhookService *service.WebhookService) {
	if webhookService == nil {
		return
	}
	webhookService.RegisterHandlers()
}

// StartSenderWorker registers the outbound delivery handlers.
func StartSenderWorker(senderService *service.SenderService, dispatcher events.Dispatcher) {
	if senderService == nil {
		return
	}
	senderService.RegisterHandlers(dispatcher)
}
