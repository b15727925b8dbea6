package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/whatsapp-crm/internal/api/dto"
	"github.com/spec-kit/whatsapp-crm/internal/repository"
	"github.com/spec-kit/whatsapp-crm/internal/service"
)

// WebhookHandler receives gateway message callbacks. It is the only
// unauthenticated write surface, guarded by the per-instance webhook token.
type WebhookHandler struct {
	instances repository.InstanceRepository
	ingest    *service.IngestService
	logger    *zap.Logger
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(instances repository.InstanceRepository, ingest *service.IngestService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{instances: instances, ingest: ingest, logger: logger}
}

// Receive handles POST /webhooks/gateway/:instance.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	instanceID := c.Params("instance")
	instance, err := h.instances.GetByID(c.Context(), instanceID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fiber.NewError(http.StatusNotFound, "unknown instance")
		}
		return err
	}

	token := c.Get("X-Webhook-Token")
	if instance.WebhookToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(instance.WebhookToken)) != 1 {
		return fiber.NewError(http.StatusUnauthorized, "invalid webhook token")
	}
	if !instance.IsActive {
		return fiber.NewError(http.StatusGone, "instance disabled")
	}

	var req dto.GatewayWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.ChatID == "" {
		return fiber.NewError(http.StatusBadRequest, "chat id required")
	}

	result, err := h.ingest.Ingest(c.UserContext(), instance, service.InboundMessage{
		GatewayMessageID: req.GatewayMessageID,
		ChatID:           req.ChatID,
		SenderName:       req.SenderName,
		Type:             req.Type,
		Content:          req.Content,
		MediaURL:         req.MediaURL,
		FromMe:           req.FromMe,
	})
	if err != nil {
		h.logger.Error("ingest failed",
			zap.String("instance_id", instanceID),
			zap.Error(err))
		return err
	}

	resp := dto.WebhookResponse{Status: "processed"}
	if result.Skipped {
		resp.Status = "skipped"
		resp.SkipReason = result.SkipReason
	} else {
		resp.LeadID = result.LeadID
		resp.ConversationID = result.ConversationID
		resp.MessageID = result.MessageID
	}
	return c.JSON(resp)
}
