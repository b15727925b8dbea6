package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/whatsapp-crm/internal/api/dto"
	"github.com/spec-kit/whatsapp-crm/internal/auth"
	"github.com/spec-kit/whatsapp-crm/internal/domain"
	"github.com/spec-kit/whatsapp-crm/internal/service"
)

// ConversationsHandler exposes the agent inbox.
type ConversationsHandler struct {
	conversations *service.ConversationService
	media         *service.MediaService
}

// NewConversationsHandler constructs handler.
func NewConversationsHandler(conversations *service.ConversationService, media *service.MediaService) *ConversationsHandler {
	return &ConversationsHandler{conversations: conversations, media: media}
}

// List handles GET /conversations.
func (h *ConversationsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var status *domain.ConversationStatus
	if v := c.Query("status"); v != "" {
		s := domain.ConversationStatus(v)
		status = &s
	}

	conversations, err := h.conversations.ListConversations(c.UserContext(), principal.TenantID,
		status, queryInt(c, "limit", 20), queryInt(c, "offset", 0))
	if err != nil {
		return err
	}

	items := make([]dto.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		items = append(items, dto.NewConversationResponse(&conversations[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /conversations/:id.
func (h *ConversationsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	conversation, err := h.conversations.GetConversation(c.UserContext(), principal.TenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewConversationResponse(conversation)})
}

// Messages handles GET /conversations/:id/messages.
func (h *ConversationsHandler) Messages(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	messages, err := h.conversations.ListMessages(c.UserContext(), principal.TenantID, c.Params("id"),
		queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		return err
	}

	items := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		items = append(items, dto.NewMessageResponse(&messages[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SendMessage handles POST /conversations/:id/messages.
func (h *ConversationsHandler) SendMessage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	msg, err := h.conversations.SendMessage(c.UserContext(), principal.TenantID, c.Params("id"),
		principal.Agent.ID, req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewMessageResponse(msg)})
}

// MarkRead handles PUT /conversations/:id/read.
func (h *ConversationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	if err := h.conversations.MarkRead(c.UserContext(), principal.TenantID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UpdateStatus handles PUT /conversations/:id/status.
func (h *ConversationsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.UpdateConversationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.conversations.UpdateStatus(c.UserContext(), principal.TenantID, c.Params("id"), req.Status); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MediaURL handles GET /messages/:id/media-url.
func (h *ConversationsHandler) MediaURL(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	url, err := h.media.MediaURL(c.UserContext(), principal.TenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MediaURLResponse{URL: url}})
}
