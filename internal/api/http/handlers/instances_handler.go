package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/whatsapp-crm/internal/api/dto"
	"github.com/spec-kit/whatsapp-crm/internal/auth"
	"github.com/spec-kit/whatsapp-crm/internal/service"
)

// InstancesHandler exposes gateway instance administration.
type InstancesHandler struct {
	instances *service.InstanceService
}

// NewInstancesHandler constructs handler.
func NewInstancesHandler(instances *service.InstanceService) *InstancesHandler {
	return &InstancesHandler{instances: instances}
}

// Register handles POST /instances.
func (h *InstancesHandler) Register(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.RegisterInstanceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	instance, err := h.instances.RegisterInstance(c.UserContext(), principal.TenantID,
		req.Name, req.Phone, req.BaseURL, req.APIKey)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewInstanceResponse(instance, true),
	})
}

// List handles GET /instances.
func (h *InstancesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	instances, err := h.instances.ListInstances(c.UserContext(), principal.TenantID)
	if err != nil {
		return err
	}

	items := make([]dto.InstanceResponse, 0, len(instances))
	for i := range instances {
		items = append(items, dto.NewInstanceResponse(&instances[i], false))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /instances/:id.
func (h *InstancesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	instance, err := h.instances.GetInstance(c.UserContext(), principal.TenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInstanceResponse(instance, false)})
}
