package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/whatsapp-crm/internal/api/dto"
	"github.com/spec-kit/whatsapp-crm/internal/auth"
	"github.com/spec-kit/whatsapp-crm/internal/domain"
	"github.com/spec-kit/whatsapp-crm/internal/repository"
	"github.com/spec-kit/whatsapp-crm/internal/service"
)

// LeadsHandler exposes agent-facing lead endpoints.
type LeadsHandler struct {
	leads *service.LeadService
}

// NewLeadsHandler constructs handler.
func NewLeadsHandler(leads *service.LeadService) *LeadsHandler {
	return &LeadsHandler{leads: leads}
}

// Create handles POST /leads.
func (h *LeadsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.CreateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Phone == "" {
		return fiber.NewError(http.StatusBadRequest, "phone required")
	}

	lead, err := h.leads.CreateLead(c.UserContext(), principal.TenantID, service.CreateLeadInput{
		Phone:       req.Phone,
		Name:        req.Name,
		Email:       req.Email,
		Stage:       req.Stage,
		Temperature: req.Temperature,
		Labels:      req.Labels,
		Notes:       req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewLeadResponse(lead, h.leads.FormatLeadPhone(lead)),
	})
}

// List handles GET /leads.
func (h *LeadsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	filter := repository.LeadFilter{
		TenantID: principal.TenantID,
		Limit:    queryInt(c, "limit", 20),
		Offset:   queryInt(c, "offset", 0),
	}
	if v := c.Query("stage"); v != "" {
		stage := domain.FunnelStage(v)
		filter.Stage = &stage
	}
	if v := c.Query("temperature"); v != "" {
		temperature := domain.LeadTemperature(v)
		filter.Temperature = &temperature
	}
	if v := c.Query("assigned_to"); v != "" {
		filter.AssignedTo = &v
	}
	if v := c.Query("label"); v != "" {
		filter.Label = &v
	}
	if v := c.Query("q"); v != "" {
		filter.SearchTerm = &v
	}

	leads, err := h.leads.ListLeads(c.UserContext(), filter)
	if err != nil {
		return err
	}

	items := make([]dto.LeadResponse, 0, len(leads))
	for i := range leads {
		items = append(items, dto.NewLeadResponse(&leads[i], h.leads.FormatLeadPhone(&leads[i])))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /leads/:id.
func (h *LeadsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	lead, err := h.leads.GetLead(c.UserContext(), principal.TenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLeadResponse(lead, h.leads.FormatLeadPhone(lead))})
}

// Update handles PATCH /leads/:id.
func (h *LeadsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.UpdateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	lead, err := h.leads.UpdateLead(c.UserContext(), principal.TenantID, c.Params("id"), service.UpdateLeadInput{
		Name:        req.Name,
		Email:       req.Email,
		Temperature: req.Temperature,
		Labels:      req.Labels,
		Notes:       req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLeadResponse(lead, h.leads.FormatLeadPhone(lead))})
}

// ChangeStage handles PUT /leads/:id/stage.
func (h *LeadsHandler) ChangeStage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.ChangeStageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	lead, err := h.leads.ChangeStage(c.UserContext(), principal.TenantID, c.Params("id"), req.Stage)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLeadResponse(lead, h.leads.FormatLeadPhone(lead))})
}

// Assign handles PUT /leads/:id/assignee.
func (h *LeadsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.AssignLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	lead, err := h.leads.AssignLead(c.UserContext(), principal.TenantID, c.Params("id"), req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLeadResponse(lead, h.leads.FormatLeadPhone(lead))})
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	val := c.Query(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
