package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/whatsapp-crm/internal/api/http/handlers"
	"github.com/spec-kit/whatsapp-crm/internal/auth"
	"github.com/spec-kit/whatsapp-crm/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Agents         *handlers.AgentsHandler
	Webhooks       *handlers.WebhookHandler
	Leads          *handlers.LeadsHandler
	Conversations  *handlers.ConversationsHandler
	Instances      *handlers.InstancesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Gateway callbacks authenticate with the per-instance webhook token.
	app.Post("/webhooks/gateway/:instance", cfg.Webhooks.Receive)

	authGroup := app.Group("/auth")
	authGroup.Post("/agents/register", cfg.Agents.Register)
	authGroup.Post("/agents/login", cfg.Agents.Login)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	leads := api.Group("/leads")
	leads.Post("/", cfg.Leads.Create)
	leads.Get("/", cfg.Leads.List)
	leads.Get("/:id", cfg.Leads.Get)
	leads.Patch("/:id", cfg.Leads.Update)
	leads.Put("/:id/stage", cfg.Leads.ChangeStage)
	leads.Put("/:id/assignee", cfg.Leads.Assign)

	conversations := api.Group("/conversations")
	conversations.Get("/", cfg.Conversations.List)
	conversations.Get("/:id", cfg.Conversations.Get)
	conversations.Get("/:id/messages", cfg.Conversations.Messages)
	conversations.Post("/:id/messages", cfg.Conversations.SendMessage)
	conversations.Put("/:id/read", cfg.Conversations.MarkRead)
	conversations.Put("/:id/status", cfg.Conversations.UpdateStatus)

	api.Get("/media/:id/url", cfg.Conversations.MediaURL)

	instances := api.Group("/instances", auth.RequireRole(domain.AgentRoleAdmin))
	instances.Post("/", cfg.Instances.Register)
	instances.Get("/", cfg.Instances.List)
	instances.Get("/:id", cfg.Instances.Get)
}
