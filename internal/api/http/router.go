package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/inbox-service/internal/api/http/handlers"
	"github.com/spec-kit/inbox-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Webhooks       *handlers.WebhooksHandler
	Tickets        *handlers.TicketsHandler
	Agents         *handlers.AgentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	webhooks := app.Group("/webhooks")
	webhooks.Get("/meta", cfg.Webhooks.VerifyMeta)
	webhooks.Post("/meta/:endpointId", cfg.Webhooks.ReceiveMeta)
	webhooks.Post("/whatsapp/:endpointId", cfg.Webhooks.ReceiveWhatsApp)

	app.Post("/auth/login", cfg.Agents.Login)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)
	api.Put("/tickets/:id", cfg.Tickets.UpdateTicket)
	api.Post("/tickets/:id/close", cfg.Tickets.CloseTicket)
	api.Delete("/tickets/:id", cfg.Tickets.DeleteTicket)
	api.Get("/tickets/:id/messages", cfg.Tickets.ListMessages)
}
