package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/routing-engine/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Assignments *handlers.AssignmentHandler
	Rebalance   *handlers.RebalanceHandler
	SLA         *handlers.SLAHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	v1 := app.Group("/v1")
	v1.Post("/assignments", cfg.Assignments.Assign)
	v1.Post("/rebalance", cfg.Rebalance.Rebalance)
	v1.Get("/tickets/:id/sla", cfg.SLA.Status)
	v1.Post("/tickets/:id/first-response", cfg.SLA.FirstResponse)
}
