package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Pricing        *handlers.PricingHandler
	Exchange       *handlers.ExchangeHandler
	Audit          *handlers.AuditHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireRole(), cfg.Auth.ChangePassword)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole())

	tickets := protected.Group("/tickets")
	// CSV interchange routes register before /:id so "export" is not
	// captured as a ticket id.
	tickets.Get("/export", auth.RequireRole(domain.RoleAdmin), cfg.Exchange.Export)
	tickets.Post("/import", auth.RequireRole(domain.RoleAdmin), cfg.Exchange.Import)

	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", auth.RequireRole(domain.RoleTechnician, domain.RoleAdmin), cfg.Tickets.AdvanceStatus)
	tickets.Patch("/:id/assignee", auth.RequireRole(domain.RoleTechnician, domain.RoleAdmin), cfg.Tickets.Assign)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Put("/:id/solution", auth.RequireRole(domain.RoleTechnician, domain.RoleAdmin), cfg.Tickets.SetSolution)

	tickets.Put("/:id/price", auth.RequireRole(domain.RoleTechnician, domain.RoleAdmin), cfg.Pricing.ProposePrice)
	tickets.Post("/:id/price/response", auth.RequireRole(domain.RoleClient), cfg.Pricing.RespondToPrice)
	tickets.Post("/:id/price/payment", auth.RequireRole(domain.RoleClient), cfg.Pricing.PayPrice)

	protected.Get("/transactions", cfg.Pricing.ListTransactions)
	protected.Get("/technicians", auth.RequireRole(domain.RoleTechnician, domain.RoleAdmin), cfg.Tickets.ListTechnicians)
	protected.Get("/profiles", auth.RequireRole(domain.RoleAdmin), cfg.Audit.ListProfiles)
	protected.Get("/audit", auth.RequireRole(domain.RoleAdmin), cfg.Audit.List)
}
