package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/quickdesk/internal/api/http/handlers"
	"github.com/quickdesk/quickdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	protected.Get("/categories", cfg.Admin.ListCategories)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", auth.RequireAdmin(), cfg.Tickets.Edit)
	tickets.Delete("/:id", auth.RequireAdmin(), cfg.Tickets.Delete)
	tickets.Patch("/:id/status", auth.RequireAgent(), cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/assign", auth.RequireAgent(), cfg.Tickets.Assign)
	tickets.Post("/:id/vote", cfg.Tickets.Vote)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/activity", cfg.Tickets.ListActivity)
	tickets.Post("/:id/escalate", auth.RequireAgent(), cfg.Tickets.Escalate)
	tickets.Get("/:id/escalations", cfg.Tickets.ListEscalations)

	admin := protected.Group("/admin", auth.RequireAdmin())
	admin.Post("/users", cfg.Admin.CreateUser)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Patch("/users/:id", cfg.Admin.UpdateUser)
	admin.Delete("/users/:id", cfg.Admin.DeleteUser)
	admin.Post("/categories", cfg.Admin.CreateCategory)
	admin.Put("/categories/:id", cfg.Admin.UpdateCategory)
	admin.Delete("/categories/:id", cfg.Admin.DeleteCategory)
	admin.Post("/tickets/auto-assign", cfg.Admin.AutoAssign)
}
