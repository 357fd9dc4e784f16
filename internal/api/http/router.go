package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/financing-service/internal/api/http/handlers"
	"github.com/spec-kit/financing-service/internal/auth"
	"github.com/spec-kit/financing-service/internal/domain"
	"github.com/spec-kit/financing-service/internal/realtime"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Applications   *handlers.ApplicationsHandler
	Admin          *handlers.AdminHandler
	Notifications  *handlers.NotificationsHandler
	Realtime       *realtime.Handler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP and realtime routes. The admin application
// listing is one operation exposed under two route groups.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	requireAuth := cfg.AuthMiddleware.Handle
	requireAdmin := cfg.AuthMiddleware.RequireRole(domain.RoleAdmin)

	users := app.Group("/api/users")
	users.Post("/signup", cfg.Users.Signup)
	users.Post("/login", cfg.Users.Login)
	users.Post("/logout", requireAuth, cfg.Users.Logout)
	users.Get("/me", requireAuth, cfg.Users.Me)
	users.Patch("/me", requireAuth, cfg.Users.UpdateMe)
	users.Delete("/me", requireAuth, cfg.Users.DeleteMe)

	applications := app.Group("/api/applications", requireAuth)
	applications.Post("/", cfg.Applications.Submit)
	applications.Get("/my", cfg.Applications.ListMine)
	applications.Get("/", requireAdmin, cfg.Applications.ListAll)
	applications.Patch("/:id/status", requireAdmin, cfg.Applications.UpdateStatus)

	admin := app.Group("/api/admin", requireAuth, requireAdmin)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Patch("/users/:id/role", cfg.Admin.ChangeRole)
	admin.Get("/applications", cfg.Applications.ListAll)

	notifications := app.Group("/api/notifications", requireAuth)
	notifications.Get("/", cfg.Notifications.List)
	notifications.Patch("/mark-all-read", cfg.Notifications.MarkAllRead)
	notifications.Patch("/:id/read", cfg.Notifications.MarkRead)
	notifications.Delete("/:id", cfg.Notifications.Delete)

	// The realtime channel authenticates inside the handshake payload,
	// not through the HTTP middleware.
	app.Use("/ws", cfg.Realtime.UpgradeRequired)
	app.Get("/ws", cfg.Realtime.Serve())
}
