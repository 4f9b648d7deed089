package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    *ratelimit.IPLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	limited := rateLimitMiddleware(cfg.RateLimiter)
	app.Post("/register", limited, cfg.Auth.Register)
	app.Post("/login", limited, cfg.Auth.Login)

	authn := cfg.AuthMiddleware.Handle
	admin := auth.RequireRole(domain.RoleAdmin)

	app.Get("/users/me", authn, auth.RequireAnyRole(), cfg.Users.Me)
	app.Get("/users", authn, admin, cfg.Users.List)
	app.Get("/user", authn, admin, cfg.Users.GetByEmail)
	app.Put("/users/:id/make-admin", authn, admin, cfg.Users.MakeAdmin)
	app.Put("/users/:id/make-approver", authn, admin, cfg.Users.MakeApprover)

	if cfg.Metrics != nil {
		app.Get("/metrics", authn, admin, cfg.Metrics.Snapshot)
	}
}
