package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bumex/engagement-service/internal/api/http/handlers"
	"github.com/bumex/engagement-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Projects       *handlers.ProjectsHandler
	Reviews        *handlers.ReviewsHandler
	AdminUsers     *handlers.AdminUsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	otpGroup := authGroup.Group("/otp", cfg.AuthMiddleware.HandlePending)
	otpGroup.Post("/verify", cfg.Auth.VerifyOTP)
	otpGroup.Post("/resend", cfg.Auth.ResendOTP)
	authGroup.Post("/abort", cfg.AuthMiddleware.HandlePending, cfg.Auth.AbortLogin)

	sessionGroup := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	sessionGroup.Get("/session", cfg.Auth.Session)
	sessionGroup.Post("/logout", cfg.Auth.Logout)

	projects := app.Group("/projects", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	projects.Post("", cfg.Projects.Create)
	projects.Get("", cfg.Projects.List)
	projects.Get("/:id", cfg.Projects.Get)
	projects.Put("/:id/team", cfg.Projects.SetTeam)
	projects.Post("/:id/archive", cfg.Projects.Archive)

	projects.Get("/:id/reviews", cfg.Reviews.Summary)
	sections := projects.Group("/:id/sections/:sectionID")
	sections.Get("/review", cfg.Reviews.SectionState)
	sections.Post("/review", cfg.Reviews.Review)
	sections.Post("/unreview", cfg.Reviews.Unreview)
	sections.Post("/signoff", cfg.Reviews.SignOff)
	sections.Delete("/signoff", cfg.Reviews.Unsign)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireDevOrAdmin())
	admin.Post("/users/:id/approve", cfg.AdminUsers.Approve)
	admin.Post("/users/:id/block", cfg.AdminUsers.Block)
	admin.Post("/users/:id/unblock", cfg.AdminUsers.Unblock)
	admin.Post("/users/:id/role", cfg.AdminUsers.ChangeRole)
}
