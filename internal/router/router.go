package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-lms-api/internal/config"
	"github.com/noah-isme/gema-lms-api/internal/handler"
	"github.com/noah-isme/gema-lms-api/internal/middleware"
	"github.com/noah-isme/gema-lms-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler   *handler.AssignmentHandler
	SubmissionHandler   *handler.SubmissionHandler
	GradedResultHandler *handler.GradedResultHandler
	CertificateHandler  *handler.CertificateHandler
	ActivityHandler     *handler.ActivityHandler
	HealthChecks        []handler.DependencyCheck
	JWTMiddleware       fiber.Handler
	DisableMetrics      bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	if !deps.DisableMetrics {
		app.Get("/metrics", observability.MetricsHandler())
	}

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks...))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Assignments, submissions and per-assignment result views
	assignments := api.Group("/assignments", jwtMiddleware)
	if deps.SubmissionHandler != nil {
		submitLimiter := middleware.RateLimit("submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow)
		deps.SubmissionHandler.Register(assignments, submitLimiter)
	}
	if deps.GradedResultHandler != nil {
		deps.GradedResultHandler.RegisterAssignmentRoutes(assignments)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(assignments)
	}

	if deps.GradedResultHandler != nil {
		results := api.Group("/graded-results", jwtMiddleware)
		deps.GradedResultHandler.Register(results)
	}

	if deps.CertificateHandler != nil {
		certificates := api.Group("/certificates", jwtMiddleware)
		deps.CertificateHandler.Register(certificates)
	}

	// Audit trail (staff only)
	if deps.ActivityHandler != nil {
		activity := api.Group("/activity", jwtMiddleware, middleware.RequireStaff())
		deps.ActivityHandler.Register(activity)
	}
}
