package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/config"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/handler"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/middleware"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ClassHandler       *handler.ClassHandler
	TaskHandler        *handler.TaskHandler
	SubmissionHandler  *handler.SubmissionHandler
	GradingHandler     *handler.GradingHandler
	LeaderboardHandler *handler.LeaderboardHandler
	ActivityHandler    *handler.ActivityHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Class management and class-scoped resources
	if deps.ClassHandler != nil {
		classes := api.Group("/classes", jwtMiddleware)
		deps.ClassHandler.Register(classes)

		classScoped := classes.Group("/:classId")

		if deps.TaskHandler != nil {
			tasks := classScoped.Group("/tasks")
			deps.TaskHandler.Register(tasks)

			if deps.SubmissionHandler != nil {
				deps.SubmissionHandler.RegisterClassRoutes(tasks)
			}
		}

		if deps.GradingHandler != nil {
			deps.GradingHandler.Register(classScoped)
		}

		if deps.LeaderboardHandler != nil {
			deps.LeaderboardHandler.Register(classScoped)
		}
	}

	// Student-facing submissions, rate limited per user
	if deps.SubmissionHandler != nil {
		tasks := api.Group("/tasks", jwtMiddleware, middleware.RateLimit("submissions", 30, time.Minute))
		deps.SubmissionHandler.Register(tasks)
	}

	// Audit trail, teacher only
	if deps.ActivityHandler != nil {
		activity := api.Group("/activity", jwtMiddleware, middleware.RequireRole(models.RoleTeacher))
		deps.ActivityHandler.Register(activity)
	}
}
