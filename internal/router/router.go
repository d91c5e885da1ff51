package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gradeflow/gradeflow-api/internal/config"
	"github.com/gradeflow/gradeflow-api/internal/handler"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	GradingHandler    *handler.GradingHandler
	StatsHandler      *handler.StatsHandler
	ActivityHandler   *handler.ActivityHandler
	JWTMiddleware     fiber.Handler
	AIGradeLimiter    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Assignments
	if deps.AssignmentHandler != nil {
		assignmentGroup := app.Group("/api/v2/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignmentGroup)
	}

	// Submissions and grading share the /submissions prefix
	if deps.SubmissionHandler != nil {
		submissionGroup := app.Group("/api/v2/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissionGroup)

		if deps.GradingHandler != nil {
			deps.GradingHandler.Register(submissionGroup, deps.AIGradeLimiter)
		}
	}

	// Aggregated statistics
	if deps.StatsHandler != nil {
		teacher := app.Group("/api/v2/teacher", jwtMiddleware)
		deps.StatsHandler.RegisterTeacher(teacher)

		if deps.ActivityHandler != nil {
			deps.ActivityHandler.Register(teacher)
		}

		student := app.Group("/api/v2/student", jwtMiddleware)
		deps.StatsHandler.RegisterStudent(student)
	}
}
