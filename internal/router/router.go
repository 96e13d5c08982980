package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hridoy-islam/watenycollage-sub000/internal/config"
	"github.com/hridoy-islam/watenycollage-sub000/internal/handler"
	"github.com/hridoy-islam/watenycollage-sub000/internal/middleware"
	"github.com/hridoy-islam/watenycollage-sub000/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	MaterialHandler   *handler.MaterialHandler
	UploadHandler     *handler.UploadHandler
	JWTMiddleware     fiber.Handler
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

	staffOnly := middleware.RequireStaff()

	coursework := app.Group("/api/v2/coursework", jwtMiddleware)

	if deps.AssignmentHandler != nil {
		assignments := coursework.Group("/assignments")
		assignments.Use(middleware.RateLimit("coursework", 30, time.Minute))
		deps.AssignmentHandler.Register(assignments, staffOnly)
	}

	if deps.MaterialHandler != nil {
		materials := coursework.Group("/materials")
		deps.MaterialHandler.Register(materials, staffOnly)
	}

	if deps.UploadHandler != nil {
		uploads := app.Group("/api/v2/uploads", jwtMiddleware)
		uploads.Use(middleware.RateLimit("uploads", 10, time.Minute))
		deps.UploadHandler.Register(uploads)
	}
}
