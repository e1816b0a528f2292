package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Options настройки HTTP-сервера
type Options struct {
	JWTSecret          string
	RequestTimeout     time.Duration
	CORSOrigins        []string
	RateLimitPerMinute int
	// HealthCheck проверяет зависимости (обычно ping базы); nil означает всегда ok
	HealthCheck func(ctx context.Context) error
}

// NewApp собирает fiber-приложение с middleware и маршрутами /api/v1
func NewApp(svc Services, opts Options, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "lessond",
		DisableStartupMessage: true,
		ErrorHandler:          fiberErrorHandler(logger),
	})

	app.Use(recoveryMiddleware())
	app.Use(requestIDMiddleware())
	app.Use(loggerMiddleware(logger))
	app.Use(corsMiddleware(opts.CORSOrigins))
	if opts.RateLimitPerMinute > 0 {
		app.Use(rateLimiter(opts.RateLimitPerMinute))
	}
	if opts.RequestTimeout > 0 {
		app.Use(timeoutMiddleware(opts.RequestTimeout))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if opts.HealthCheck != nil {
			if err := opts.HealthCheck(c.UserContext()); err != nil {
				logger.Warn("Health check failed", zap.Error(err))
				return errorResponse(c, fiber.StatusServiceUnavailable, "unavailable", "database is not reachable", nil)
			}
		}
		return success(c, "ok", fiber.Map{"status": "ok"})
	})

	h := &handler{svc: svc, logger: logger}

	v1 := app.Group("/api/v1", authMiddleware(opts.JWTSecret))

	lessons := v1.Group("/lessons")
	lessons.Get("/", h.listLessons)
	lessons.Post("/", h.createLesson)
	lessons.Get("/:id", h.getLesson)
	lessons.Patch("/:id", h.updateLesson)
	lessons.Delete("/:id", h.deleteLesson)
	lessons.Post("/:id/enroll", h.enroll)
	lessons.Post("/:id/join", h.join)
	lessons.Post("/:id/leave", h.leave)
	lessons.Post("/:id/feedback", h.submitFeedback)

	teachers := v1.Group("/teachers")
	teachers.Get("/:id/availability", h.getAvailability)
	teachers.Put("/:id/availability", h.setAvailability)
	teachers.Post("/:id/blackouts", h.addBlackout)
	teachers.Delete("/:id/blackouts/:blackoutId", h.deleteBlackout)

	v1.Put("/users/:id/role", h.setUserRole)

	return app
}
