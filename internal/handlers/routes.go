package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type AppConfig struct {
	Prefix         string // route prefix, "" or e.g. "/api"
	AllowOrigins   string
	DisableLogging bool
}

// NewApp builds the Fiber app with middleware and every route registered.
func NewApp(h *Handler, cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Song Request Board",
		ServerHeader: "SRB",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	if !cfg.DisableLogging {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	allowOrigins := cfg.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	api := app.Group(cfg.Prefix)

	api.Get("/health", h.HealthCheck)

	api.Post("/songs", h.CreateSongRequest)
	api.Get("/songs", h.GetAllSongRequests)

	admin := api.Group("/admin")
	admin.Get("/backups", h.GetBackups)
	admin.Post("/backups", h.CreateBackup)

	api.Get("/stage/status", h.StageStatus)

	return app
}

// errorHandler renders errors that escape a handler (unknown routes,
// recovered panics) in the same {"error": ...} shape as the handlers.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
