package controller

import (
	"academic-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Root(ctx *fiber.Ctx) error
}

type healthController struct {
	healthService service.IHealthService
}

func NewHealthController(healthService service.IHealthService) IHealthController {
	return &healthController{
		healthService: healthService,
	}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
	r.Get("/", c.Root)
}

// Health returns the raw probe shape, not the API envelope, so external
// monitors can consume it directly.
func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(c.healthService.Check(ctx.Context()))
}

func (c *healthController) Root(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"message": "Academic RAG API",
		"status":  "running",
		"version": "1.0.0",
		"endpoints": fiber.Map{
			"chat":      "/api/chat/v1",
			"documents": "/api/document/v1",
			"health":    "/health",
		},
	})
}
