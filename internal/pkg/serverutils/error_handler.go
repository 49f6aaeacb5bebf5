package serverutils

import (
	"errors"

	"academic-rag-be/internal/repository/contract"
	"academic-rag-be/pkg/agent"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ErrorHandlerMiddleware converts errors bubbled out of controllers into
// the standard response envelope. Raw error strings stay in the logs;
// clients get the mapped message only.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			resp := ErrorResponse(fiber.StatusBadRequest, "Validation failed")
			resp.Data = validationErr.Fields
			return ctx.Status(fiber.StatusBadRequest).JSON(resp)
		}

		var orchErr *agent.OrchestrationError
		if errors.As(err, &orchErr) {
			return ctx.Status(fiber.StatusServiceUnavailable).
				JSON(ErrorResponse(fiber.StatusServiceUnavailable, orchErr.Message))
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).
				JSON(ErrorResponse(fiber.StatusNotFound, "Resource not found"))
		}

		if errors.Is(err, contract.ErrDuplicateFilename) {
			return ctx.Status(fiber.StatusConflict).
				JSON(ErrorResponse(fiber.StatusConflict, "A document with this filename already exists"))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse(fiber.StatusInternalServerError, "Internal server error"))
	}
}
