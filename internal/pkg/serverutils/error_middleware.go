package serverutils

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware recovers panics and converts unhandled errors into
// the opaque 500 body. Handlers that need specific statuses set them before
// returning.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic recovered: %v", r)
				_ = ctx.Status(fiber.StatusInternalServerError).
					JSON(ErrorResponse("Failed to process your request. Please try again."))
			}
		}()

		if err := ctx.Next(); err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Message))
			}
			return ctx.Status(fiber.StatusInternalServerError).
				JSON(ErrorResponse("Failed to process your request. Please try again."))
		}
		return nil
	}
}
