package controller

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"paper-chat-be/internal/dto"
	"paper-chat-be/internal/pkg/logger"
	"paper-chat-be/internal/pkg/serverutils"
	"paper-chat-be/internal/service"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Links(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type chatController struct {
	service   service.IChatService
	sysLogger logger.ILogger
	timeout   time.Duration
}

func NewChatController(service service.IChatService, sysLogger logger.ILogger, timeout time.Duration) IChatController {
	return &chatController{
		service:   service,
		sysLogger: sysLogger,
		timeout:   timeout,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Post("/chat", c.Chat)
	r.Get("/links", c.Links)
	r.Get("/health", c.Health)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse("Message is required"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse("Message is required"))
	}

	reqCtx := ctx.Context()
	var cancel context.CancelFunc
	var timeoutCtx context.Context = reqCtx
	if c.timeout > 0 {
		timeoutCtx, cancel = context.WithTimeout(reqCtx, c.timeout)
		defer cancel()
	}

	res, err := c.service.Chat(timeoutCtx, &req)
	if err != nil {
		// The failing stage is logged, never exposed to the caller.
		c.sysLogger.Error("chat", "pipeline failed", map[string]interface{}{
			"error": err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(serverutils.ErrorResponse("Failed to process your request. Please try again."))
	}

	return ctx.JSON(res)
}

func (c *chatController) Links(ctx *fiber.Ctx) error {
	res, err := c.service.Links(ctx.Context())
	if err != nil {
		c.sysLogger.Error("chat", "link table load failed", map[string]interface{}{
			"error": err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(serverutils.ErrorResponse("Failed to process your request. Please try again."))
	}
	return ctx.JSON(res)
}

func (c *chatController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}
