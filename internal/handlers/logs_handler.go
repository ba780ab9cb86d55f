package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skcgolf/skc-api/internal/logging"
)

type LogsHandler struct{}

func NewLogsHandler() *LogsHandler {
	return &LogsHandler{}
}

// List handles GET /management/logs.
func (h *LogsHandler) List(c *fiber.Ctx) error {
	return c.JSON(logging.Levels())
}

// Change handles PUT /management/logs.
func (h *LogsHandler) Change(c *fiber.Ctx) error {
	var req logging.LoggerLevel
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	level, ok := logging.ParseLevel(req.Level)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Unknown level "+req.Level)
	}

	logging.SetLevel(req.Name, level)
	logging.For("web").Info("logger level changed", "name", req.Name, "level", level.String())
	return c.SendStatus(fiber.StatusNoContent)
}
