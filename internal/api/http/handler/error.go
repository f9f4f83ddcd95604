package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/kboni/auth-server/internal/logger"
	"github.com/kboni/auth-server/internal/model"
)

const (
	msgInternal   = "Internal server error"
	msgBadRequest = "Missing or malformed request arguments"
)

func message(text string) fiber.Map {
	return fiber.Map{"message": text}
}

// respondError answers rejections with the uniform message and everything
// else with 500.
func respondError(c *fiber.Ctx, lg *logger.Logger, err error, rejected string) error {
	if errors.Is(err, model.ErrRejected) {
		return c.Status(fiber.StatusBadRequest).JSON(message(rejected))
	}

	lg.Error("Handler: request failed",
		"method", c.Method(),
		"path", c.Path(),
		"error", err.Error())

	return c.Status(fiber.StatusInternalServerError).JSON(message(msgInternal))
}
