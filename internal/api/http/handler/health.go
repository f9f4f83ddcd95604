package handler

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kboni/auth-server/internal/logger"
	"github.com/kboni/auth-server/internal/model"
)

const readinessTimeout = 2 * time.Second

// Health reports liveness and readiness of the server and its backends.
type Health struct {
	checks map[string]model.Pinger
	logger *logger.Logger
}

// NewHealth creates a Health handler that pings every check on readiness.
func NewHealth(checks map[string]model.Pinger, logger *logger.Logger) *Health {
	return &Health{checks: checks, logger: logger}
}

// Live always answers 200 while the process serves requests.
func (h *Health) Live(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// Ready answers 503 naming every backend that failed to respond.
func (h *Health) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var failed []string
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			h.logger.Warn("Health handler: dependency not ready",
				"dependency", name,
				"error", err.Error())
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"failed": failed,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
