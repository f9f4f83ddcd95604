package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kboni/auth-server/internal/logger"
	"github.com/kboni/auth-server/internal/model"
)

// SessionVerifier resolves access tokens to users.
type SessionVerifier interface {
	VerifySession(ctx context.Context, access string) (model.User, error)
}

// Authenticate validates access tokens and injects the user into the request context.
type Authenticate struct {
	verifier       SessionVerifier
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(verifier SessionVerifier, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{verifier: verifier, contextManager: contextManager, logger: logger}
}

// Handle reads "Authorization: [Bearer ]<access>", resolves the user and
// passes the request on with the user in its context.
func (m *Authenticate) Handle(c *fiber.Ctx) error {
	tokenString := strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
	if tokenString == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing authorization token"})
	}

	user, err := m.verifier.VerifySession(c.UserContext(), tokenString)
	if err != nil {
		if errors.Is(err, model.ErrRejected) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid authorization token"})
		}
		m.logger.Error("Authenticate middleware: failed to verify session",
			"path", c.Path(),
			"error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	c.SetUserContext(m.contextManager.SetUserToContext(c.UserContext(), user))

	return c.Next()
}
