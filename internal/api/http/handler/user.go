package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kboni/auth-server/internal/logger"
	"github.com/kboni/auth-server/internal/model"
)

// AccountService defines operations on the authenticated user's account.
type AccountService interface {
	ChangePassword(ctx context.Context, user model.User, oldPassword, newPassword string) error
	Delete(ctx context.Context, user model.User) error
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u model.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// User handles /user for the user resolved by the Authenticate middleware.
type User struct {
	accounts       AccountService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewUser creates a new User handler.
func NewUser(accounts AccountService, contextManager model.ContextManager, logger *logger.Logger) *User {
	return &User{accounts: accounts, contextManager: contextManager, logger: logger}
}

func (h *User) current(c *fiber.Ctx) (model.User, bool) {
	return h.contextManager.GetUserFromContext(c.UserContext())
}

// Get returns the authenticated user.
func (h *User) Get(c *fiber.Ctx) error {
	user, ok := h.current(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(message(msgBadRequest))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Success",
		"user":    newUserResponse(user),
	})
}

// ChangePassword replaces the password after checking the old one.
func (h *User) ChangePassword(c *fiber.Ctx) error {
	user, ok := h.current(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(message(msgBadRequest))
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil || req.OldPassword == "" || req.NewPassword == "" {
		return c.Status(fiber.StatusBadRequest).JSON(message(msgBadRequest))
	}

	if err := h.accounts.ChangePassword(c.UserContext(), user, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, model.ErrMismatch) {
			return c.Status(fiber.StatusBadRequest).JSON(message("Incorrect old password"))
		}
		return respondError(c, h.logger, err, "Password couldn't be changed!")
	}

	h.logger.Debug("User handler: password changed", "user_id", user.ID)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Password successfully changed!",
		"user":    newUserResponse(user),
	})
}

// Delete removes the authenticated user's account.
func (h *User) Delete(c *fiber.Ctx) error {
	user, ok := h.current(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(message(msgBadRequest))
	}

	if err := h.accounts.Delete(c.UserContext(), user); err != nil {
		return respondError(c, h.logger, err, "User couldn't be deleted!")
	}

	return c.Status(fiber.StatusOK).JSON(message(fmt.Sprintf("User %s successfully deleted!", user.Username)))
}
