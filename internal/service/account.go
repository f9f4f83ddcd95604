package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kboni/auth-server/internal/logger"
	"github.com/kboni/auth-server/internal/model"
)

// Accounts manages an authenticated user's own account.
type Accounts struct {
	users  model.UserStore
	hasher model.PasswordHasher
	logger *logger.Logger
}

func NewAccounts(users model.UserStore, hasher model.PasswordHasher, logger *logger.Logger) *Accounts {
	return &Accounts{users: users, hasher: hasher, logger: logger}
}

// ChangePassword replaces the password of user after checking the old one.
func (a *Accounts) ChangePassword(ctx context.Context, user model.User, oldPassword, newPassword string) error {
	const op = "account change password"

	if !a.hasher.Verify(user.PasswordHash, oldPassword) {
		return rejectWith(a.logger, "Accounts", op,
			fmt.Errorf("%w: wrong password", model.ErrMismatch), "user_id", user.ID)
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := a.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return rejectWith(a.logger, "Accounts", op, model.ErrNotFound, "user_id", user.ID)
		}
		a.logger.Error("Accounts: failed to update password",
			"user_id", user.ID,
			"error", err.Error())
		return fmt.Errorf("failed to update password: %w", err)
	}

	a.logger.Info("Accounts: password changed", "user_id", user.ID)

	return nil
}

// Delete removes the account of user.
func (a *Accounts) Delete(ctx context.Context, user model.User) error {
	if err := a.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return rejectWith(a.logger, "Accounts", "account delete", model.ErrNotFound, "user_id", user.ID)
		}
		a.logger.Error("Accounts: failed to delete user",
			"user_id", user.ID,
			"error", err.Error())
		return fmt.Errorf("failed to delete user: %w", err)
	}

	a.logger.Info("Accounts: user deleted", "user_id", user.ID)

	return nil
}
