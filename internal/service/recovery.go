package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kboni/auth-server/internal/logger"
	"github.com/kboni/auth-server/internal/model"
	"github.com/kboni/auth-server/internal/token"
)

// RecoveryFlow resets the password of an existing account with the same
// three steps as RegistrationFlow.
type RecoveryFlow struct {
	flow   stagedFlow
	users  model.UserStore
	hasher model.PasswordHasher
	logger *logger.Logger
}

func NewRecoveryFlow(
	codec *token.StagingCodec,
	staging model.StagingStore,
	users model.UserStore,
	hasher model.PasswordHasher,
	cfg FlowConfig,
	logger *logger.Logger,
) *RecoveryFlow {
	return &RecoveryFlow{
		flow:   newStagedFlow(flowRecovery, "Recovery flow", codec, staging, cfg, logger),
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// Start issues a code for an e-mail that belongs to an account.
func (r *RecoveryFlow) Start(ctx context.Context, email string) (int, error) {
	r.logger.Debug("Recovery flow: starting", "email", email)

	exists, err := r.users.ExistsByEmail(ctx, email)
	if err != nil {
		r.logger.Error("Recovery flow: failed to check email",
			"email", email,
			"error", err.Error())
		return 0, fmt.Errorf("failed to check email: %w", err)
	}
	if !exists {
		return 0, r.flow.reject("start", model.ErrNotFound, "email", email)
	}

	return r.flow.issueCode(ctx, email)
}

// Continue exchanges the mailed code for the token Complete expects.
func (r *RecoveryFlow) Continue(ctx context.Context, email string, code int) (string, error) {
	r.logger.Debug("Recovery flow: continuing", "email", email)

	return r.flow.exchangeCode(ctx, email, code)
}

// Complete overwrites the password of the account matching both username and
// the e-mail bound to tokenString.
func (r *RecoveryFlow) Complete(ctx context.Context, tokenString, username, password string) (model.User, error) {
	email, err := r.flow.redeem(ctx, tokenString)
	if err != nil {
		return model.User{}, err
	}

	r.logger.Debug("Recovery flow: completing",
		"email", email,
		"username", username)

	user, err := r.users.FindByUsernameAndEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, r.flow.reject("complete",
				fmt.Errorf("%w: username does not match email", model.ErrMismatch),
				"email", email, "username", username)
		}
		r.logger.Error("Recovery flow: failed to find user",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to find user: %w", err)
	}

	hash, err := r.hasher.Hash(password)
	if err != nil {
		return model.User{}, err
	}

	if err := r.flow.release(ctx, email); err != nil {
		return model.User{}, err
	}

	if err := r.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, r.flow.reject("complete", model.ErrNotFound, "email", email, "user_id", user.ID)
		}
		r.logger.Error("Recovery flow: failed to update password",
			"user_id", user.ID,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to update password: %w", err)
	}
	user.PasswordHash = hash

	r.logger.Info("Recovery flow: password reset",
		"email", email,
		"user_id", user.ID)

	return user, nil
}
