package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kboni/auth-server/internal/logger"
	"github.com/kboni/auth-server/internal/model"
	"github.com/kboni/auth-server/internal/token"
)

// RegistrationFlow signs up new users in three steps: a mailed code, a
// confirmation token in exchange for that code, and account creation.
type RegistrationFlow struct {
	flow   stagedFlow
	users  model.UserStore
	hasher model.PasswordHasher
	logger *logger.Logger
}

func NewRegistrationFlow(
	codec *token.StagingCodec,
	staging model.StagingStore,
	users model.UserStore,
	hasher model.PasswordHasher,
	cfg FlowConfig,
	logger *logger.Logger,
) *RegistrationFlow {
	return &RegistrationFlow{
		flow:   newStagedFlow(flowRegistration, "Registration flow", codec, staging, cfg, logger),
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// Start issues a code for an e-mail that has no account and no pending flow.
func (r *RegistrationFlow) Start(ctx context.Context, email string) (int, error) {
	r.logger.Debug("Registration flow: starting", "email", email)

	exists, err := r.users.ExistsByEmail(ctx, email)
	if err != nil {
		r.logger.Error("Registration flow: failed to check email",
			"email", email,
			"error", err.Error())
		return 0, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return 0, r.flow.reject("start", model.ErrAlreadyExists, "email", email)
	}

	return r.flow.issueCode(ctx, email)
}

// Continue exchanges the mailed code for the token Complete expects.
func (r *RegistrationFlow) Continue(ctx context.Context, email string, code int) (string, error) {
	r.logger.Debug("Registration flow: continuing", "email", email)

	return r.flow.exchangeCode(ctx, email, code)
}

// Complete creates the account for the e-mail bound to tokenString.
func (r *RegistrationFlow) Complete(ctx context.Context, tokenString, username, password string) (model.User, error) {
	email, err := r.flow.redeem(ctx, tokenString)
	if err != nil {
		return model.User{}, err
	}

	r.logger.Debug("Registration flow: completing",
		"email", email,
		"username", username)

	taken, err := r.users.ExistsByUsername(ctx, username)
	if err != nil {
		r.logger.Error("Registration flow: failed to check username",
			"username", username,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return model.User{}, r.flow.reject("complete", model.ErrAlreadyExists, "username", username)
	}

	hash, err := r.hasher.Hash(password)
	if err != nil {
		return model.User{}, err
	}

	if err := r.flow.release(ctx, email); err != nil {
		return model.User{}, err
	}

	user, err := r.users.Create(ctx, model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return model.User{}, r.flow.reject("complete", model.ErrAlreadyExists, "email", email, "username", username)
		}
		r.logger.Error("Registration flow: failed to create user",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info("Registration flow: user registered",
		"email", email,
		"username", username,
		"user_id", user.ID)

	return user, nil
}
