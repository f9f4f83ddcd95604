package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/kboni/auth-server/internal/logger"
	"github.com/kboni/auth-server/internal/model"
	"github.com/kboni/auth-server/internal/token"
)

const (
	flowRegistration = "registration"
	flowRecovery     = "recovery"
)

// FlowConfig tunes a registration or recovery flow.
type FlowConfig struct {
	// TTL bounds every staged token. Zero means model.DefaultStagingTTL.
	TTL time.Duration
	// Code generates verification codes. Nil means RandomCode.
	Code CodeGenerator
}

// stagedFlow holds the token staging mechanics shared by registration and
// recovery. The staged entry for an e-mail is the only flow state: a token
// with a code is waiting for the code, a token without one is waiting for
// completion.
type stagedFlow struct {
	name    string
	label   string
	codec   *token.StagingCodec
	staging model.StagingStore
	ttl     time.Duration
	code    CodeGenerator
	logger  *logger.Logger
}

func newStagedFlow(name, label string, codec *token.StagingCodec, staging model.StagingStore, cfg FlowConfig, logger *logger.Logger) stagedFlow {
	if cfg.TTL <= 0 {
		cfg.TTL = model.DefaultStagingTTL
	}
	if cfg.Code == nil {
		cfg.Code = RandomCode
	}
	return stagedFlow{
		name:    name,
		label:   label,
		codec:   codec,
		staging: staging,
		ttl:     cfg.TTL,
		code:    cfg.Code,
		logger:  logger,
	}
}

// issueCode stages a fresh code-bearing token for email unless a flow is
// already pending for it.
func (f *stagedFlow) issueCode(ctx context.Context, email string) (int, error) {
	_, err := f.staging.Get(ctx, email)
	switch {
	case err == nil:
		return 0, f.reject("start", model.ErrAlreadyExists, "email", email)
	case !errors.Is(err, model.ErrNotFound):
		return 0, f.unavailable("failed to check pending entry", err, "email", email)
	}

	code, err := f.code()
	if err != nil {
		return 0, err
	}

	staged, err := f.codec.Sign(token.Payload{Flow: f.name, Email: email, Code: code}, f.ttl)
	if err != nil {
		return 0, err
	}

	if err := f.staging.Put(ctx, email, staged, f.ttl); err != nil {
		return 0, f.unavailable("failed to stage code", err, "email", email)
	}

	f.logger.Info(f.label+": code issued", "email", email)

	return code, nil
}

// exchangeCode trades a matching code for a code-free token. The staged entry
// is left untouched on any rejection.
func (f *stagedFlow) exchangeCode(ctx context.Context, email string, code int) (string, error) {
	const op = "continue"

	staged, err := f.staging.Get(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", f.reject(op, model.ErrNotFound, "email", email)
		}
		return "", f.unavailable("failed to get staged entry", err, "email", email)
	}

	payload, err := f.codec.Verify(staged)
	if err != nil {
		return "", f.reject(op, err, "email", email)
	}

	if payload.Flow != f.name || payload.Email != email {
		return "", f.reject(op, fmt.Errorf("%w: staged token belongs to another flow", model.ErrMismatch), "email", email)
	}

	if code < minCode || code > maxCode || subtle.ConstantTimeEq(int32(payload.Code), int32(code)) != 1 {
		return "", f.reject(op, fmt.Errorf("%w: wrong code", model.ErrMismatch), "email", email)
	}

	if err := f.staging.Delete(ctx, email); err != nil {
		return "", f.unavailable("failed to drop code entry", err, "email", email)
	}

	confirmed, err := f.codec.Sign(token.Payload{Flow: f.name, Email: email}, f.ttl)
	if err != nil {
		return "", err
	}

	if err := f.staging.Put(ctx, email, confirmed, f.ttl); err != nil {
		return "", f.unavailable("failed to stage confirmed token", err, "email", email)
	}

	f.logger.Info(f.label+": code confirmed", "email", email)

	return confirmed, nil
}

// redeem checks that tokenString is the currently staged completion token
// and returns the e-mail it was issued for. It does not consume the entry.
func (f *stagedFlow) redeem(ctx context.Context, tokenString string) (string, error) {
	const op = "complete"

	payload, err := f.codec.Verify(tokenString)
	if err != nil {
		return "", f.reject(op, err)
	}

	if payload.Flow != f.name || payload.Code != 0 || payload.Email == "" {
		return "", f.reject(op, fmt.Errorf("%w: token is not a completion token", model.ErrMismatch), "email", payload.Email)
	}

	staged, err := f.staging.Get(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", f.reject(op, model.ErrNotFound, "email", payload.Email)
		}
		return "", f.unavailable("failed to get staged entry", err, "email", payload.Email)
	}

	if subtle.ConstantTimeCompare([]byte(staged), []byte(tokenString)) != 1 {
		return "", f.reject(op, fmt.Errorf("%w: token superseded", model.ErrMismatch), "email", payload.Email)
	}

	return payload.Email, nil
}

// release drops the staged entry for email once a flow is done with it.
func (f *stagedFlow) release(ctx context.Context, email string) error {
	if err := f.staging.Delete(ctx, email); err != nil {
		return f.unavailable("failed to release staged entry", err, "email", email)
	}
	return nil
}

// reject logs reason and returns it as a uniform rejection.
func (f *stagedFlow) reject(step string, reason error, args ...any) error {
	return rejectWith(f.logger, f.label, f.name+" "+step, reason, args...)
}

func (f *stagedFlow) unavailable(msg string, err error, args ...any) error {
	f.logger.Error(f.label+": "+msg, append(args, "error", err.Error())...)
	return fmt.Errorf("%s: %w", msg, err)
}

// rejectWith logs reason at a level picked from its kind and wraps it in a
// model.RejectError.
func rejectWith(l *logger.Logger, label, op string, reason error, args ...any) error {
	args = append(args, "op", op, "reason", reason.Error())

	switch {
	case errors.Is(reason, model.ErrExpired):
		l.Warn(label+": token expired", args...)
	case errors.Is(reason, model.ErrInvalidSignature):
		l.Error(label+": invalid token signature", args...)
	default:
		l.Info(label+": request rejected", args...)
	}

	return model.NewRejectError(op, reason)
}
