package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kboni/auth-server/internal/logger"
	"github.com/kboni/auth-server/internal/model"
	"github.com/kboni/auth-server/internal/token"
)

const (
	TokenTypeRefresh = "refresh_token"
	TokenTypeAccess  = "access_token"
)

// SessionConfig sets session token lifetimes. Zero values fall back to
// model.DefaultAccessTTL and model.DefaultRefreshTTL.
type SessionConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Sessions issues and verifies refresh and access tokens.
type Sessions struct {
	codec      *token.SessionCodec
	users      model.UserStore
	hasher     model.PasswordHasher
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *logger.Logger
}

func NewSessions(codec *token.SessionCodec, users model.UserStore, hasher model.PasswordHasher, cfg SessionConfig, logger *logger.Logger) *Sessions {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = model.DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = model.DefaultRefreshTTL
	}
	return &Sessions{
		codec:      codec,
		users:      users,
		hasher:     hasher,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		logger:     logger,
	}
}

// IssueRefresh signs a long lived refresh token for user.
func (s *Sessions) IssueRefresh(user model.User) (string, error) {
	refresh, err := s.codec.Sign(token.Payload{Type: TokenTypeRefresh, UserID: user.ID}, s.refreshTTL)
	if err != nil {
		s.logger.Error("Sessions: failed to sign refresh token",
			"user_id", user.ID,
			"error", err.Error())
		return "", err
	}
	return refresh, nil
}

// IssueAccess trades a valid refresh token for a short lived access token
// carrying the same user id.
func (s *Sessions) IssueAccess(refresh string) (string, error) {
	const op = "session issue access"

	payload, err := s.codec.Verify(refresh)
	if err != nil {
		return "", rejectWith(s.logger, "Sessions", op, err)
	}
	if payload.Type != TokenTypeRefresh || payload.UserID == 0 {
		return "", rejectWith(s.logger, "Sessions", op,
			fmt.Errorf("%w: not a refresh token", model.ErrMismatch), "type", payload.Type)
	}

	access, err := s.codec.Sign(token.Payload{Type: TokenTypeAccess, UserID: payload.UserID}, s.accessTTL)
	if err != nil {
		s.logger.Error("Sessions: failed to sign access token",
			"user_id", payload.UserID,
			"error", err.Error())
		return "", err
	}

	s.logger.Debug("Sessions: access token issued", "user_id", payload.UserID)

	return access, nil
}

// VerifySession resolves an access token to the user it was issued for.
func (s *Sessions) VerifySession(ctx context.Context, access string) (model.User, error) {
	const op = "session verify"

	payload, err := s.codec.Verify(access)
	if err != nil {
		return model.User{}, rejectWith(s.logger, "Sessions", op, err)
	}
	if payload.Type != TokenTypeAccess || payload.UserID == 0 {
		return model.User{}, rejectWith(s.logger, "Sessions", op,
			fmt.Errorf("%w: not an access token", model.ErrMismatch), "type", payload.Type)
	}

	user, err := s.users.GetByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, rejectWith(s.logger, "Sessions", op, model.ErrNotFound, "user_id", payload.UserID)
		}
		s.logger.Error("Sessions: failed to get user",
			"user_id", payload.UserID,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// CheckCredentials returns the user whose stored hash matches password.
func (s *Sessions) CheckCredentials(ctx context.Context, username, password string) (model.User, error) {
	const op = "session check credentials"

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, rejectWith(s.logger, "Sessions", op, model.ErrNotFound, "username", username)
		}
		s.logger.Error("Sessions: failed to get user",
			"username", username,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return model.User{}, rejectWith(s.logger, "Sessions", op,
			fmt.Errorf("%w: wrong password", model.ErrMismatch), "username", username)
	}

	return user, nil
}

// Login checks the credentials and mints the first refresh and access pair.
func (s *Sessions) Login(ctx context.Context, username, password string) (model.TokenPair, error) {
	user, err := s.CheckCredentials(ctx, username, password)
	if err != nil {
		return model.TokenPair{}, err
	}

	refresh, err := s.IssueRefresh(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	access, err := s.IssueAccess(refresh)
	if err != nil {
		return model.TokenPair{}, err
	}

	s.logger.Info("Sessions: user logged in",
		"username", username,
		"user_id", user.ID)

	return model.TokenPair{RefreshToken: refresh, AccessToken: access}, nil
}
