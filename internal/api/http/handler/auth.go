package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/kboni/auth-server/internal/logger"
	"github.com/kboni/auth-server/internal/mail"
	"github.com/kboni/auth-server/internal/model"
)

// Flow defines the three steps of registration and password recovery.
type Flow interface {
	Start(ctx context.Context, email string) (int, error)
	Continue(ctx context.Context, email string, code int) (string, error)
	Complete(ctx context.Context, token, username, password string) (model.User, error)
}

// SessionService defines login and access token refresh.
type SessionService interface {
	Login(ctx context.Context, username, password string) (model.TokenPair, error)
	IssueAccess(refresh string) (string, error)
}

// Templates holds the code mails sent when a flow starts.
type Templates struct {
	Registration mail.Template
	Recovery     mail.Template
}

// Column limits of the users table.
const (
	maxUsernameLen = 32
	maxEmailLen    = 64
)

type flowRequest struct {
	Email            string      `json:"email"`
	RegistrationCode json.Number `json:"registration_code"`
	ConfirmationCode json.Number `json:"confirmation_code"`
	Token            string      `json:"token"`
	Username         string      `json:"username"`
	Password         string      `json:"password"`
}

func (r flowRequest) oversized() bool {
	return utf8.RuneCountInString(r.Username) > maxUsernameLen || utf8.RuneCountInString(r.Email) > maxEmailLen
}

func (r flowRequest) code() json.Number {
	if r.RegistrationCode != "" {
		return r.RegistrationCode
	}
	return r.ConfirmationCode
}

// flowEndpoint binds a Flow to the statuses and messages of its route.
type flowEndpoint struct {
	name           string
	flow           Flow
	template       mail.Template
	startStatus    int
	completeStatus int
	rejected       string
	completed      string
}

// Auth handles registration, password recovery, login and token refresh.
type Auth struct {
	registration flowEndpoint
	recovery     flowEndpoint
	sessions     SessionService
	mailer       model.Mailer
	logger       *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(registration, recovery Flow, sessions SessionService, mailer model.Mailer, templates Templates, logger *logger.Logger) *Auth {
	return &Auth{
		registration: flowEndpoint{
			name:           "registration",
			flow:           registration,
			template:       templates.Registration,
			startStatus:    fiber.StatusCreated,
			completeStatus: fiber.StatusCreated,
			rejected:       "User couldn't be registered!",
			completed:      "User %s successfully registered!",
		},
		recovery: flowEndpoint{
			name:           "recovery",
			flow:           recovery,
			template:       templates.Recovery,
			startStatus:    fiber.StatusOK,
			completeStatus: fiber.StatusOK,
			rejected:       "User's password couldn't be recovered!",
			completed:      "Password of user %s successfully recovered!",
		},
		sessions: sessions,
		mailer:   mailer,
		logger:   logger,
	}
}

// Register dispatches POST /register to the registration step the body describes.
func (h *Auth) Register(c *fiber.Ctx) error {
	return h.dispatch(c, h.registration)
}

// RecoverPassword dispatches PATCH /recover_password to the recovery step the body describes.
func (h *Auth) RecoverPassword(c *fiber.Ctx) error {
	return h.dispatch(c, h.recovery)
}

func (h *Auth) dispatch(c *fiber.Ctx, ep flowEndpoint) error {
	var req flowRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Info("Auth handler: malformed flow request",
			"flow", ep.name,
			"error", err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(message(msgBadRequest))
	}
	if req.oversized() {
		return c.Status(fiber.StatusBadRequest).JSON(message(msgBadRequest))
	}

	switch {
	case req.Email != "" && req.code() != "":
		return h.continueFlow(c, ep, req.Email, req.code())
	case req.Email != "":
		return h.startFlow(c, ep, req.Email)
	case req.Token != "" && req.Username != "" && req.Password != "":
		return h.completeFlow(c, ep, req.Token, req.Username, req.Password)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(message(msgBadRequest))
	}
}

func (h *Auth) startFlow(c *fiber.Ctx, ep flowEndpoint, email string) error {
	ctx := c.UserContext()

	code, err := ep.flow.Start(ctx, email)
	if err != nil {
		return respondError(c, h.logger, err, ep.rejected)
	}

	if err := h.mailer.Send(ctx, ep.template.Render(email, code)); err != nil {
		h.logger.Error("Auth handler: failed to send code",
			"flow", ep.name,
			"email", email,
			"error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(message("Error while sending e-mail"))
	}

	return c.Status(ep.startStatus).JSON(message("E-mail successfully sent"))
}

func (h *Auth) continueFlow(c *fiber.Ctx, ep flowEndpoint, email string, raw json.Number) error {
	code, err := raw.Int64()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(message(msgBadRequest))
	}

	token, err := ep.flow.Continue(c.UserContext(), email, int(code))
	if err != nil {
		return respondError(c, h.logger, err, ep.rejected)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"token": token})
}

func (h *Auth) completeFlow(c *fiber.Ctx, ep flowEndpoint, token, username, password string) error {
	user, err := ep.flow.Complete(c.UserContext(), token, username, password)
	if err != nil {
		return respondError(c, h.logger, err, ep.rejected)
	}

	return c.Status(ep.completeStatus).JSON(message(fmt.Sprintf(ep.completed, user.Username)))
}

// Login mints a refresh and access token pair for basic auth credentials.
func (h *Auth) Login(c *fiber.Ctx) error {
	username, _ := c.Locals("username").(string)
	password, _ := c.Locals("password").(string)

	pair, err := h.sessions.Login(c.UserContext(), username, password)
	if err != nil {
		if errors.Is(err, model.ErrRejected) {
			return c.Status(fiber.StatusUnauthorized).JSON(message("Invalid credentials"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(message(msgInternal))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":       fmt.Sprintf("User %s successfully logged in!", username),
		"refresh_token": pair.RefreshToken,
		"access_token":  pair.AccessToken,
	})
}

// Token trades the refresh token in the Authorization header for a new access token.
func (h *Auth) Token(c *fiber.Ctx) error {
	refresh := bearer(c.Get(fiber.HeaderAuthorization))
	if refresh == "" {
		return c.Status(fiber.StatusBadRequest).JSON(message(msgBadRequest))
	}

	access, err := h.sessions.IssueAccess(refresh)
	if err != nil {
		return respondError(c, h.logger, err, "Access token couldn't be refreshed!")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":      "Access token successfully refreshed!",
		"access_token": access,
	})
}

func bearer(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
