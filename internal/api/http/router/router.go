package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/kboni/auth-server/internal/api/http/handler"
	"github.com/kboni/auth-server/internal/api/http/middleware"
	"github.com/kboni/auth-server/internal/logger"
	"github.com/kboni/auth-server/internal/model"
)

// Sessions issues and verifies session tokens.
type Sessions interface {
	handler.SessionService
	middleware.SessionVerifier
}

// Services groups what the routes delegate to.
type Services struct {
	Registration handler.Flow
	Recovery     handler.Flow
	Sessions     Sessions
	Accounts     handler.AccountService
	Mailer       model.Mailer
	Templates    handler.Templates
	Checks       map[string]model.Pinger
}

// Router builds the fiber app exposing the auth API.
type Router struct {
	services       Services
	contextManager model.ContextManager
	logger         *logger.Logger
}

// New creates new HTTP Router instance.
//
// Parameters:
//   - services: The flows, session and account services behind the routes
//   - contextManager: Carries the authenticated user between middleware and handlers
//   - logger: The logger for request logging
//
// Returns a pointer to the newly created Router instance.
func New(services Services, contextManager model.ContextManager, logger *logger.Logger) *Router {
	return &Router{
		services:       services,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register mounts every route and middleware on a new fiber app.
func (r *Router) Register() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	logging := middleware.NewLogging(r.logger)
	app.Use(recover.New(), logging.Handle)

	r.registerAuthRoutes(app)
	r.registerUserRoutes(app)
	r.registerHealthRoutes(app)

	return app
}

func (r *Router) registerAuthRoutes(app *fiber.App) {
	h := handler.NewAuth(
		r.services.Registration,
		r.services.Recovery,
		r.services.Sessions,
		r.services.Mailer,
		r.services.Templates,
		r.logger,
	)

	app.Post("/register", h.Register)
	app.Patch("/recover_password", h.RecoverPassword)
	app.Get("/login", basicauth.New(basicauth.Config{
		Authorizer: func(username, password string) bool {
			return username != "" && password != ""
		},
		Unauthorized: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
		},
	}), h.Login)
	app.Get("/token", h.Token)
}

func (r *Router) registerUserRoutes(app *fiber.App) {
	authenticate := middleware.NewAuthenticate(r.services.Sessions, r.contextManager, r.logger)
	h := handler.NewUser(r.services.Accounts, r.contextManager, r.logger)

	app.Get("/user", authenticate.Handle, h.Get)
	app.Patch("/user", authenticate.Handle, h.ChangePassword)
	app.Delete("/user", authenticate.Handle, h.Delete)
}

func (r *Router) registerHealthRoutes(app *fiber.App) {
	h := handler.NewHealth(r.services.Checks, r.logger)

	app.Get("/healthz", h.Live)
	app.Get("/readyz", h.Ready)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		msg = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{"message": msg})
}
