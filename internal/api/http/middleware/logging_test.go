package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kboni/auth-server/internal/testutil"
)

func TestLogging_Handle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    fiber.Handler
		wantStatus int
		wantLog    string
	}{
		{
			name: "success path",
			handler: func(c *fiber.Ctx) error {
				time.Sleep(10 * time.Millisecond)
				return c.SendStatus(fiber.StatusOK)
			},
			wantStatus: fiber.StatusOK,
			wantLog:    "status=200",
		},
		{
			name: "fiber error keeps code",
			handler: func(c *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTeapot, "short and stout")
			},
			wantStatus: fiber.StatusTeapot,
			wantLog:    "status=418",
		},
		{
			name: "plain error becomes 500",
			handler: func(c *fiber.Ctx) error {
				return errors.New("boom")
			},
			wantStatus: fiber.StatusInternalServerError,
			wantLog:    "HTTP request failed",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lg, buf := testutil.MakeBufferLogger()
			app := fiber.New()
			app.Use(NewLogging(lg).Handle)
			app.Get("/", tt.handler)

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Contains(t, buf.String(), tt.wantLog)
			assert.Contains(t, buf.String(), "path=/")
		})
	}
}
