package middleware_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gradeflow/gradeflow-api/internal/middleware"
)

func correlationApp() *fiber.App {
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(middleware.GetCorrelationID(c))
	})
	return app
}

func TestCorrelationIDGeneratedWhenAbsent(t *testing.T) {
	app := correlationApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	header := resp.Header.Get("X-Correlation-ID")
	require.NotEmpty(t, header)
	_, err = uuid.Parse(header)
	require.NoError(t, err)
}

func TestCorrelationIDPropagatedFromRequest(t *testing.T) {
	app := correlationApp()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "abc-123", resp.Header.Get("X-Correlation-ID"))
}

func TestCorrelationIDFallsBackToRequestID(t *testing.T) {
	app := correlationApp()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "req-77")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "req-77", resp.Header.Get("X-Correlation-ID"))
}
