package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz_NoDatabase(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", handleHealthz)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	app := fiber.New()
	app.Post("/polar-webhooks", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.All("/polar-webhooks", methodNotAllowed)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		resp, err := app.Test(httptest.NewRequest(method, "/polar-webhooks", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, method)
		assert.Equal(t, fiber.MIMEApplicationJSON, resp.Header.Get(fiber.HeaderContentType))
		resp.Body.Close()
	}
}
