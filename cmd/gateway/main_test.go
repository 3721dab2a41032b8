package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreflightCORS(t *testing.T) {
	app := NewFiberApp()
	handlerCalled := false
	app.Post("/polar-webhooks", func(c *fiber.Ctx) error {
		handlerCalled = true
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodOptions, "/polar-webhooks", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://app.example.com")
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, http.MethodPost)
	req.Header.Set(fiber.HeaderAccessControlRequestHeaders, "webhook-signature, content-type")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowMethods), http.MethodPost)
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowHeaders), "webhook-signature")
	assert.False(t, handlerCalled, "preflight must not reach the route handler")
}
