package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/kumoha/webhook-gateway/internal/pkg/metrics/counter"
	"github.com/kumoha/webhook-gateway/internal/pkg/webhook"
)

// respondResult translates a handler outcome into the HTTP contract:
// success maps to 200, handler failure to 500, body always {success, message}.
func respondResult(c *fiber.Ctx, result webhook.Result) error {
	status := fiber.StatusOK
	if !result.Success {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(result)
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// countDelivery updates the Redis delivery counters. Best-effort: a missing
// cache degrades the stats endpoint, never the ingestion path.
func countDelivery(provider, eventType string, success bool) {
	if err := counter.AddReceived(provider, eventType); err != nil {
		log.Printf("[%s-webhook] Failed to update counters: %v", provider, err)
		return
	}
	if !success {
		if err := counter.AddFailed(provider, eventType); err != nil {
			log.Printf("[%s-webhook] Failed to update counters: %v", provider, err)
		}
	}
}
