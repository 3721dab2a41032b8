package controllers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kumoha/webhook-gateway/app/models"
	"github.com/kumoha/webhook-gateway/internal/pkg/polar"
	"github.com/kumoha/webhook-gateway/internal/pkg/webhook"
)

// PolarWebhookController handles POST /polar-webhooks. The service,
// recorder and secret are injected once at process start.
type PolarWebhookController struct {
	svc      *polar.Service
	recorder *webhook.Recorder
	secret   string
}

func NewPolarWebhookController(svc *polar.Service, recorder *webhook.Recorder, webhookSecret string) *PolarWebhookController {
	return &PolarWebhookController{svc: svc, recorder: recorder, secret: webhookSecret}
}

// HandleWebhook verifies, parses, records and dispatches one Polar delivery.
// Verification failures stop before any side effect; handler failures map to
// 500 so the provider redelivers.
func (ctl *PolarWebhookController) HandleWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	if strings.TrimSpace(ctl.secret) == "" {
		log.Print("[polar-webhook] POLAR_WEBHOOK_SECRET not configured")
		return respondError(c, fiber.StatusInternalServerError, "Webhook secret not configured")
	}

	webhookID := strings.TrimSpace(c.Get("webhook-id"))
	timestamp := strings.TrimSpace(c.Get("webhook-timestamp"))
	signature := strings.TrimSpace(c.Get("webhook-signature"))

	if !polar.VerifyWebhookSignature(rawBody, webhookID, timestamp, signature, ctl.secret) {
		log.Print("[polar-webhook] Invalid signature")
		return respondError(c, fiber.StatusUnauthorized, "Invalid signature")
	}

	envelope, err := polar.ParseEnvelope(rawBody)
	if err != nil {
		log.Printf("[polar-webhook] Error: %v", err)
		return respondError(c, fiber.StatusInternalServerError, err.Error())
	}
	log.Printf("[polar-webhook] Received event: %s", envelope.Type)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Audit trail only; a failed audit write must not drop the delivery.
	created, stored, err := ctl.recorder.Record(ctx, webhook.EventInput{
		Provider:        models.WebhookProviderPolar,
		ProviderEventID: webhookID,
		EventType:       string(envelope.Type),
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		log.Printf("[polar-webhook] Failed to record delivery: %v", err)
	} else if !created {
		log.Printf("[polar-webhook] Duplicate delivery: %s", webhookID)
	}

	result := ctl.svc.Dispatch(ctx, envelope)
	countDelivery(models.WebhookProviderPolar, string(envelope.Type), result.Success)

	if stored != nil {
		if err := ctl.recorder.MarkProcessed(ctx, stored.ID, result.Err()); err != nil {
			log.Printf("[polar-webhook] Failed to mark delivery processed: %v", err)
		}
	}
	return respondResult(c, result)
}
