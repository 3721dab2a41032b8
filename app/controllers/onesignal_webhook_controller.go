package controllers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kumoha/webhook-gateway/app/models"
	"github.com/kumoha/webhook-gateway/internal/pkg/onesignal"
	"github.com/kumoha/webhook-gateway/internal/pkg/webhook"
)

// OneSignalWebhookController handles POST /onesignal-webhooks. OneSignal has
// no HMAC signing, so authentication is a shared secret in the query string
// or x-webhook-secret header; when no secret is configured verification is
// skipped, matching how the provider side is set up.
type OneSignalWebhookController struct {
	svc      *onesignal.Service
	recorder *webhook.Recorder
	secret   string
}

func NewOneSignalWebhookController(svc *onesignal.Service, recorder *webhook.Recorder, webhookSecret string) *OneSignalWebhookController {
	return &OneSignalWebhookController{svc: svc, recorder: recorder, secret: webhookSecret}
}

func (ctl *OneSignalWebhookController) HandleWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	secretConfigured := strings.TrimSpace(ctl.secret) != ""
	if secretConfigured {
		if !onesignal.VerifyWebhookSecret(c.Query("secret"), c.Get("x-webhook-secret"), ctl.secret) {
			log.Print("[onesignal-webhook] Invalid webhook secret")
			return respondError(c, fiber.StatusUnauthorized, "Invalid secret")
		}
	}

	payload, err := onesignal.ParseWebhookPayload(rawBody)
	if err != nil {
		log.Printf("[onesignal-webhook] Error: %v", err)
		return respondError(c, fiber.StatusInternalServerError, err.Error())
	}
	log.Printf("[onesignal-webhook] Received event: %s", payload.Event)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// OneSignal deliveries carry no event ID; the recorder keys them by
	// payload hash. Audit only, never blocks the delivery.
	created, stored, err := ctl.recorder.Record(ctx, webhook.EventInput{
		Provider:       models.WebhookProviderOneSignal,
		EventType:      string(payload.Event),
		PayloadJSON:    string(rawBody),
		SignatureValid: secretConfigured,
	})
	if err != nil {
		log.Printf("[onesignal-webhook] Failed to record delivery: %v", err)
	} else if !created {
		log.Printf("[onesignal-webhook] Duplicate delivery for event %s", payload.Event)
	}

	result := ctl.svc.Dispatch(ctx, payload)
	countDelivery(models.WebhookProviderOneSignal, string(payload.Event), result.Success)

	if stored != nil {
		if err := ctl.recorder.MarkProcessed(ctx, stored.ID, result.Err()); err != nil {
			log.Printf("[onesignal-webhook] Failed to mark delivery processed: %v", err)
		}
	}
	return respondResult(c, result)
}
