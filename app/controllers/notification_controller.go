package controllers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/kumoha/webhook-gateway/internal/pkg/metrics/counter"
	"github.com/kumoha/webhook-gateway/internal/pkg/onesignal"
)

// SendNotificationRequest is the body of POST /onesignal-send. Target is a
// string for type=user, an array for type=users/segment, absent for type=all.
type SendNotificationRequest struct {
	Type     string                     `json:"type" validate:"required,oneof=user users segment all"`
	Target   json.RawMessage            `json:"target"`
	Headings onesignal.LocalizedContent `json:"headings"`
	Contents onesignal.LocalizedContent `json:"contents" validate:"required,min=1"`
	Data     map[string]interface{}     `json:"data"`
	URL      string                     `json:"url" validate:"omitempty,url"`
}

// NotificationController handles the authenticated push-send endpoint. The
// OneSignal client is injected once at process start.
type NotificationController struct {
	client   *onesignal.Client
	validate *validator.Validate
}

func NewNotificationController(client *onesignal.Client) *NotificationController {
	return &NotificationController{
		client:   client,
		validate: validator.New(),
	}
}

func (ctl *NotificationController) HandleSend(c *fiber.Ctx) error {
	var req SendNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.validate.Struct(&req); err != nil {
		if len(req.Contents) == 0 {
			return respondError(c, fiber.StatusBadRequest, "contents is required")
		}
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	opts := onesignal.SendOptions{
		Headings: req.Headings,
		Contents: req.Contents,
		Data:     req.Data,
		URL:      req.URL,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	var (
		result *onesignal.NotificationResponse
		err    error
	)

	switch req.Type {
	case "user":
		var target string
		if jsonErr := json.Unmarshal(req.Target, &target); jsonErr != nil || target == "" {
			return respondError(c, fiber.StatusBadRequest, "target must be a string for type=user")
		}
		result, err = ctl.client.SendToUser(ctx, target, opts)
	case "users":
		var targets []string
		if jsonErr := json.Unmarshal(req.Target, &targets); jsonErr != nil {
			return respondError(c, fiber.StatusBadRequest, "target must be an array for type=users")
		}
		result, err = ctl.client.SendToUsers(ctx, targets, opts)
	case "segment":
		var segments []string
		if jsonErr := json.Unmarshal(req.Target, &segments); jsonErr != nil {
			return respondError(c, fiber.StatusBadRequest, "target must be an array for type=segment")
		}
		result, err = ctl.client.SendToSegments(ctx, segments, opts)
	case "all":
		result, err = ctl.client.SendToAll(ctx, opts)
	}

	if err != nil {
		log.Printf("[onesignal-send] Error: %v", err)
		return respondError(c, fiber.StatusInternalServerError, err.Error())
	}

	log.Printf("[onesignal-send] Notification sent: type=%s id=%s recipients=%d",
		req.Type, result.ID, result.Recipients)
	if err := counter.AddSent(req.Type, result.Recipients); err != nil {
		log.Printf("[onesignal-send] Failed to update counters: %v", err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}
