package onesignal

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/kumoha/webhook-gateway/app/models"
	"github.com/kumoha/webhook-gateway/internal/pkg/webhook"
)

// Service routes OneSignal webhook payloads to their event handlers. The
// notification analytics and push subscription state both key on provider IDs
// so the provider's at-least-once redelivery stays a no-op.
type Service struct {
	repo Repository
}

// NewService creates a OneSignal webhook service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Dispatch resolves the payload's event type to exactly one handler; unknown
// event types are acknowledged, never fatal.
func (s *Service) Dispatch(ctx context.Context, payload *WebhookPayload) webhook.Result {
	switch payload.Event {
	case EventNotificationDelivered:
		return s.recordNotificationEvent(ctx, payload, models.NotificationEventDelivered)
	case EventNotificationClicked:
		return s.recordNotificationEvent(ctx, payload, models.NotificationEventClicked)
	case EventNotificationDismissed:
		return s.recordNotificationEvent(ctx, payload, models.NotificationEventDismissed)
	case EventSubscriptionCreated:
		return s.handleSubscriptionCreated(ctx, payload)
	case EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, payload)
	default:
		log.Printf("[onesignal-webhook] Unhandled event type: %s", payload.Event)
		return webhook.Unhandled(string(payload.Event))
	}
}

// recordNotificationEvent persists one analytics row per
// (notification, kind, device) for delivery and engagement tracking.
func (s *Service) recordNotificationEvent(ctx context.Context, payload *WebhookPayload, kind string) webhook.Result {
	if strings.TrimSpace(payload.NotificationID) == "" {
		log.Printf("[onesignal-webhook] %s event without notification_id", kind)
		return webhook.Failure("No notification_id in payload")
	}

	event := &models.NotificationEvent{
		NotificationID: payload.NotificationID,
		EventKind:      kind,
		SubscriptionID: payload.SubscriptionID,
		UserID:         payload.ExternalUserID,
		ActionID:       payload.ActionID,
		URL:            payload.URL,
		OccurredAt:     payload.OccurredAtTime(),
	}
	created, err := s.repo.CreateNotificationEventIfNotExists(event)
	if err != nil {
		log.Printf("[onesignal-webhook] Failed to record %s event: %v", kind, err)
		return webhook.Failure(err.Error())
	}
	if !created {
		log.Printf("[onesignal-webhook] Duplicate %s event for notification %s", kind, payload.NotificationID)
	}
	return webhook.OK(fmt.Sprintf("Notification %s: %s", kind, payload.NotificationID))
}

func (s *Service) handleSubscriptionCreated(ctx context.Context, payload *WebhookPayload) webhook.Result {
	if strings.TrimSpace(payload.SubscriptionID) == "" {
		log.Printf("[onesignal-webhook] subscription.created without subscription_id")
		return webhook.Failure("No subscription_id in payload")
	}
	log.Printf("[onesignal-webhook] Subscription created: %s (user=%s platform=%s)",
		payload.SubscriptionID, payload.ExternalUserID, payload.Platform)

	sub := &models.PushSubscription{
		ID:           payload.SubscriptionID,
		UserID:       payload.ExternalUserID,
		OneSignalID:  payload.OneSignalID,
		Platform:     payload.Platform,
		DeviceType:   payload.DeviceType,
		IsActive:     true,
		SubscribedAt: payload.OccurredAtTime(),
	}
	if err := s.repo.UpsertPushSubscription(sub); err != nil {
		log.Printf("[onesignal-webhook] Failed to record subscription: %v", err)
		return webhook.Failure(err.Error())
	}
	return webhook.OK(fmt.Sprintf("Subscription created: %s", payload.SubscriptionID))
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, payload *WebhookPayload) webhook.Result {
	if strings.TrimSpace(payload.SubscriptionID) == "" {
		log.Printf("[onesignal-webhook] subscription.deleted without subscription_id")
		return webhook.Failure("No subscription_id in payload")
	}
	log.Printf("[onesignal-webhook] Subscription deleted: %s (user=%s)",
		payload.SubscriptionID, payload.ExternalUserID)

	if err := s.repo.DeactivatePushSubscription(payload.SubscriptionID, payload.OccurredAtTime()); err != nil {
		log.Printf("[onesignal-webhook] Failed to deactivate subscription: %v", err)
		return webhook.Failure(err.Error())
	}
	return webhook.OK(fmt.Sprintf("Subscription deleted: %s", payload.SubscriptionID))
}
