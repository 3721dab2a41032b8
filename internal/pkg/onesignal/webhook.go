package onesignal

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// WebhookEventType discriminates OneSignal webhook deliveries.
type WebhookEventType string

const (
	EventNotificationSent      WebhookEventType = "notification.sent"
	EventNotificationDelivered WebhookEventType = "notification.delivered"
	EventNotificationClicked   WebhookEventType = "notification.clicked"
	EventNotificationDismissed WebhookEventType = "notification.dismissed"
	EventSubscriptionCreated   WebhookEventType = "subscription.created"
	EventSubscriptionDeleted   WebhookEventType = "subscription.deleted"
)

var ErrMalformedPayload = errors.New("malformed webhook payload")

// WebhookPayload is the flat event body OneSignal posts. external_user_id
// correlates to the internal user; occurred_at is ISO 8601.
type WebhookPayload struct {
	Event          WebhookEventType       `json:"event"`
	AppID          string                 `json:"app_id,omitempty"`
	NotificationID string                 `json:"notification_id,omitempty"`
	SubscriptionID string                 `json:"subscription_id,omitempty"`
	OneSignalID    string                 `json:"onesignal_id,omitempty"`
	ExternalUserID string                 `json:"external_user_id,omitempty"`
	Heading        string                 `json:"heading,omitempty"`
	Content        string                 `json:"content,omitempty"`
	AdditionalData map[string]interface{} `json:"additional_data,omitempty"`
	ActionID       string                 `json:"action_id,omitempty"`
	URL            string                 `json:"url,omitempty"`
	OccurredAt     string                 `json:"occurred_at,omitempty"`
	DeviceType     *int                   `json:"device_type,omitempty"`
	Platform       string                 `json:"platform,omitempty"`
}

// ParseWebhookPayload decodes the raw body. Fails when the JSON is malformed
// or the event discriminant is absent.
func ParseWebhookPayload(raw []byte) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if strings.TrimSpace(string(payload.Event)) == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}
	return &payload, nil
}

// OccurredAtTime parses the occurred_at timestamp, nil when absent or
// unparseable.
func (p *WebhookPayload) OccurredAtTime() *time.Time {
	if strings.TrimSpace(p.OccurredAt) == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, p.OccurredAt)
	if err != nil {
		return nil
	}
	return &t
}

// VerifyWebhookSecret checks the shared secret OneSignal is configured to
// send, either as a ?secret= query parameter or an x-webhook-secret header.
// OneSignal offers no HMAC signing, so a plain shared secret is as strong as
// this endpoint gets; the Polar endpoint carries the real signature scheme.
func VerifyWebhookSecret(querySecret, headerSecret, expected string) bool {
	if expected == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(querySecret), []byte(expected)) == 1 {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(headerSecret), []byte(expected)) == 1
}
