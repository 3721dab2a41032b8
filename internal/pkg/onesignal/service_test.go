package onesignal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumoha/webhook-gateway/app/models"
	"github.com/kumoha/webhook-gateway/internal/pkg/webhook"
)

type notificationEventKey struct {
	notificationID string
	kind           string
	subscriptionID string
}

type fakeRepository struct {
	subscriptions map[string]*models.PushSubscription
	deactivated   map[string]*time.Time
	events        map[notificationEventKey]*models.NotificationEvent
	failWith      error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		subscriptions: make(map[string]*models.PushSubscription),
		deactivated:   make(map[string]*time.Time),
		events:        make(map[notificationEventKey]*models.NotificationEvent),
	}
}

func (f *fakeRepository) UpsertPushSubscription(sub *models.PushSubscription) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.subscriptions[sub.ID] = sub
	return nil
}

func (f *fakeRepository) DeactivatePushSubscription(id string, unsubscribedAt *time.Time) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.deactivated[id] = unsubscribedAt
	return nil
}

func (f *fakeRepository) CreateNotificationEventIfNotExists(event *models.NotificationEvent) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	key := notificationEventKey{event.NotificationID, event.EventKind, event.SubscriptionID}
	if _, exists := f.events[key]; exists {
		return false, nil
	}
	f.events[key] = event
	return true, nil
}

func dispatch(t *testing.T, repo Repository, body string) webhook.Result {
	t.Helper()
	payload, err := ParseWebhookPayload([]byte(body))
	require.NoError(t, err)
	return NewService(repo).Dispatch(context.Background(), payload)
}

func TestDispatchNotificationDelivered(t *testing.T) {
	repo := newFakeRepository()
	res := dispatch(t, repo, `{"event":"notification.delivered","notification_id":"ntf-1","subscription_id":"sub-1","external_user_id":"user-7"}`)

	assert.True(t, res.Success)
	key := notificationEventKey{"ntf-1", models.NotificationEventDelivered, "sub-1"}
	require.Contains(t, repo.events, key)
	assert.Equal(t, "user-7", repo.events[key].UserID)
}

func TestDispatchNotificationClicked_Redelivery(t *testing.T) {
	repo := newFakeRepository()
	body := `{"event":"notification.clicked","notification_id":"ntf-1","subscription_id":"sub-1","action_id":"open"}`

	first := dispatch(t, repo, body)
	second := dispatch(t, repo, body)

	assert.True(t, first.Success)
	assert.True(t, second.Success, "duplicate delivery still acknowledges")
	assert.Len(t, repo.events, 1)
}

func TestDispatchNotificationEvent_MissingNotificationID(t *testing.T) {
	repo := newFakeRepository()
	res := dispatch(t, repo, `{"event":"notification.dismissed","subscription_id":"sub-1"}`)

	assert.False(t, res.Success)
	assert.Equal(t, "No notification_id in payload", res.Message)
	assert.Empty(t, repo.events)
}

func TestDispatchSubscriptionCreated(t *testing.T) {
	repo := newFakeRepository()
	res := dispatch(t, repo, `{"event":"subscription.created","subscription_id":"sub-1","onesignal_id":"os-1","external_user_id":"user-7","platform":"web","occurred_at":"2026-08-30T10:15:00Z"}`)

	assert.True(t, res.Success)
	require.Contains(t, repo.subscriptions, "sub-1")
	sub := repo.subscriptions["sub-1"]
	assert.True(t, sub.IsActive)
	assert.Equal(t, "user-7", sub.UserID)
	require.NotNil(t, sub.SubscribedAt)
}

func TestDispatchSubscriptionDeleted(t *testing.T) {
	repo := newFakeRepository()
	res := dispatch(t, repo, `{"event":"subscription.deleted","subscription_id":"sub-1","external_user_id":"user-7"}`)

	assert.True(t, res.Success)
	assert.Contains(t, repo.deactivated, "sub-1")
}

func TestDispatchSubscription_MissingID(t *testing.T) {
	for _, eventType := range []string{"subscription.created", "subscription.deleted"} {
		repo := newFakeRepository()
		res := dispatch(t, repo, `{"event":"`+eventType+`","external_user_id":"user-7"}`)

		assert.False(t, res.Success, eventType)
		assert.Equal(t, "No subscription_id in payload", res.Message, eventType)
	}
}

func TestDispatchUnknownEventType(t *testing.T) {
	repo := newFakeRepository()
	res := dispatch(t, repo, `{"event":"notification.sent","notification_id":"ntf-1"}`)

	assert.True(t, res.Success)
	assert.Equal(t, "Unhandled event: notification.sent", res.Message)
	assert.Empty(t, repo.events)
}

func TestDispatchRepositoryError(t *testing.T) {
	repo := newFakeRepository()
	repo.failWith = errors.New("connection reset")

	res := dispatch(t, repo, `{"event":"notification.delivered","notification_id":"ntf-1"}`)

	assert.False(t, res.Success)
	assert.Equal(t, "connection reset", res.Message)
}
