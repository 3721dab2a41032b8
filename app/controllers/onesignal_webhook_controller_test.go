package controllers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumoha/webhook-gateway/app/models"
	"github.com/kumoha/webhook-gateway/internal/pkg/onesignal"
	"github.com/kumoha/webhook-gateway/internal/pkg/webhook"
)

type fakeOneSignalRepository struct {
	subscriptions map[string]*models.PushSubscription
	deactivated   map[string]bool
	events        []*models.NotificationEvent
}

func newFakeOneSignalRepository() *fakeOneSignalRepository {
	return &fakeOneSignalRepository{
		subscriptions: make(map[string]*models.PushSubscription),
		deactivated:   make(map[string]bool),
	}
}

func (f *fakeOneSignalRepository) UpsertPushSubscription(sub *models.PushSubscription) error {
	f.subscriptions[sub.ID] = sub
	return nil
}

func (f *fakeOneSignalRepository) DeactivatePushSubscription(id string, unsubscribedAt *time.Time) error {
	f.deactivated[id] = true
	return nil
}

func (f *fakeOneSignalRepository) CreateNotificationEventIfNotExists(event *models.NotificationEvent) (bool, error) {
	f.events = append(f.events, event)
	return true, nil
}

func newOneSignalTestApp(repo onesignal.Repository, recorderRepo webhook.Repository, secret string) *fiber.App {
	app := fiber.New()
	ctl := NewOneSignalWebhookController(onesignal.NewService(repo), webhook.NewRecorder(recorderRepo), secret)
	app.Post("/onesignal-webhooks", ctl.HandleWebhook)
	return app
}

func postOneSignal(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestOneSignalWebhook_SecretInQuery(t *testing.T) {
	repo := newFakeOneSignalRepository()
	recorderRepo := newFakeRecorderRepository()
	app := newOneSignalTestApp(repo, recorderRepo, "s3cret")

	resp := postOneSignal(t, app, "/onesignal-webhooks?secret=s3cret",
		`{"event":"subscription.created","subscription_id":"sub-1","external_user_id":"user-7","platform":"web"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeBody(t, resp)["success"])

	require.Contains(t, repo.subscriptions, "sub-1")
	assert.True(t, repo.subscriptions["sub-1"].IsActive)

	// Without a provider event ID the audit row keys on the payload hash.
	require.Len(t, recorderRepo.events, 1)
	for key := range recorderRepo.events {
		assert.Equal(t, models.WebhookProviderOneSignal, key.provider)
		assert.True(t, strings.HasPrefix(key.eventID, "hash:"))
	}
}

func TestOneSignalWebhook_SecretInHeader(t *testing.T) {
	repo := newFakeOneSignalRepository()
	app := newOneSignalTestApp(repo, newFakeRecorderRepository(), "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/onesignal-webhooks",
		bytes.NewReader([]byte(`{"event":"notification.delivered","notification_id":"ntf-1"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-webhook-secret", "s3cret")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	require.Len(t, repo.events, 1)
	assert.Equal(t, models.NotificationEventDelivered, repo.events[0].EventKind)
}

func TestOneSignalWebhook_InvalidSecret(t *testing.T) {
	repo := newFakeOneSignalRepository()
	recorderRepo := newFakeRecorderRepository()
	app := newOneSignalTestApp(repo, recorderRepo, "s3cret")

	resp := postOneSignal(t, app, "/onesignal-webhooks?secret=wrong",
		`{"event":"subscription.created","subscription_id":"sub-1"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid secret", decodeBody(t, resp)["error"])

	assert.Empty(t, repo.subscriptions)
	assert.Empty(t, recorderRepo.events)
}

func TestOneSignalWebhook_NoSecretConfigured(t *testing.T) {
	repo := newFakeOneSignalRepository()
	app := newOneSignalTestApp(repo, newFakeRecorderRepository(), "")

	resp := postOneSignal(t, app, "/onesignal-webhooks",
		`{"event":"subscription.deleted","subscription_id":"sub-1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.True(t, repo.deactivated["sub-1"])
}

func TestOneSignalWebhook_MalformedPayload(t *testing.T) {
	app := newOneSignalTestApp(newFakeOneSignalRepository(), newFakeRecorderRepository(), "s3cret")

	resp := postOneSignal(t, app, "/onesignal-webhooks?secret=s3cret", `{"event":`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	resp.Body.Close()
}

func TestOneSignalWebhook_UnknownEventType(t *testing.T) {
	app := newOneSignalTestApp(newFakeOneSignalRepository(), newFakeRecorderRepository(), "s3cret")

	resp := postOneSignal(t, app, "/onesignal-webhooks?secret=s3cret", `{"event":"notification.sent","notification_id":"ntf-1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Unhandled event: notification.sent", body["message"])
}
