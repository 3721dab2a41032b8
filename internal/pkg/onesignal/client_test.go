package onesignal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		AppID:      "app-1",
		APIKey:     "key-1",
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
	}, srv
}

func TestSendToUser(t *testing.T) {
	var captured NotificationRequest
	var capturedAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		capturedAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/notifications", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ntf-1","recipients":1}`))
	})

	resp, err := client.SendToUser(context.Background(), "user-7", SendOptions{
		Headings: LocalizedContent{"en": "Hi"},
		Contents: LocalizedContent{"en": "New invoice available"},
		URL:      "https://example.com/billing",
	})
	require.NoError(t, err)
	assert.Equal(t, "ntf-1", resp.ID)
	assert.Equal(t, 1, resp.Recipients)

	assert.Equal(t, "Key key-1", capturedAuth)
	assert.Equal(t, "app-1", captured.AppID)
	assert.Equal(t, "push", captured.TargetChannel)
	require.NotNil(t, captured.IncludeAliases)
	assert.Equal(t, []string{"user-7"}, captured.IncludeAliases.ExternalID)
	assert.NotEmpty(t, captured.IdempotencyKey, "retries must reuse an idempotency key")
}

func TestSendToUsers_BatchLimit(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent when the batch is too large")
	})

	ids := make([]string, maxBatchTargets+1)
	for i := range ids {
		ids[i] = "user"
	}
	_, err := client.SendToUsers(context.Background(), ids, SendOptions{
		Contents: LocalizedContent{"en": "hi"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2000")

	_, err = client.SendToUsers(context.Background(), nil, SendOptions{
		Contents: LocalizedContent{"en": "hi"},
	})
	require.Error(t, err)
}

func TestSendToAll(t *testing.T) {
	var captured NotificationRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"id":"ntf-2","recipients":1204}`))
	})

	resp, err := client.SendToAll(context.Background(), SendOptions{
		Contents: LocalizedContent{"en": "Maintenance tonight"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1204, resp.Recipients)
	assert.Equal(t, []string{"Subscribed Users"}, captured.IncludedSegments)
	assert.Nil(t, captured.IncludeAliases)
}

func TestSendNotification_APIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":["contents[en] is too long"]}`))
	})

	_, err := client.SendNotification(context.Background(), &NotificationRequest{
		Contents: LocalizedContent{"en": "hi"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
}

func TestSendNotification_MissingConfig(t *testing.T) {
	client := &Client{HTTPClient: http.DefaultClient}
	_, err := client.SendNotification(context.Background(), &NotificationRequest{
		Contents: LocalizedContent{"en": "hi"},
	})
	require.Error(t, err)

	client = &Client{AppID: "app-1", APIKey: "key-1", HTTPClient: http.DefaultClient}
	_, err = client.SendNotification(context.Background(), &NotificationRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contents is required")
}
