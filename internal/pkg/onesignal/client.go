package onesignal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kumoha/webhook-gateway/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.onesignal.com"

// maxBatchTargets is OneSignal's per-request limit for include_aliases.
const maxBatchTargets = 2000

// LocalizedContent maps language codes to text, e.g. {"en": "Hello"}.
type LocalizedContent map[string]string

// Client calls the OneSignal REST API. Construct once per process and inject.
type Client struct {
	AppID  string
	APIKey string

	APIBaseURL string

	HTTPClient *http.Client
}

// NotificationRequest is the create-notification request body. AppID and
// IdempotencyKey are filled in by the client.
type NotificationRequest struct {
	AppID            string                 `json:"app_id"`
	TargetChannel    string                 `json:"target_channel,omitempty"`
	IncludeAliases   *AliasTargeting        `json:"include_aliases,omitempty"`
	IncludedSegments []string               `json:"included_segments,omitempty"`
	Headings         LocalizedContent       `json:"headings,omitempty"`
	Contents         LocalizedContent       `json:"contents"`
	Data             map[string]interface{} `json:"data,omitempty"`
	URL              string                 `json:"url,omitempty"`
	IdempotencyKey   string                 `json:"idempotency_key,omitempty"`
}

// AliasTargeting addresses recipients by alias; external_id carries the
// internal user ID.
type AliasTargeting struct {
	ExternalID []string `json:"external_id,omitempty"`
}

// NotificationResponse is the create-notification response.
type NotificationResponse struct {
	ID         string   `json:"id"`
	Recipients int      `json:"recipients"`
	ExternalID string   `json:"external_id,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// SendOptions is the content portion shared by all targeting helpers.
type SendOptions struct {
	Headings LocalizedContent
	Contents LocalizedContent
	Data     map[string]interface{}
	URL      string
}

// NewClientFromEnv builds a client from ONE_SIGNAL_APP_ID / ONE_SIGNAL_API_KEY.
func NewClientFromEnv() *Client {
	return &Client{
		AppID:      strings.TrimSpace(env.GetEnv("ONE_SIGNAL_APP_ID", "")),
		APIKey:     strings.TrimSpace(env.GetEnv("ONE_SIGNAL_API_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("ONE_SIGNAL_API_BASE_URL", defaultAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SendNotification posts a create-notification request. A fresh idempotency
// key is attached so caller-side retries cannot double-send.
func (c *Client) SendNotification(ctx context.Context, req *NotificationRequest) (*NotificationResponse, error) {
	if strings.TrimSpace(c.AppID) == "" || strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("ONE_SIGNAL_APP_ID/ONE_SIGNAL_API_KEY are not configured")
	}
	if len(req.Contents) == 0 {
		return nil, errors.New("contents is required")
	}

	req.AppID = c.AppID
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.APIBaseURL, "/")+"/notifications", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	httpReq.Header.Set("Authorization", "Key "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("onesignal notification request failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var out NotificationResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendToUser targets a single user by external ID (the internal user ID).
func (c *Client) SendToUser(ctx context.Context, externalUserID string, opts SendOptions) (*NotificationResponse, error) {
	if strings.TrimSpace(externalUserID) == "" {
		return nil, errors.New("external user id is required")
	}
	return c.SendNotification(ctx, &NotificationRequest{
		TargetChannel:  "push",
		IncludeAliases: &AliasTargeting{ExternalID: []string{externalUserID}},
		Headings:       opts.Headings,
		Contents:       opts.Contents,
		Data:           opts.Data,
		URL:            opts.URL,
	})
}

// SendToUsers targets up to 2,000 users by external ID.
func (c *Client) SendToUsers(ctx context.Context, externalUserIDs []string, opts SendOptions) (*NotificationResponse, error) {
	if len(externalUserIDs) == 0 {
		return nil, errors.New("at least one external user id is required")
	}
	if len(externalUserIDs) > maxBatchTargets {
		return nil, fmt.Errorf("cannot send to more than %d users at once, use segments instead", maxBatchTargets)
	}
	return c.SendNotification(ctx, &NotificationRequest{
		TargetChannel:  "push",
		IncludeAliases: &AliasTargeting{ExternalID: externalUserIDs},
		Headings:       opts.Headings,
		Contents:       opts.Contents,
		Data:           opts.Data,
		URL:            opts.URL,
	})
}

// SendToSegments targets named OneSignal segments.
func (c *Client) SendToSegments(ctx context.Context, segments []string, opts SendOptions) (*NotificationResponse, error) {
	if len(segments) == 0 {
		return nil, errors.New("at least one segment is required")
	}
	return c.SendNotification(ctx, &NotificationRequest{
		TargetChannel:    "push",
		IncludedSegments: segments,
		Headings:         opts.Headings,
		Contents:         opts.Contents,
		Data:             opts.Data,
		URL:              opts.URL,
	})
}

// SendToAll targets every subscribed user.
func (c *Client) SendToAll(ctx context.Context, opts SendOptions) (*NotificationResponse, error) {
	return c.SendToSegments(ctx, []string{"Subscribed Users"}, opts)
}
