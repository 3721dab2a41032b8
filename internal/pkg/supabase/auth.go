package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kumoha/webhook-gateway/internal/pkg/env"
)

// ErrInvalidToken reports a bearer token the auth server rejected.
var ErrInvalidToken = errors.New("invalid or expired token")

// AuthClient verifies user JWTs against the Supabase auth endpoint. The
// gateway never mints or parses tokens itself; token validity is whatever the
// auth server says it is.
type AuthClient struct {
	BaseURL        string
	ServiceRoleKey string

	HTTPClient *http.Client
}

// User is the subset of the auth user record the gateway cares about.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// NewAuthClientFromEnv builds an auth client from SUPABASE_URL and
// SUPABASE_SERVICE_ROLE_KEY.
func NewAuthClientFromEnv() *AuthClient {
	return &AuthClient{
		BaseURL:        strings.TrimRight(strings.TrimSpace(env.GetEnv("SUPABASE_URL", "")), "/"),
		ServiceRoleKey: strings.TrimSpace(env.GetEnv("SUPABASE_SERVICE_ROLE_KEY", "")),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetUser resolves a bearer token to the authenticated user. Returns
// ErrInvalidToken when the auth server rejects it.
func (c *AuthClient) GetUser(ctx context.Context, token string) (*User, error) {
	if strings.TrimSpace(c.BaseURL) == "" || strings.TrimSpace(c.ServiceRoleKey) == "" {
		return nil, errors.New("SUPABASE_URL/SUPABASE_SERVICE_ROLE_KEY are not configured")
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.ServiceRoleKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("auth user request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, err
	}
	if strings.TrimSpace(user.ID) == "" {
		return nil, ErrInvalidToken
	}
	return &user, nil
}
