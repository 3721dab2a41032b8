package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kumoha/webhook-gateway/internal/pkg/cache"
	"github.com/kumoha/webhook-gateway/internal/pkg/supabase"
)

// Locals keys set by ServiceAuthMiddleware.
const (
	KeyAuthUserID      = "AUTH_USER_ID"
	KeyAuthServiceRole = "AUTH_SERVICE_ROLE"
)

const tokenCacheTTL = 5 * time.Minute

// ServiceAuthMiddleware authenticates the send endpoint: the bearer token is
// either the service role key (backend callers) or a user JWT verified
// against the auth server. Verified JWTs are cached briefly to keep repeated
// sends from hammering the auth endpoint.
func ServiceAuthMiddleware(authClient *supabase.AuthClient, serviceRoleKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		if serviceRoleKey != "" &&
			subtle.ConstantTimeCompare([]byte(token), []byte(serviceRoleKey)) == 1 {
			c.Locals(KeyAuthServiceRole, true)
			return c.Next()
		}

		cacheKey := tokenCacheKey(token)
		if userID, err := cache.Get(cacheKey); err == nil && userID != "" {
			c.Locals(KeyAuthUserID, userID)
			return c.Next()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := authClient.GetUser(ctx, token)
		if err != nil {
			if errors.Is(err, supabase.ErrInvalidToken) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
			}
			log.Printf("[auth] token verification failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Auth verification failed"})
		}

		if err := cache.Set(cacheKey, user.ID, tokenCacheTTL); err != nil {
			log.Printf("[auth] failed to cache verified token: %v", err)
		}

		c.Locals(KeyAuthUserID, user.ID)
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// tokenCacheKey hashes the token so raw JWTs never land in the cache keyspace.
func tokenCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:token:" + hex.EncodeToString(sum[:])
}
