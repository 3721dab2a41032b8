package router

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/kumoha/webhook-gateway/app/controllers"
	"github.com/kumoha/webhook-gateway/internal/pkg/constants"
	"github.com/kumoha/webhook-gateway/internal/pkg/database"
	"github.com/kumoha/webhook-gateway/internal/pkg/env"
	"github.com/kumoha/webhook-gateway/internal/pkg/metrics/counter"
	"github.com/kumoha/webhook-gateway/internal/pkg/middleware"
	"github.com/kumoha/webhook-gateway/internal/pkg/supabase"
)

// HttpRouter wires the webhook and send endpoints to their controllers.
// Controllers arrive fully constructed; the router owns only route-level
// middleware (auth, rate limiting).
type HttpRouter struct {
	polarWebhooks     *controllers.PolarWebhookController
	oneSignalWebhooks *controllers.OneSignalWebhookController
	notifications     *controllers.NotificationController
	authClient        *supabase.AuthClient
	serviceRoleKey    string
}

func NewHttpRouter(
	polarWebhooks *controllers.PolarWebhookController,
	oneSignalWebhooks *controllers.OneSignalWebhookController,
	notifications *controllers.NotificationController,
	authClient *supabase.AuthClient,
	serviceRoleKey string,
) *HttpRouter {
	return &HttpRouter{
		polarWebhooks:     polarWebhooks,
		oneSignalWebhooks: oneSignalWebhooks,
		notifications:     notifications,
		authClient:        authClient,
		serviceRoleKey:    serviceRoleKey,
	}
}

func (h *HttpRouter) InstallRouter(app *fiber.App) {
	app.Get(constants.HealthzRoute, handleHealthz)
	app.Get(constants.StatszRoute, handleStatsz)

	app.Post(constants.PolarWebhooksRoute, h.polarWebhooks.HandleWebhook)
	app.All(constants.PolarWebhooksRoute, methodNotAllowed)

	app.Post(constants.OneSignalWebhooksRoute, h.oneSignalWebhooks.HandleWebhook)
	app.All(constants.OneSignalWebhooksRoute, methodNotAllowed)

	// Rate limit outbound sends to protect the OneSignal quota; the limiter
	// state lives in Redis so it holds across instances.
	app.Post(constants.OneSignalSendRoute,
		limiter.New(limiter.Config{
			Max:        60,
			Expiration: time.Minute,
			Storage:    newLimiterStorage(),
		}),
		middleware.ServiceAuthMiddleware(h.authClient, h.serviceRoleKey),
		h.notifications.HandleSend,
	)
	app.All(constants.OneSignalSendRoute, methodNotAllowed)
}

func newLimiterStorage() *redisstorage.Storage {
	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}
	return redisstorage.New(redisstorage.Config{
		Host: env.GetEnv("CACHE_HOST", "localhost"),
		Port: port,
	})
}

func handleHealthz(c *fiber.Ctx) error {
	db := database.GetDB()
	if db != nil {
		if sqlDB, err := db.DB(); err == nil && sqlDB.Ping() == nil {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
		}
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
}

// handleStatsz exposes the Redis delivery counters for operators.
func handleStatsz(c *fiber.Ctx) error {
	stats, err := counter.Snapshot()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Counters unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}

// methodNotAllowed keeps non-POST requests on the webhook paths inside the
// JSON contract instead of fiber's default 405 text response.
func methodNotAllowed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"error": "Method not allowed"})
}
