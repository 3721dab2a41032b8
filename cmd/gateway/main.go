package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/kumoha/webhook-gateway/app/controllers"
	"github.com/kumoha/webhook-gateway/internal/pkg/cache"
	"github.com/kumoha/webhook-gateway/internal/pkg/database"
	"github.com/kumoha/webhook-gateway/internal/pkg/env"
	"github.com/kumoha/webhook-gateway/internal/pkg/onesignal"
	"github.com/kumoha/webhook-gateway/internal/pkg/polar"
	"github.com/kumoha/webhook-gateway/internal/pkg/router"
	"github.com/kumoha/webhook-gateway/internal/pkg/supabase"
	"github.com/kumoha/webhook-gateway/internal/pkg/webhook"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "0.0.0.0"), env.GetEnv("APP_PORT", "8787")))
	log.Fatal(err)
}

// NewApplication wires the gateway: clients and repositories are constructed
// once here and injected downward, nothing else holds SDK singletons.
func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	app := NewFiberApp()
	installRoutes(app, database.GetDB())
	return app
}

// NewFiberApp builds the fiber app with the gateway's middleware stack. Route
// installation is separate so the HTTP surface can be exercised without a
// database connection.
func NewFiberApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "webhook-gateway",
		// Provider webhook payloads are small JSON bodies.
		BodyLimit: 1 << 20,
	})

	app.Use(recover.New(), logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET, POST, OPTIONS",
		AllowHeaders: "authorization, x-client-info, apikey, content-type, webhook-id, webhook-timestamp, webhook-signature, x-webhook-secret",
	}))
	return app
}

func installRoutes(app *fiber.App, db *gorm.DB) {
	recorder := webhook.NewRecorder(webhook.NewRepository(db))
	polarSvc := polar.NewService(polar.NewRepository(db))
	oneSignalSvc := onesignal.NewService(onesignal.NewRepository(db))
	oneSignalClient := onesignal.NewClientFromEnv()
	authClient := supabase.NewAuthClientFromEnv()

	httpRouter := router.NewHttpRouter(
		controllers.NewPolarWebhookController(polarSvc, recorder, env.GetEnv("POLAR_WEBHOOK_SECRET", "")),
		controllers.NewOneSignalWebhookController(oneSignalSvc, recorder, env.GetEnv("ONE_SIGNAL_WEBHOOK_SECRET", "")),
		controllers.NewNotificationController(oneSignalClient),
		authClient,
		env.GetEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
	)
	httpRouter.InstallRouter(app)
}
