package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kumoha/webhook-gateway/app/models"
	"github.com/kumoha/webhook-gateway/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// SetupDatabase connects to the Supabase Postgres instance and migrates the
// tables this service owns. subscriptions, orders and general_user_profiles
// belong to the product schema and are managed by its migrations; the gateway
// only writes to them.
func SetupDatabase() {
	dsn := env.GetEnv("SUPABASE_DB_URL", "")
	if dsn == "" {
		// Fallback for local compose setups without a full URL.
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			env.GetEnv("DB_HOST", "127.0.0.1"),
			env.GetEnv("DB_USER", "postgres"),
			env.GetEnv("DB_PASSWORD", "postgres"),
			env.GetEnv("DB_NAME", "postgres"),
			env.GetEnv("DB_PORT", "5432"),
		)
	}

	var err error
	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			DB.AutoMigrate(
				&models.WebhookEvent{},
				&models.PushSubscription{},
				&models.NotificationEvent{},
			)
			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// GetDB returns the shared GORM handle.
func GetDB() *gorm.DB {
	return DB
}
