package onesignal

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kumoha/webhook-gateway/app/models"
)

// Repository provides DB operations used by the OneSignal event handlers.
type Repository interface {
	UpsertPushSubscription(sub *models.PushSubscription) error
	DeactivatePushSubscription(id string, unsubscribedAt *time.Time) error
	CreateNotificationEventIfNotExists(event *models.NotificationEvent) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a OneSignal repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) UpsertPushSubscription(sub *models.PushSubscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"onesignal_id",
			"platform",
			"device_type",
			"is_active",
			"subscribed_at",
			"unsubscribed_at",
			"updated_at",
		}),
	}).Create(sub).Error
}

func (r *gormRepository) DeactivatePushSubscription(id string, unsubscribedAt *time.Time) error {
	if unsubscribedAt == nil {
		now := time.Now()
		unsubscribedAt = &now
	}
	return r.db.Model(&models.PushSubscription{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_active":       false,
		"unsubscribed_at": unsubscribedAt,
		"updated_at":      time.Now(),
	}).Error
}

func (r *gormRepository) CreateNotificationEventIfNotExists(event *models.NotificationEvent) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "notification_id"},
			{Name: "event_kind"},
			{Name: "subscription_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
