package models

import "time"

const (
	NotificationEventDelivered = "delivered"
	NotificationEventClicked   = "clicked"
	NotificationEventDismissed = "dismissed"
)

// NotificationEvent records delivery analytics for outbound push
// notifications. Unique per (notification, kind, subscription) so provider
// redelivery is a no-op.
type NotificationEvent struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	NotificationID string     `gorm:"type:varchar(191);not null;index:ux_notification_events_delivery,unique,priority:1" json:"notification_id"`
	EventKind      string     `gorm:"type:varchar(20);not null;index:ux_notification_events_delivery,unique,priority:2" json:"event_kind"`
	SubscriptionID string     `gorm:"type:varchar(191);not null;default:'';index:ux_notification_events_delivery,unique,priority:3" json:"subscription_id"`
	UserID         string     `gorm:"type:varchar(191);index" json:"user_id"`
	ActionID       string     `gorm:"type:varchar(100)" json:"action_id"`
	URL            string     `gorm:"type:varchar(500)" json:"url"`
	OccurredAt     *time.Time `gorm:"type:timestamptz;default:null" json:"occurred_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
