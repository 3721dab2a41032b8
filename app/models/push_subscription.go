package models

import "time"

// PushSubscription tracks a device's OneSignal push subscription. Keyed by
// the provider subscription ID; unsubscribing deactivates the row instead of
// deleting it so re-subscription history stays reconstructable.
type PushSubscription struct {
	ID             string     `gorm:"primaryKey;type:varchar(191)" json:"id"`
	UserID         string     `gorm:"type:varchar(191);index" json:"user_id"`
	OneSignalID    string     `gorm:"type:varchar(191)" json:"onesignal_id"`
	Platform       string     `gorm:"type:varchar(32)" json:"platform"`
	DeviceType     *int       `gorm:"default:null" json:"device_type,omitempty"`
	IsActive       bool       `gorm:"default:true;index" json:"is_active"`
	SubscribedAt   *time.Time `gorm:"type:timestamptz;default:null" json:"subscribed_at,omitempty"`
	UnsubscribedAt *time.Time `gorm:"type:timestamptz;default:null" json:"unsubscribed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
