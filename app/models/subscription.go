package models

import "time"

// Subscription statuses mirror Polar's subscription lifecycle. Revoked
// subscriptions are normalized to canceled before persisting.
const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusIncomplete = "incomplete"
	SubscriptionStatusUnpaid     = "unpaid"
)

// Subscription mirrors a Polar billing subscription. The primary key is the
// provider-assigned subscription ID so redelivered webhooks upsert instead of
// duplicating rows.
type Subscription struct {
	ID                 string     `gorm:"primaryKey;type:varchar(191)" json:"id"`
	UserID             string     `gorm:"type:varchar(191);not null;index" json:"user_id"`
	PolarProductID     string     `gorm:"type:varchar(191)" json:"polar_product_id"`
	PolarPriceID       string     `gorm:"type:varchar(191)" json:"polar_price_id"`
	Status             string     `gorm:"type:varchar(32);not null;default:'incomplete';index" json:"status"`
	CurrentPeriodStart *time.Time `gorm:"type:timestamptz;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `gorm:"type:timestamptz;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
