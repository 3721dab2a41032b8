package models

import "time"

const (
	OrderStatusPaid     = "paid"
	OrderStatusRefunded = "refunded"
)

// Order mirrors a one-time Polar purchase. Keyed by the provider order ID;
// refunds are a status update, rows are never deleted.
type Order struct {
	ID             string    `gorm:"primaryKey;type:varchar(191)" json:"id"`
	UserID         string    `gorm:"type:varchar(191);not null;index" json:"user_id"`
	PolarProductID string    `gorm:"type:varchar(191)" json:"polar_product_id"`
	PolarPriceID   string    `gorm:"type:varchar(191)" json:"polar_price_id"`
	Status         string    `gorm:"type:varchar(32);not null;index" json:"status"`
	Amount         int64     `gorm:"not null;default:0" json:"amount"`
	Currency       string    `gorm:"type:varchar(8)" json:"currency"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
