package polar

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kumoha/webhook-gateway/app/models"
)

// Repository provides DB operations used by the Polar event handlers. All
// writes are keyed by the provider ID so redelivered events upsert or
// overwrite instead of duplicating rows.
type Repository interface {
	UpsertSubscription(sub *models.Subscription) error
	UpdateSubscription(id string, updates map[string]interface{}) error
	UpsertOrder(order *models.Order) error
	UpdateOrder(id string, updates map[string]interface{}) error
	UpdateProfileCustomerID(userID, polarCustomerID string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a Polar repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) UpsertSubscription(sub *models.Subscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"polar_product_id",
			"polar_price_id",
			"status",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"updated_at",
		}),
	}).Create(sub).Error
}

func (r *gormRepository) UpdateSubscription(id string, updates map[string]interface{}) error {
	return r.db.Model(&models.Subscription{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) UpsertOrder(order *models.Order) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"polar_product_id",
			"polar_price_id",
			"status",
			"amount",
			"currency",
			"updated_at",
		}),
	}).Create(order).Error
}

func (r *gormRepository) UpdateOrder(id string, updates map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) UpdateProfileCustomerID(userID, polarCustomerID string) error {
	return r.db.Model(&models.GeneralUserProfile{}).
		Where("user_id = ?", userID).
		Update("polar_customer_id", polarCustomerID).Error
}
