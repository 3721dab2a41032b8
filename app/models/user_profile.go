package models

// GeneralUserProfile is owned by the main product schema; the gateway only
// writes polar_customer_id. Column names are a fixed contract and must not
// drift from the upstream migrations.
type GeneralUserProfile struct {
	ID              int64   `gorm:"primaryKey" json:"id"`
	UserID          string  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Email           string  `gorm:"type:varchar(255)" json:"email"`
	FirstName       string  `gorm:"type:varchar(100)" json:"first_name"`
	LastName        string  `gorm:"type:varchar(100)" json:"last_name"`
	PhoneNumber     *string `gorm:"type:varchar(32);default:null" json:"phone_number,omitempty"`
	PolarCustomerID string  `gorm:"type:varchar(191);index" json:"polar_customer_id"`
}

func (GeneralUserProfile) TableName() string {
	return "general_user_profiles"
}
