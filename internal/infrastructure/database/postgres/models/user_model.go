package models

import (
	"time"

	"github.com/google/uuid"
)

// UserModel represents the database model for User
type UserModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ExternalID         string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name               string    `gorm:"type:varchar(255);not null"`
	Email              *string   `gorm:"type:varchar(255);index"`
	OrgID              *string   `gorm:"type:varchar(100);index"`
	Role               *string   `gorm:"type:varchar(50)"`
	SubscriptionTier   *string   `gorm:"type:varchar(50)"`
	SubscriptionStatus *string   `gorm:"type:varchar(50)"`
	StripeCustomerID   *string   `gorm:"type:varchar(100);index"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}

type OrganizationModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ExternalID         string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name               string    `gorm:"type:varchar(255);not null"`
	Slug               *string   `gorm:"type:varchar(255)"`
	ImageURL           *string   `gorm:"type:text"`
	CreatedBy          *string   `gorm:"type:varchar(100)"`
	MembersCount       *int      `gorm:"type:integer"`
	SubscriptionTier   *string   `gorm:"type:varchar(50)"`
	SubscriptionStatus *string   `gorm:"type:varchar(50)"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

func (OrganizationModel) TableName() string {
	return "organizations"
}
