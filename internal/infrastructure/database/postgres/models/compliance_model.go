package models

import (
	"time"

	"marketlive/internal/domain/compliance"

	"github.com/google/uuid"
)

type KycVerificationModel struct {
	ID                 uuid.UUID                `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID             string                   `gorm:"type:varchar(100);not null;uniqueIndex"`
	OrgID              *string                  `gorm:"type:varchar(100);index"`
	Status             string                   `gorm:"type:varchar(20);not null;default:'draft'"`
	Step               int                      `gorm:"type:integer;not null;default:1"`
	CompanyName        *string                  `gorm:"type:varchar(255)"`
	RegistrationNumber *string                  `gorm:"type:varchar(100)"`
	VATNumber          *string                  `gorm:"type:varchar(100)"`
	Country            *string                  `gorm:"type:varchar(100)"`
	Documents          []compliance.KycDocument `gorm:"type:jsonb;serializer:json;not null"`
	SubmittedAt        *time.Time               `gorm:"type:timestamptz"`
	CreatedAt          time.Time                `gorm:"not null"`
	UpdatedAt          time.Time                `gorm:"not null"`
}

func (KycVerificationModel) TableName() string {
	return "kyc_verifications"
}
