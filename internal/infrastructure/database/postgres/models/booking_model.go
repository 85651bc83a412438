package models

import (
	"time"

	"marketlive/internal/domain/booking"

	"github.com/google/uuid"
)

type BookingModel struct {
	ID                  uuid.UUID               `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BookingID           string                  `gorm:"type:varchar(40);not null;uniqueIndex"`
	QuoteID             string                  `gorm:"type:varchar(40);not null;index"`
	CarrierQuoteID      string                  `gorm:"type:varchar(100);not null"`
	Status              string                  `gorm:"type:varchar(20);not null;default:'pending';index"`
	CustomerDetails     booking.CustomerDetails `gorm:"type:jsonb;serializer:json;not null"`
	PickupDetails       booking.StopDetails     `gorm:"type:jsonb;serializer:json;not null"`
	DeliveryDetails     booking.StopDetails     `gorm:"type:jsonb;serializer:json;not null"`
	SpecialInstructions *string                 `gorm:"type:text"`
	Notes               *string                 `gorm:"type:text"`
	ApprovalStatus      *string                 `gorm:"type:varchar(20);index"`
	ApprovedBy          *string                 `gorm:"type:varchar(100)"`
	ApprovedAt          *time.Time              `gorm:"type:timestamptz"`
	RejectionReason     *string                 `gorm:"type:text"`
	UserID              *string                 `gorm:"type:varchar(100);index"`
	OrgID               *string                 `gorm:"type:varchar(100);index"`
	CreatedAt           time.Time               `gorm:"not null;index"`
	UpdatedAt           time.Time               `gorm:"not null"`
}

func (BookingModel) TableName() string {
	return "bookings"
}
