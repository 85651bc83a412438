package models

import (
	"time"

	"marketlive/internal/domain/quote"

	"github.com/google/uuid"
)

// QuoteModel stores the request and offers as JSON documents; route fields
// are duplicated into columns for listing.
type QuoteModel struct {
	ID          uuid.UUID            `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	QuoteID     string               `gorm:"type:varchar(40);not null;uniqueIndex"`
	Origin      string               `gorm:"type:varchar(200);not null"`
	Destination string               `gorm:"type:varchar(200);not null"`
	ServiceType string               `gorm:"type:varchar(20);not null"`
	Request     quote.Request        `gorm:"type:jsonb;serializer:json;not null"`
	Status      string               `gorm:"type:varchar(20);not null;default:'success'"`
	Offers      []quote.CarrierOffer `gorm:"type:jsonb;serializer:json;not null"`
	UserID      *string              `gorm:"type:varchar(100);index"`
	OrgID       *string              `gorm:"type:varchar(100);index"`
	CreatedAt   time.Time            `gorm:"not null;index"`
}

func (QuoteModel) TableName() string {
	return "quotes"
}
