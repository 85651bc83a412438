package models

import (
	"time"

	"marketlive/internal/domain/document"

	"github.com/google/uuid"
)

type DocumentModel struct {
	ID         uuid.UUID          `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Type       string             `gorm:"type:varchar(30);not null;index"`
	BookingID  *string            `gorm:"type:varchar(40);index"`
	ShipmentID *string            `gorm:"type:varchar(100);index"`
	Data       document.Data      `gorm:"type:jsonb;serializer:json;not null"`
	Status     string             `gorm:"type:varchar(20);not null;default:'draft';index"`
	Envelope   *document.Envelope `gorm:"type:jsonb;serializer:json"`
	UserID     *string            `gorm:"type:varchar(100);index"`
	OrgID      *string            `gorm:"type:varchar(100);index"`
	UploadedBy *string            `gorm:"type:varchar(100)"`
	ShareToken *string            `gorm:"type:varchar(64);uniqueIndex"`
	CreatedAt  time.Time          `gorm:"not null;index"`
	UpdatedAt  time.Time          `gorm:"not null"`
}

func (DocumentModel) TableName() string {
	return "documents"
}
