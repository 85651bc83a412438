package models

import (
	"time"

	"marketlive/internal/domain/shipment"

	"github.com/google/uuid"
)

// ShipmentModel represents the database model for Shipments
type ShipmentModel struct {
	ID                uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ShipmentID        string            `gorm:"type:varchar(100);not null;uniqueIndex"`
	Status            string            `gorm:"type:varchar(30);not null;default:'created';index"`
	CurrentLocation   shipment.Location `gorm:"type:jsonb;serializer:json;not null"`
	EstimatedDelivery string            `gorm:"type:varchar(50)"`
	Carrier           string            `gorm:"type:varchar(100)"`
	TrackingNumber    string            `gorm:"type:varchar(100);index"`
	Service           string            `gorm:"type:varchar(100)"`
	ShipmentDetails   shipment.Details  `gorm:"type:jsonb;serializer:json;not null"`
	RiskLevel         *string           `gorm:"type:varchar(10)"`
	FlagReason        *string           `gorm:"type:text"`
	FlaggedBy         *string           `gorm:"type:varchar(100)"`
	UserID            *string           `gorm:"type:varchar(100);index"`
	OrgID             *string           `gorm:"type:varchar(100);index"`
	StatusRevision    int               `gorm:"type:integer;not null;default:0"`
	LastUpdated       time.Time         `gorm:"not null"`
	CreatedAt         time.Time         `gorm:"not null;index"`
}

func (ShipmentModel) TableName() string {
	return "shipments"
}

// TrackingEventModel is append-only. EventKey is NULL unless dedup is on,
// so the unique index only constrains deduplicated inserts.
type TrackingEventModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ShipmentID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_tracking_events_key,priority:1"`
	Timestamp   string    `gorm:"type:varchar(50);not null"`
	Status      string    `gorm:"type:varchar(50);not null"`
	Location    string    `gorm:"type:varchar(255)"`
	Description string    `gorm:"type:text"`
	EventKey    *string   `gorm:"type:varchar(400);uniqueIndex:idx_tracking_events_key,priority:2"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (TrackingEventModel) TableName() string {
	return "tracking_events"
}
