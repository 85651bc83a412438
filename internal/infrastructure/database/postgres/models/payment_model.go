package models

import (
	"time"

	"marketlive/internal/domain/payment"

	"github.com/google/uuid"
)

type PaymentAttemptModel struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PaymentID     string         `gorm:"type:varchar(100);not null;uniqueIndex"`
	InvoiceID     string         `gorm:"type:varchar(100);not null"`
	StatementID   string         `gorm:"type:varchar(100);not null"`
	Status        string         `gorm:"type:varchar(20);not null;index"`
	BillingDate   time.Time      `gorm:"not null"`
	ChargeType    string         `gorm:"type:varchar(20);not null"`
	Payer         payment.Payer  `gorm:"type:jsonb;serializer:json;not null"`
	PaymentSource payment.Source `gorm:"type:jsonb;serializer:json;not null"`
	Items         []payment.Item `gorm:"type:jsonb;serializer:json;not null"`
	Totals        payment.Totals `gorm:"type:jsonb;serializer:json;not null"`
	UserID        *string        `gorm:"type:varchar(100);index"`
	BookingID     *string        `gorm:"type:varchar(40);index"`
	CreatedAt     time.Time      `gorm:"not null;index"`
	UpdatedAt     time.Time      `gorm:"not null"`
}

func (PaymentAttemptModel) TableName() string {
	return "payment_attempts"
}
