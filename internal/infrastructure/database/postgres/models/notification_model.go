package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Recipient string    `gorm:"type:varchar(100);not null;index:idx_notifications_recipient,priority:1"`
	Title     string    `gorm:"type:varchar(255);not null"`
	Message   string    `gorm:"type:text;not null"`
	Type      string    `gorm:"type:varchar(30);not null"`
	Priority  string    `gorm:"type:varchar(10);not null;default:'normal'"`
	ActionURL *string   `gorm:"type:text"`
	Read      bool      `gorm:"not null;default:false;index:idx_notifications_recipient,priority:2"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}

type AuditLogModel struct {
	ID         uuid.UUID              `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Action     string                 `gorm:"type:varchar(100);not null;index"`
	EntityType string                 `gorm:"type:varchar(50);not null"`
	EntityID   string                 `gorm:"type:varchar(100);not null;index"`
	UserID     *string                `gorm:"type:varchar(100)"`
	OrgID      *string                `gorm:"type:varchar(100)"`
	Details    map[string]interface{} `gorm:"type:jsonb;serializer:json"`
	Timestamp  time.Time              `gorm:"not null;index"`
}

func (AuditLogModel) TableName() string {
	return "audit_logs"
}

type OutboxTaskModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	IdempotencyKey string          `gorm:"type:varchar(255);not null;uniqueIndex"`
	Kind           string          `gorm:"type:varchar(20);not null"`
	AggregateType  string          `gorm:"type:varchar(50);not null"`
	AggregateID    string          `gorm:"type:varchar(100);not null;index"`
	Payload        json.RawMessage `gorm:"type:jsonb;not null"`
	Status         string          `gorm:"type:varchar(20);not null;default:'pending';index:idx_outbox_due,priority:1"`
	Attempts       int             `gorm:"type:integer;not null;default:0"`
	MaxAttempts    int             `gorm:"type:integer;not null"`
	LastError      *string         `gorm:"type:text"`
	NextAttemptAt  time.Time       `gorm:"not null;index:idx_outbox_due,priority:2"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
	CompletedAt    *time.Time      `gorm:"type:timestamptz"`
}

func (OutboxTaskModel) TableName() string {
	return "outbox_tasks"
}
