package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EntityBooking  = "booking"
	EntityShipment = "shipment"
	EntityKyc      = "kyc"
	EntityPayment  = "payment"
	EntityUser     = "user"
)

// Entry is one row of the audit trail shown on the admin dashboard.
type Entry struct {
	ID         uuid.UUID              `json:"id"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	UserID     string                 `json:"userId,omitempty"`
	OrgID      string                 `json:"orgId,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListRecent(ctx context.Context, limit int) ([]*Entry, error)
}
