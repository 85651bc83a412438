package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeShipment = "shipment"
	TypeBooking  = "booking"
	TypeSystem   = "system"

	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Notification is an in-app message addressed to a recipient.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Recipient string    `json:"recipient"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Priority  string    `json:"priority"`
	ActionURL string    `json:"actionUrl,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListForRecipient(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, recipient string) error
}
