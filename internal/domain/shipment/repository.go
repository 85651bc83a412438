package shipment

import (
	"context"

	"github.com/google/uuid"
)

type Filter struct {
	UserID   string
	OrgID    string
	Search   string
	Statuses []Status
	Limit    int
}

// Repository defines the interface for shipment repository operations
type Repository interface {
	Create(ctx context.Context, s *Shipment) error
	GetByShipmentID(ctx context.Context, shipmentID string) (*Shipment, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*Shipment, error)
	// Update writes s only if the stored revision still equals expectedRevision.
	Update(ctx context.Context, s *Shipment, expectedRevision int) error
	List(ctx context.Context, filter Filter) ([]*Shipment, error)
	Count(ctx context.Context, filter Filter) (int64, error)

	// AppendEvents inserts events and returns how many were stored. With
	// dedup, events whose key already exists for the shipment are skipped.
	AppendEvents(ctx context.Context, shipmentID uuid.UUID, events []*TrackingEvent, dedup bool) (int, error)
	ListEvents(ctx context.Context, shipmentID uuid.UUID) ([]*TrackingEvent, error)
}
