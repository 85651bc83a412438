package shipment

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the status of a shipment
type Status string

const (
	StatusCreated        Status = "created"
	StatusBooked         Status = "booked"
	StatusPickedUp       Status = "picked_up"
	StatusInTransit      Status = "in_transit"
	StatusCustoms        Status = "customs"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusException      Status = "exception"
	StatusCancelled      Status = "cancelled"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	City        string      `json:"city"`
	State       string      `json:"state"`
	Country     string      `json:"country"`
	Coordinates Coordinates `json:"coordinates"`
}

type Details struct {
	Weight      string `json:"weight"`
	Dimensions  string `json:"dimensions"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Value       string `json:"value"`
}

// Shipment is the carrier-facing tracking record.
type Shipment struct {
	ID         uuid.UUID
	ShipmentID string
	Status     Status

	CurrentLocation   Location
	EstimatedDelivery string
	Carrier           string
	TrackingNumber    string
	Service           string
	ShipmentDetails   Details

	// Risk flags set by admins
	RiskLevel  *string
	FlagReason *string
	FlaggedBy  *string

	UserID *string
	OrgID  *string

	// StatusRevision increments on every status change.
	StatusRevision int

	LastUpdated time.Time
	CreatedAt   time.Time
}

// TrackingEvent is an append-only history entry of a shipment.
type TrackingEvent struct {
	ID          uuid.UUID
	ShipmentID  uuid.UUID
	Timestamp   string
	Status      string
	Location    string
	Description string
	// EventKey is set only when event dedup is enabled.
	EventKey  *string
	CreatedAt time.Time
}

// Key identifies an event for dedup purposes.
func (e *TrackingEvent) Key() string {
	return e.Timestamp + "|" + e.Status + "|" + e.Location
}
