package booking

import (
	"time"

	"github.com/google/uuid"
)

// Status is the booking lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusConfirmed Status = "confirmed"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type CustomerDetails struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=50"`
	Company string `json:"company" validate:"max=200"`
}

// StopDetails describes a pickup or delivery stop.
type StopDetails struct {
	Address       string `json:"address" validate:"required,max=500"`
	Date          string `json:"date" validate:"required"`
	TimeWindow    string `json:"timeWindow"`
	ContactPerson string `json:"contactPerson"`
	ContactPhone  string `json:"contactPhone"`
}

type Booking struct {
	ID             uuid.UUID
	BookingID      string
	QuoteID        string
	CarrierQuoteID string
	Status         Status

	CustomerDetails CustomerDetails
	PickupDetails   StopDetails
	DeliveryDetails StopDetails

	SpecialInstructions *string
	Notes               *string

	// Approval
	ApprovalStatus  *ApprovalStatus
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string

	UserID *string
	OrgID  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

