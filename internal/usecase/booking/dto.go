package booking

import (
	"time"

	domainBooking "marketlive/internal/domain/booking"
)

// Request DTOs
type CreateBookingRequest struct {
	QuoteID             string                        `json:"quoteId" validate:"required,max=100"`
	CarrierQuoteID      string                        `json:"carrierQuoteId" validate:"required,max=100"`
	CustomerDetails     domainBooking.CustomerDetails `json:"customerDetails" validate:"required"`
	PickupDetails       domainBooking.StopDetails     `json:"pickupDetails" validate:"required"`
	DeliveryDetails     domainBooking.StopDetails     `json:"deliveryDetails" validate:"required"`
	SpecialInstructions *string                       `json:"specialInstructions" validate:"omitempty,max=2000"`
}

type ApproveBookingRequest struct {
	Notes *string `json:"notes" validate:"omitempty,max=2000"`
}

type RejectBookingRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required,max=50"`
	Notes  *string `json:"notes" validate:"omitempty,max=2000"`
}

// Response DTOs
type BookingResponse struct {
	BookingID           string                        `json:"bookingId"`
	QuoteID             string                        `json:"quoteId"`
	CarrierQuoteID      string                        `json:"carrierQuoteId"`
	Status              domainBooking.Status          `json:"status"`
	CustomerDetails     domainBooking.CustomerDetails `json:"customerDetails"`
	PickupDetails       domainBooking.StopDetails     `json:"pickupDetails"`
	DeliveryDetails     domainBooking.StopDetails     `json:"deliveryDetails"`
	SpecialInstructions *string                       `json:"specialInstructions,omitempty"`
	Notes               *string                       `json:"notes,omitempty"`
	ApprovalStatus      *domainBooking.ApprovalStatus `json:"approvalStatus,omitempty"`
	ApprovedBy          *string                       `json:"approvedBy,omitempty"`
	ApprovedAt          *time.Time                    `json:"approvedAt,omitempty"`
	RejectionReason     *string                       `json:"rejectionReason,omitempty"`
	UserID              *string                       `json:"userId,omitempty"`
	OrgID               *string                       `json:"orgId,omitempty"`
	AllowedTransitions  []domainBooking.Status        `json:"allowedTransitions"`
	CreatedAt           time.Time                     `json:"createdAt"`
	UpdatedAt           time.Time                     `json:"updatedAt"`
}

type BookingListResponse struct {
	Bookings []*BookingResponse `json:"bookings"`
	Total    int                `json:"total"`
}

func ToBookingResponse(b *domainBooking.Booking) *BookingResponse {
	allowed := domainBooking.GetAllowedTransitions(b.Status)
	if allowed == nil {
		allowed = []domainBooking.Status{}
	}

	return &BookingResponse{
		BookingID:           b.BookingID,
		QuoteID:             b.QuoteID,
		CarrierQuoteID:      b.CarrierQuoteID,
		Status:              b.Status,
		CustomerDetails:     b.CustomerDetails,
		PickupDetails:       b.PickupDetails,
		DeliveryDetails:     b.DeliveryDetails,
		SpecialInstructions: b.SpecialInstructions,
		Notes:               b.Notes,
		ApprovalStatus:      b.ApprovalStatus,
		ApprovedBy:          b.ApprovedBy,
		ApprovedAt:          b.ApprovedAt,
		RejectionReason:     b.RejectionReason,
		UserID:              b.UserID,
		OrgID:               b.OrgID,
		AllowedTransitions:  allowed,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
}

func ToBookingListResponse(bookings []*domainBooking.Booking) *BookingListResponse {
	out := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, ToBookingResponse(b))
	}
	return &BookingListResponse{Bookings: out, Total: len(out)}
}
