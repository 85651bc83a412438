package shipment

import (
	"time"

	domainShipment "marketlive/internal/domain/shipment"
)

// Request DTOs
type TrackingEventInput struct {
	Timestamp   string `json:"timestamp" validate:"required,max=100"`
	Status      string `json:"status" validate:"required,max=100"`
	Location    string `json:"location" validate:"max=300"`
	Description string `json:"description" validate:"max=2000"`
}

// TrackingSnapshot is a carrier's view of a shipment at one point in time.
type TrackingSnapshot struct {
	Status            string                  `json:"status" validate:"required,max=50"`
	CurrentLocation   domainShipment.Location `json:"currentLocation"`
	EstimatedDelivery string                  `json:"estimatedDelivery" validate:"max=100"`
	Carrier           string                  `json:"carrier" validate:"max=200"`
	TrackingNumber    string                  `json:"trackingNumber" validate:"max=100"`
	Service           string                  `json:"service" validate:"max=100"`
	ShipmentDetails   domainShipment.Details  `json:"shipmentDetails"`
	Events            []TrackingEventInput    `json:"events" validate:"max=500,dive"`
}

type UpsertShipmentRequest struct {
	ShipmentID string           `json:"shipmentId" validate:"required,max=100"`
	Tracking   TrackingSnapshot `json:"tracking"`
}

type FlagShipmentRequest struct {
	RiskLevel string `json:"riskLevel" validate:"required,oneof=low medium high"`
	Reason    string `json:"reason" validate:"required,max=1000"`
}

type ListShipmentsRequest struct {
	Search   string `form:"search"`
	OnlyMine bool   `form:"onlyMine"`
}

// Response DTOs
type ShipmentResponse struct {
	ID                 string                  `json:"id"`
	ShipmentID         string                  `json:"shipmentId"`
	Status             domainShipment.Status   `json:"status"`
	CurrentLocation    domainShipment.Location `json:"currentLocation"`
	EstimatedDelivery  string                  `json:"estimatedDelivery"`
	Carrier            string                  `json:"carrier"`
	TrackingNumber     string                  `json:"trackingNumber"`
	Service            string                  `json:"service"`
	ShipmentDetails    domainShipment.Details  `json:"shipmentDetails"`
	RiskLevel          *string                 `json:"riskLevel,omitempty"`
	FlagReason         *string                 `json:"flagReason,omitempty"`
	FlaggedBy          *string                 `json:"flaggedBy,omitempty"`
	UserID             *string                 `json:"userId,omitempty"`
	OrgID              *string                 `json:"orgId,omitempty"`
	StatusRevision     int                     `json:"statusRevision"`
	AllowedTransitions []domainShipment.Status `json:"allowedTransitions"`
	LastUpdated        time.Time               `json:"lastUpdated"`
	CreatedAt          time.Time               `json:"createdAt"`
}

type TrackingEventResponse struct {
	Timestamp   string    `json:"timestamp"`
	Status      string    `json:"status"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ShipmentDetailResponse struct {
	Shipment *ShipmentResponse       `json:"shipment"`
	Events   []TrackingEventResponse `json:"events"`
}

type ShipmentListResponse struct {
	Shipments []*ShipmentResponse `json:"shipments"`
	Total     int                 `json:"total"`
}

// UpsertResult reports what an upsert changed.
type UpsertResult struct {
	Shipment      *ShipmentResponse `json:"shipment"`
	Created       bool              `json:"created"`
	StatusChanged bool              `json:"statusChanged"`
	OutOfBand     bool              `json:"outOfBand"`
	EventsStored  int               `json:"eventsStored"`
}

func ToShipmentResponse(s *domainShipment.Shipment) *ShipmentResponse {
	allowed := domainShipment.GetAllowedTransitions(s.Status)
	if allowed == nil {
		allowed = []domainShipment.Status{}
	}

	return &ShipmentResponse{
		ID:                 s.ID.String(),
		ShipmentID:         s.ShipmentID,
		Status:             s.Status,
		CurrentLocation:    s.CurrentLocation,
		EstimatedDelivery:  s.EstimatedDelivery,
		Carrier:            s.Carrier,
		TrackingNumber:     s.TrackingNumber,
		Service:            s.Service,
		ShipmentDetails:    s.ShipmentDetails,
		RiskLevel:          s.RiskLevel,
		FlagReason:         s.FlagReason,
		FlaggedBy:          s.FlaggedBy,
		UserID:             s.UserID,
		OrgID:              s.OrgID,
		StatusRevision:     s.StatusRevision,
		AllowedTransitions: allowed,
		LastUpdated:        s.LastUpdated,
		CreatedAt:          s.CreatedAt,
	}
}

func ToShipmentListResponse(shipments []*domainShipment.Shipment) *ShipmentListResponse {
	out := make([]*ShipmentResponse, 0, len(shipments))
	for _, s := range shipments {
		out = append(out, ToShipmentResponse(s))
	}
	return &ShipmentListResponse{Shipments: out, Total: len(out)}
}

func ToTrackingEventResponses(events []*domainShipment.TrackingEvent) []TrackingEventResponse {
	out := make([]TrackingEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, TrackingEventResponse{
			Timestamp:   e.Timestamp,
			Status:      e.Status,
			Location:    e.Location,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}
