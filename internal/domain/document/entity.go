package document

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeBillOfLading      Type = "bill_of_lading"
	TypeAirWaybill        Type = "air_waybill"
	TypeCommercialInvoice Type = "commercial_invoice"
)

type Status string

const (
	StatusDraft        Status = "draft"
	StatusIssued       Status = "issued"
	StatusSent         Status = "sent"
	StatusCompleted    Status = "completed"
	StatusAcknowledged Status = "acknowledged"
	StatusArchived     Status = "archived"
)

type Party struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

type Parties struct {
	Shipper   Party  `json:"shipper"`
	Consignee Party  `json:"consignee"`
	Carrier   *Party `json:"carrier,omitempty"`
}

type CargoDetails struct {
	Description string  `json:"description"`
	Weight      string  `json:"weight"`
	Dimensions  string  `json:"dimensions"`
	Value       string  `json:"value"`
	HSCode      *string `json:"hsCode,omitempty"`
}

type RouteDetails struct {
	Origin          string  `json:"origin"`
	Destination     string  `json:"destination"`
	PortOfLoading   *string `json:"portOfLoading,omitempty"`
	PortOfDischarge *string `json:"portOfDischarge,omitempty"`
}

type Data struct {
	DocumentNumber string       `json:"documentNumber" validate:"required"`
	IssueDate      string       `json:"issueDate" validate:"required"`
	Parties        Parties      `json:"parties"`
	CargoDetails   CargoDetails `json:"cargoDetails"`
	RouteDetails   RouteDetails `json:"routeDetails"`
	Terms          *string      `json:"terms,omitempty"`
}

type Recipient struct {
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Role        *string `json:"role,omitempty"`
	RecipientID *string `json:"recipientId,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// Envelope is the e-signature provider's view of the document.
type Envelope struct {
	EnvelopeID  string      `json:"envelopeId"`
	Status      string      `json:"status"`
	LastUpdated int64       `json:"lastUpdated"`
	Recipients  []Recipient `json:"recipients,omitempty"`
}

type Document struct {
	ID         uuid.UUID
	Type       Type
	BookingID  *string
	ShipmentID *string
	Data       Data
	Status     Status
	Envelope   *Envelope

	UserID     *string
	OrgID      *string
	UploadedBy *string
	ShareToken *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
