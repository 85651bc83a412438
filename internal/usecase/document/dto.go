package document

import (
	"time"

	domainDocument "marketlive/internal/domain/document"
)

// Request DTOs
type CreateDocumentRequest struct {
	Type       string              `json:"type" validate:"required,oneof=bill_of_lading air_waybill commercial_invoice"`
	BookingID  *string             `json:"bookingId,omitempty" validate:"omitempty,max=100"`
	ShipmentID *string             `json:"shipmentId,omitempty" validate:"omitempty,max=100"`
	Data       domainDocument.Data `json:"documentData"`
	Status     *string             `json:"status,omitempty"`
}

type UpdateDocumentRequest struct {
	Data   *domainDocument.Data `json:"documentData,omitempty"`
	Status *string              `json:"status,omitempty"`
}

type SetEnvelopeRequest struct {
	EnvelopeID string                     `json:"envelopeId" validate:"required,max=200"`
	Status     string                     `json:"status" validate:"required,max=50"`
	Recipients []domainDocument.Recipient `json:"recipients,omitempty"`
}

type SendForSignatureRequest struct {
	SignerName     string `json:"signerName" validate:"required,max=200"`
	SignerEmail    string `json:"signerEmail" validate:"required,email"`
	DocumentBase64 string `json:"documentBase64,omitempty" validate:"omitempty,base64"`
}

type ListDocumentsRequest struct {
	Type       string `form:"type"`
	Status     string `form:"status"`
	BookingID  string `form:"bookingId"`
	ShipmentID string `form:"shipmentId"`
}

// Response DTOs
type DocumentResponse struct {
	ID         string                   `json:"id"`
	Type       domainDocument.Type      `json:"type"`
	BookingID  *string                  `json:"bookingId,omitempty"`
	ShipmentID *string                  `json:"shipmentId,omitempty"`
	Data       domainDocument.Data      `json:"documentData"`
	Status     domainDocument.Status    `json:"status"`
	Envelope   *domainDocument.Envelope `json:"docusign,omitempty"`
	UserID     *string                  `json:"userId,omitempty"`
	OrgID      *string                  `json:"orgId,omitempty"`
	ShareToken *string                  `json:"shareToken,omitempty"`
	CreatedAt  time.Time                `json:"createdAt"`
	UpdatedAt  time.Time                `json:"updatedAt"`
}

type DocumentListResponse struct {
	Documents []*DocumentResponse `json:"documents"`
	Total     int                 `json:"total"`
}

type ShareLinkResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

func ToDocumentResponse(d *domainDocument.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:         d.ID.String(),
		Type:       d.Type,
		BookingID:  d.BookingID,
		ShipmentID: d.ShipmentID,
		Data:       d.Data,
		Status:     d.Status,
		Envelope:   d.Envelope,
		UserID:     d.UserID,
		OrgID:      d.OrgID,
		ShareToken: d.ShareToken,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func ToDocumentListResponse(docs []*domainDocument.Document) *DocumentListResponse {
	out := make([]*DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, ToDocumentResponse(d))
	}
	return &DocumentListResponse{Documents: out, Total: len(out)}
}
