package payment

import (
	"time"

	domainPayment "marketlive/internal/domain/payment"
)

// Request DTOs
type CheckoutRequest struct {
	PriceID string `json:"priceId" validate:"required,max=200"`
	Plan    string `json:"plan" validate:"required,oneof=free pro enterprise"`
}

// Response DTOs
type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type PaymentResponse struct {
	PaymentID     string               `json:"payment_id"`
	InvoiceID     string               `json:"invoice_id"`
	StatementID   string               `json:"statement_id"`
	Status        string               `json:"status"`
	BillingDate   time.Time            `json:"billing_date"`
	ChargeType    string               `json:"charge_type"`
	Payer         domainPayment.Payer  `json:"payer"`
	PaymentSource domainPayment.Source `json:"payment_source"`
	Items         []domainPayment.Item `json:"subscription_items"`
	Totals        domainPayment.Totals `json:"totals"`
	BookingID     *string              `json:"booking_id,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

type PaymentListResponse struct {
	Payments []*PaymentResponse `json:"payments"`
	Total    int                `json:"total"`
}

func ToPaymentResponse(a *domainPayment.Attempt) *PaymentResponse {
	items := a.Items
	if items == nil {
		items = []domainPayment.Item{}
	}
	return &PaymentResponse{
		PaymentID:     a.PaymentID,
		InvoiceID:     a.InvoiceID,
		StatementID:   a.StatementID,
		Status:        a.Status,
		BillingDate:   a.BillingDate,
		ChargeType:    a.ChargeType,
		Payer:         a.Payer,
		PaymentSource: a.PaymentSource,
		Items:         items,
		Totals:        a.Totals,
		BookingID:     a.BookingID,
		CreatedAt:     a.CreatedAt,
	}
}

func ToPaymentListResponse(attempts []*domainPayment.Attempt) *PaymentListResponse {
	out := make([]*PaymentResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, ToPaymentResponse(a))
	}
	return &PaymentListResponse{Payments: out, Total: len(out)}
}
