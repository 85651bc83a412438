package quote

import (
	"time"

	domainQuote "marketlive/internal/domain/quote"
	"marketlive/internal/pricing"
	bookingUC "marketlive/internal/usecase/booking"
)

// QuoteResult is the priced part of a quote as computed by the client.
type QuoteResult struct {
	QuoteID string                     `json:"quoteId" validate:"max=100"`
	Status  string                     `json:"status" validate:"max=50"`
	Quotes  []domainQuote.CarrierOffer `json:"quotes" validate:"dive"`
}

type CreateQuoteRequest struct {
	Request  domainQuote.Request `json:"request"`
	Response QuoteResult         `json:"response"`
}

type InstantQuoteRequest struct {
	Request domainQuote.Request `json:"request"`
}

// QuoteResponse flattens the request fields next to the priced offers.
type QuoteResponse struct {
	domainQuote.Request
	QuoteID   string                     `json:"quoteId"`
	Status    string                     `json:"status"`
	Quotes    []domainQuote.CarrierOffer `json:"quotes"`
	UserID    *string                    `json:"userId,omitempty"`
	OrgID     *string                    `json:"orgId,omitempty"`
	CreatedAt time.Time                  `json:"createdAt"`
}

type QuoteListResponse struct {
	Quotes []*QuoteResponse `json:"quotes"`
	Total  int              `json:"total"`
}

type InstantQuoteResponse struct {
	QuoteID string                     `json:"quoteId"`
	Quote   *QuoteResponse             `json:"quote"`
	Booking *bookingUC.BookingResponse `json:"booking"`
}

// PricePreviewResponse is an engine result that is not persisted.
type PricePreviewResponse struct {
	ServiceType string            `json:"serviceType"`
	TransitTime string            `json:"transitTime"`
	Currency    string            `json:"currency"`
	Breakdown   pricing.Breakdown `json:"breakdown"`
}

func ToQuoteResponse(q *domainQuote.Quote) *QuoteResponse {
	offers := q.Offers
	if offers == nil {
		offers = []domainQuote.CarrierOffer{}
	}
	return &QuoteResponse{
		Request:   q.Request,
		QuoteID:   q.QuoteID,
		Status:    q.Status,
		Quotes:    offers,
		UserID:    q.UserID,
		OrgID:     q.OrgID,
		CreatedAt: q.CreatedAt,
	}
}

func ToQuoteListResponse(quotes []*domainQuote.Quote) *QuoteListResponse {
	out := make([]*QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, ToQuoteResponse(q))
	}
	return &QuoteListResponse{Quotes: out, Total: len(out)}
}
