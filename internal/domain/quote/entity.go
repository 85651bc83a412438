package quote

import (
	"time"

	"github.com/google/uuid"
)

const StatusSuccess = "success"

type Dimensions struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

type ContactInfo struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=50"`
	Company string `json:"company" validate:"max=200"`
}

// Request is what the customer submitted. It is never modified after the quote is stored.
type Request struct {
	Origin             string      `json:"origin" validate:"required,max=200"`
	Destination        string      `json:"destination" validate:"required,max=200"`
	ServiceType        string      `json:"serviceType" validate:"required,max=20"`
	CargoType          string      `json:"cargoType" validate:"max=100"`
	Weight             string      `json:"weight" validate:"required,max=50"`
	Dimensions         Dimensions  `json:"dimensions"`
	Value              string      `json:"value"`
	Incoterms          string      `json:"incoterms"`
	Urgency            string      `json:"urgency"`
	AdditionalServices []string    `json:"additionalServices"`
	ContactInfo        ContactInfo `json:"contactInfo"`
}

type PriceBreakdown struct {
	BaseRate      float64 `json:"baseRate"`
	FuelSurcharge float64 `json:"fuelSurcharge"`
	SecurityFee   float64 `json:"securityFee"`
	Documentation float64 `json:"documentation"`
}

type Price struct {
	Amount    float64        `json:"amount"`
	Currency  string         `json:"currency"`
	Breakdown PriceBreakdown `json:"breakdown"`
}

// CarrierOffer is one priced option inside a quote. ValidUntil is RFC 3339.
type CarrierOffer struct {
	CarrierID   string `json:"carrierId" validate:"required"`
	CarrierName string `json:"carrierName" validate:"required"`
	ServiceType string `json:"serviceType"`
	TransitTime string `json:"transitTime"`
	Price       Price  `json:"price"`
	ValidUntil  string `json:"validUntil"`
}

// Quote is a request plus the offers priced for it.
type Quote struct {
	ID      uuid.UUID
	QuoteID string
	Request Request
	Status  string
	Offers  []CarrierOffer

	UserID *string
	OrgID  *string

	CreatedAt time.Time
}

// FindOffer returns the offer with carrierID, if the quote carries one.
func (q *Quote) FindOffer(carrierID string) (*CarrierOffer, bool) {
	for i := range q.Offers {
		if q.Offers[i].CarrierID == carrierID {
			return &q.Offers[i], true
		}
	}
	return nil, false
}

// Expired reports whether the offer's validity has passed at now.
// Unparseable timestamps are treated as not expired.
func (o *CarrierOffer) Expired(now time.Time) bool {
	if o.ValidUntil == "" {
		return false
	}
	validUntil, err := time.Parse(time.RFC3339, o.ValidUntil)
	if err != nil {
		return false
	}
	return now.After(validUntil)
}
