package quote

import (
	"context"
	"strings"
	"time"

	domainBooking "marketlive/internal/domain/booking"
	domainQuote "marketlive/internal/domain/quote"
	"marketlive/internal/identity"
	"marketlive/internal/logger"
	"marketlive/internal/metrics"
	"marketlive/internal/pricing"
	bookingUC "marketlive/internal/usecase/booking"
	appErrors "marketlive/pkg/errors"
	"marketlive/pkg/utils"

	"go.uber.org/zap"
)

const (
	instantCarrierID  = "CARRIER-001"
	instantCurrency   = "USD"
	instantValidity   = 7 * 24 * time.Hour
	instantDeliveryIn = 5 * 24 * time.Hour
	instantTimeWindow = "09:00-17:00"
)

// Booker creates the booking that follows an instant quote.
type Booker interface {
	Create(ctx context.Context, id *identity.Identity, req *bookingUC.CreateBookingRequest) (*bookingUC.BookingResponse, error)
}

type Service struct {
	quotes  domainQuote.Repository
	booker  Booker
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(quotes domainQuote.Repository, booker Booker, m *metrics.Metrics) *Service {
	return &Service{
		quotes:  quotes,
		booker:  booker,
		metrics: m,
		now:     time.Now,
	}
}

// Create persists a request together with offers that were priced elsewhere.
func (s *Service) Create(ctx context.Context, id *identity.Identity, req *CreateQuoteRequest) (*QuoteResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	now := s.now()
	q := &domainQuote.Quote{
		QuoteID:   req.Response.QuoteID,
		Request:   req.Request,
		Status:    req.Response.Status,
		Offers:    req.Response.Quotes,
		UserID:    ownerOf(id),
		OrgID:     orgOf(id),
		CreatedAt: now,
	}
	if q.QuoteID == "" {
		q.QuoteID = utils.NewQuoteID(now)
	}
	if q.Status == "" {
		q.Status = domainQuote.StatusSuccess
	}

	if err := s.quotes.Create(ctx, q); err != nil {
		return nil, err
	}

	s.metrics.RecordQuote(string(pricing.NormalizeServiceType(q.Request.ServiceType)))
	logger.Info("Quote recorded",
		zap.String("quote_id", q.QuoteID),
		zap.Int("offers", len(q.Offers)),
		zap.String("event", "quote_created"),
	)

	return ToQuoteResponse(q), nil
}

// CreateInstantQuoteAndBooking prices req with the engine, stores a single
// offer and books it straight away.
func (s *Service) CreateInstantQuoteAndBooking(ctx context.Context, id *identity.Identity, req *InstantQuoteRequest) (*InstantQuoteResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	now := s.now()
	offer := instantOffer(req.Request, now)
	q := &domainQuote.Quote{
		QuoteID:   utils.NewQuoteID(now),
		Request:   req.Request,
		Status:    domainQuote.StatusSuccess,
		Offers:    []domainQuote.CarrierOffer{offer},
		UserID:    ownerOf(id),
		OrgID:     orgOf(id),
		CreatedAt: now,
	}

	if err := s.quotes.Create(ctx, q); err != nil {
		return nil, err
	}

	s.metrics.RecordQuote(offer.ServiceType)
	logger.Info("Instant quote created",
		zap.String("quote_id", q.QuoteID),
		zap.Float64("amount", offer.Price.Amount),
		zap.String("event", "instant_quote_created"),
	)

	contact := req.Request.ContactInfo
	booking, err := s.booker.Create(ctx, id, &bookingUC.CreateBookingRequest{
		QuoteID:         q.QuoteID,
		CarrierQuoteID:  offer.CarrierID,
		CustomerDetails: domainBooking.CustomerDetails(contact),
		PickupDetails:   stop(req.Request.Origin, now, contact),
		DeliveryDetails: stop(req.Request.Destination, now.Add(instantDeliveryIn), contact),
	})
	if err != nil {
		return nil, err
	}

	return &InstantQuoteResponse{
		QuoteID: q.QuoteID,
		Quote:   ToQuoteResponse(q),
		Booking: booking,
	}, nil
}

// Price returns the engine result for req without storing anything.
func (s *Service) Price(req *domainQuote.Request) (*PricePreviewResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	breakdown := pricing.CalculateShippingPrice(pricingInput(*req))
	return &PricePreviewResponse{
		ServiceType: string(pricing.NormalizeServiceType(req.ServiceType)),
		TransitTime: pricing.EstimateTransitTime(req.Origin, req.Destination, req.ServiceType),
		Currency:    instantCurrency,
		Breakdown:   breakdown,
	}, nil
}

func (s *Service) Get(ctx context.Context, quoteID string) (*QuoteResponse, error) {
	q, err := s.quotes.GetByQuoteID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	return ToQuoteResponse(q), nil
}

// List returns every quote, newest first. Admin only.
func (s *Service) List(ctx context.Context, id *identity.Identity) (*QuoteListResponse, error) {
	if !id.IsAdmin() {
		return nil, appErrors.NewAppError(appErrors.CodeForbidden, "Admin access required", appErrors.ErrInsufficientPermissions)
	}
	quotes, err := s.quotes.List(ctx, domainQuote.Filter{})
	if err != nil {
		return nil, err
	}
	return ToQuoteListResponse(quotes), nil
}

func (s *Service) ListMy(ctx context.Context, id *identity.Identity) (*QuoteListResponse, error) {
	if !id.Authenticated() {
		return ToQuoteListResponse(nil), nil
	}
	quotes, err := s.quotes.List(ctx, domainQuote.Filter{UserID: id.Owner()})
	if err != nil {
		return nil, err
	}
	return ToQuoteListResponse(quotes), nil
}

func instantOffer(req domainQuote.Request, now time.Time) domainQuote.CarrierOffer {
	serviceType := strings.ToLower(strings.TrimSpace(req.ServiceType))
	if serviceType == "" {
		serviceType = string(pricing.ServiceAir)
	}
	b := pricing.CalculateShippingPrice(pricingInput(req))

	return domainQuote.CarrierOffer{
		CarrierID:   instantCarrierID,
		CarrierName: carrierName(serviceType),
		ServiceType: serviceType,
		TransitTime: pricing.EstimateTransitTime(req.Origin, req.Destination, serviceType),
		Price: domainQuote.Price{
			Amount:   b.Total,
			Currency: instantCurrency,
			Breakdown: domainQuote.PriceBreakdown{
				BaseRate:      b.BaseRate,
				FuelSurcharge: b.FuelSurcharge,
				SecurityFee:   b.SecurityFee,
				Documentation: b.Documentation,
			},
		},
		ValidUntil: now.Add(instantValidity).UTC().Format(time.RFC3339),
	}
}

func stop(address string, date time.Time, contact domainQuote.ContactInfo) domainBooking.StopDetails {
	return domainBooking.StopDetails{
		Address:       address,
		Date:          date.UTC().Format(time.RFC3339),
		TimeWindow:    instantTimeWindow,
		ContactPerson: contact.Name,
		ContactPhone:  contact.Phone,
	}
}

func carrierName(serviceType string) string {
	switch pricing.ServiceType(serviceType) {
	case pricing.ServiceSea:
		return "Maersk Line"
	case pricing.ServiceAir:
		return "DHL Air Freight"
	default:
		return "FedEx Express"
	}
}

func pricingInput(req domainQuote.Request) pricing.Input {
	return pricing.Input{
		Origin:      req.Origin,
		Destination: req.Destination,
		Weight:      req.Weight,
		ServiceType: req.ServiceType,
		CargoType:   req.CargoType,
	}
}

func ownerOf(id *identity.Identity) *string {
	if owner := id.Owner(); owner != "" {
		return &owner
	}
	return nil
}

func orgOf(id *identity.Identity) *string {
	if id == nil || id.OrgID == "" {
		return nil
	}
	org := id.OrgID
	return &org
}
