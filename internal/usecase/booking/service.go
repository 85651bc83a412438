package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketlive/internal/domain/audit"
	domainBooking "marketlive/internal/domain/booking"
	"marketlive/internal/domain/payment"
	domainQuote "marketlive/internal/domain/quote"
	"marketlive/internal/identity"
	"marketlive/internal/logger"
	"marketlive/internal/metrics"
	"marketlive/internal/notify"
	appErrors "marketlive/pkg/errors"
	"marketlive/pkg/utils"

	"go.uber.org/zap"
)

const aggregate = "booking"

type Config struct {
	EnforceOfferExpiry bool
	AppURL             string
}

// Service implements the booking workflow.
type Service struct {
	bookings domainBooking.Repository
	quotes   domainQuote.Repository
	payments payment.Repository
	audits   audit.Repository
	outbox   notify.Enqueuer
	metrics  *metrics.Metrics
	cfg      Config
	now      func() time.Time
}

func NewService(
	bookings domainBooking.Repository,
	quotes domainQuote.Repository,
	payments payment.Repository,
	audits audit.Repository,
	outbox notify.Enqueuer,
	m *metrics.Metrics,
	cfg Config,
) *Service {
	return &Service{
		bookings: bookings,
		quotes:   quotes,
		payments: payments,
		audits:   audits,
		outbox:   outbox,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Create stores a pending booking against an existing quote offer.
func (s *Service) Create(ctx context.Context, id *identity.Identity, req *CreateBookingRequest) (*BookingResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	now := s.now()
	link, err := ValidateLinkage(ctx, s.quotes, req.QuoteID, req.CarrierQuoteID, now, s.cfg.EnforceOfferExpiry)
	if err != nil {
		return nil, err
	}
	if link.Expired {
		s.metrics.RecordExpiredOffer()
		logger.Warn("Booking created against expired carrier offer",
			zap.String("quote_id", req.QuoteID),
			zap.String("carrier_id", req.CarrierQuoteID),
			zap.String("valid_until", link.Offer.ValidUntil),
			zap.String("event", "booking_expired_offer"),
		)
	}

	approval := domainBooking.ApprovalPending
	b := &domainBooking.Booking{
		BookingID:           utils.NewBookingID(now),
		QuoteID:             req.QuoteID,
		CarrierQuoteID:      req.CarrierQuoteID,
		Status:              domainBooking.StatusPending,
		CustomerDetails:     sanitizeCustomer(req.CustomerDetails),
		PickupDetails:       req.PickupDetails,
		DeliveryDetails:     req.DeliveryDetails,
		SpecialInstructions: utils.SanitizeOptional(req.SpecialInstructions),
		ApprovalStatus:      &approval,
		UserID:              ownerOf(id),
		OrgID:               orgOf(id),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	s.metrics.RecordBookingCreated()
	logger.Info("Booking created",
		zap.String("booking_id", b.BookingID),
		zap.String("quote_id", b.QuoteID),
		zap.String("carrier_id", b.CarrierQuoteID),
		zap.String("event", "booking_created"),
	)

	s.recordPaymentAttempt(ctx, id, b, link.Offer)
	notify.SafeEnqueue(ctx, s.outbox, s.metrics, notify.Email(aggregate, b.BookingID, "created", receivedEmail(b)))

	return ToBookingResponse(b), nil
}

func (s *Service) Approve(ctx context.Context, id *identity.Identity, bookingID string, req *ApproveBookingRequest) (*BookingResponse, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	if req == nil {
		req = &ApproveBookingRequest{}
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	b, err := s.bookings.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	previous := b.Status
	if err := domainBooking.ValidateStatusTransition(previous, domainBooking.StatusApproved); err != nil {
		return nil, err
	}

	now := s.now()
	approval := domainBooking.ApprovalApproved
	b.Status = domainBooking.StatusApproved
	b.ApprovalStatus = &approval
	b.ApprovedBy = utils.StringPtr(id.Subject)
	b.ApprovedAt = &now
	if req.Notes != nil {
		b.Notes = utils.SanitizeOptional(req.Notes)
	}

	if err := s.bookings.Update(ctx, b, previous); err != nil {
		return nil, err
	}

	s.metrics.RecordBookingTransition(string(previous), string(b.Status))
	logger.Info("Booking approved",
		zap.String("booking_id", b.BookingID),
		zap.String("approved_by", id.Subject),
		zap.String("event", "booking_approved"),
	)

	s.recordAudit(ctx, &audit.Entry{
		Action:     "booking.approved",
		EntityType: audit.EntityBooking,
		EntityID:   b.BookingID,
		UserID:     id.Subject,
		OrgID:      id.OrgID,
		Details:    map[string]interface{}{"notes": utils.StringValue(req.Notes)},
	})
	notify.SafeEnqueue(ctx, s.outbox, s.metrics, notify.Email(aggregate, b.BookingID, "approved", approvedEmail(b)))

	return ToBookingResponse(b), nil
}

func (s *Service) Reject(ctx context.Context, id *identity.Identity, bookingID string, req *RejectBookingRequest) (*BookingResponse, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	b, err := s.bookings.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	previous := b.Status
	if err := domainBooking.ValidateStatusTransition(previous, domainBooking.StatusRejected); err != nil {
		return nil, err
	}

	now := s.now()
	approval := domainBooking.ApprovalRejected
	b.Status = domainBooking.StatusRejected
	b.ApprovalStatus = &approval
	b.RejectionReason = utils.StringPtr(req.Reason)
	b.ApprovedBy = utils.StringPtr(id.Subject)
	b.ApprovedAt = &now

	if err := s.bookings.Update(ctx, b, previous); err != nil {
		return nil, err
	}

	s.metrics.RecordBookingTransition(string(previous), string(b.Status))
	logger.Info("Booking rejected",
		zap.String("booking_id", b.BookingID),
		zap.String("rejected_by", id.Subject),
		zap.String("event", "booking_rejected"),
	)

	s.recordAudit(ctx, &audit.Entry{
		Action:     "booking.rejected",
		EntityType: audit.EntityBooking,
		EntityID:   b.BookingID,
		UserID:     id.Subject,
		OrgID:      id.OrgID,
		Details:    map[string]interface{}{"reason": req.Reason},
	})
	notify.SafeEnqueue(ctx, s.outbox, s.metrics, notify.Email(aggregate, b.BookingID, "rejected", rejectedEmail(b, req.Reason)))

	return ToBookingResponse(b), nil
}

// UpdateStatus moves a booking along a non-gated edge of the transition table.
func (s *Service) UpdateStatus(ctx context.Context, id *identity.Identity, bookingID string, req *UpdateStatusRequest) (*BookingResponse, error) {
	if !id.Authenticated() {
		return nil, appErrors.NewAppError(appErrors.CodeUnauthorized, "Authentication required", appErrors.ErrUnauthorized)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	next, err := domainBooking.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	if domainBooking.IsAdminGated(next) {
		return nil, appErrors.NewAppError(
			appErrors.CodeInvalidTransition,
			fmt.Sprintf("Status %s can only be set through the approval endpoints", next),
			fmt.Errorf("%w: %w", domainBooking.ErrInvalidStatusTransition, domainBooking.ErrApprovalRequired),
		)
	}

	b, err := s.bookings.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canAccess(id, b) {
		return nil, appErrors.NewAppError(appErrors.CodeForbidden, "You do not have access to this booking", appErrors.ErrInsufficientPermissions)
	}

	previous := b.Status
	if err := domainBooking.ValidateStatusTransition(previous, next); err != nil {
		return nil, err
	}

	b.Status = next
	if req.Notes != nil {
		b.Notes = utils.SanitizeOptional(req.Notes)
	}
	if err := s.bookings.Update(ctx, b, previous); err != nil {
		return nil, err
	}

	s.metrics.RecordBookingTransition(string(previous), string(next))
	logger.Info("Booking status updated",
		zap.String("booking_id", b.BookingID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
		zap.String("event", "booking_status_changed"),
	)

	if next == domainBooking.StatusConfirmed {
		notify.SafeEnqueue(ctx, s.outbox, s.metrics,
			notify.Email(aggregate, b.BookingID, "confirmed", confirmedEmail(b, s.cfg.AppURL)))
	}

	return ToBookingResponse(b), nil
}

func (s *Service) Get(ctx context.Context, bookingID string) (*BookingResponse, error) {
	b, err := s.bookings.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return ToBookingResponse(b), nil
}

func (s *Service) ListMy(ctx context.Context, id *identity.Identity) (*BookingListResponse, error) {
	if !id.Authenticated() {
		return ToBookingListResponse(nil), nil
	}
	bookings, err := s.bookings.List(ctx, domainBooking.Filter{UserID: id.Owner()})
	if err != nil {
		return nil, err
	}
	return ToBookingListResponse(bookings), nil
}

// List returns the organization's bookings, or the caller's own for personal accounts.
func (s *Service) List(ctx context.Context, id *identity.Identity) (*BookingListResponse, error) {
	if !id.Authenticated() {
		return ToBookingListResponse(nil), nil
	}

	filter := domainBooking.Filter{UserID: id.Owner()}
	if id.OrgID != "" {
		filter = domainBooking.Filter{OrgID: id.OrgID}
	}

	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToBookingListResponse(bookings), nil
}

func (s *Service) ListPendingApprovals(ctx context.Context, id *identity.Identity) (*BookingListResponse, error) {
	if !id.IsAdmin() {
		return ToBookingListResponse(nil), nil
	}

	bookings, err := s.bookings.List(ctx, domainBooking.Filter{
		Status:         []domainBooking.Status{domainBooking.StatusPending},
		ApprovalStatus: domainBooking.ApprovalPending,
	})
	if err != nil {
		return nil, err
	}
	return ToBookingListResponse(bookings), nil
}

// recordPaymentAttempt writes the pending invoice for a new booking. Failures
// are logged and never fail the booking.
func (s *Service) recordPaymentAttempt(ctx context.Context, id *identity.Identity, b *domainBooking.Booking, offer *domainQuote.CarrierOffer) {
	if s.payments == nil || offer == nil {
		return
	}

	currency := offer.Price.Currency
	if currency == "" {
		currency = "USD"
	}
	amount := offer.Price.Amount
	total := payment.NewMoney(amount, currency)

	payerID := payment.GuestPayer
	if id.Authenticated() {
		payerID = id.Subject
	}
	first, last := splitName(b.CustomerDetails.Name)

	attempt := &payment.Attempt{
		PaymentID:   "PAY-" + b.BookingID,
		InvoiceID:   "INV-" + b.BookingID,
		StatementID: "ST-" + b.BookingID,
		Status:      payment.StatusPending,
		BillingDate: b.CreatedAt,
		ChargeType:  payment.ChargeOneTime,
		Payer: payment.Payer{
			Email:     b.CustomerDetails.Email,
			FirstName: first,
			LastName:  last,
			UserID:    payerID,
		},
		PaymentSource: payment.Source{CardType: "n/a", Last4: "0000"},
		Items: []payment.Item{{
			Amount: total,
			Plan: payment.Plan{
				ID:       "freight-one-time",
				Name:     fmt.Sprintf("Freight: %s - %s", offer.CarrierName, offer.ServiceType),
				Slug:     "freight",
				Amount:   amount,
				Currency: currency,
				Period:   "one_time",
				Interval: 1,
			},
			Status:      payment.StatusPending,
			PeriodStart: b.CreatedAt.Unix(),
			PeriodEnd:   b.CreatedAt.Unix(),
		}},
		Totals: payment.Totals{
			GrandTotal: total,
			Subtotal:   total,
			TaxTotal:   payment.NewMoney(0, currency),
		},
		UserID:    b.UserID,
		BookingID: utils.StringPtr(b.BookingID),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.CreatedAt,
	}

	if err := s.payments.Create(ctx, attempt); err != nil {
		if errors.Is(err, payment.ErrDuplicatePayment) {
			return
		}
		s.metrics.RecordSideEffectFailure("invoice_generation")
		logger.Warn("Failed to record payment attempt for booking",
			zap.String("booking_id", b.BookingID),
			zap.Error(err),
		)
	}
}

func (s *Service) recordAudit(ctx context.Context, e *audit.Entry) {
	if s.audits == nil {
		return
	}
	e.Timestamp = s.now()
	if err := s.audits.Create(ctx, e); err != nil {
		s.metrics.RecordSideEffectFailure("audit_log")
		logger.Warn("Failed to write audit log",
			zap.String("action", e.Action),
			zap.String("entity_id", e.EntityID),
			zap.Error(err),
		)
	}
}

func requireAdmin(id *identity.Identity) error {
	if !id.Authenticated() {
		return appErrors.NewAppError(appErrors.CodeUnauthorized, "Authentication required", appErrors.ErrUnauthorized)
	}
	if !id.IsAdmin() {
		return appErrors.NewAppError(appErrors.CodeForbidden, "Admin access required", appErrors.ErrInsufficientPermissions)
	}
	return nil
}

// canAccess allows admins, the booking's owner and members of its organization.
func canAccess(id *identity.Identity, b *domainBooking.Booking) bool {
	if id.IsAdmin() {
		return true
	}
	if b.UserID != nil && id.Owns(*b.UserID) {
		return true
	}
	return b.OrgID != nil && id.OrgID != "" && *b.OrgID == id.OrgID
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

func sanitizeCustomer(c domainBooking.CustomerDetails) domainBooking.CustomerDetails {
	return domainBooking.CustomerDetails{
		Name:    utils.SanitizeString(c.Name),
		Email:   utils.SanitizeEmail(c.Email),
		Phone:   utils.SanitizePhone(c.Phone),
		Company: utils.SanitizeString(c.Company),
	}
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "Guest", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
