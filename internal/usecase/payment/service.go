package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"marketlive/internal/domain/audit"
	domainPayment "marketlive/internal/domain/payment"
	domainUser "marketlive/internal/domain/user"
	"marketlive/internal/identity"
	"marketlive/internal/infrastructure/stripe"
	"marketlive/internal/logger"
	"marketlive/internal/metrics"
	appErrors "marketlive/pkg/errors"
	"marketlive/pkg/utils"

	"go.uber.org/zap"
)

const (
	subscriptionActive   = "active"
	subscriptionCanceled = "canceled"
)

// Processor is the payment processor used for checkout and webhooks.
type Processor interface {
	CreateCheckoutSession(ctx context.Context, p stripe.CheckoutParams) (*stripe.CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (domainPayment.WebhookEvent, error)
}

type Service struct {
	payments  domainPayment.Repository
	users     domainUser.Repository
	orgs      domainUser.OrganizationRepository
	audits    audit.Repository
	processor Processor
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(
	payments domainPayment.Repository,
	users domainUser.Repository,
	orgs domainUser.OrganizationRepository,
	audits audit.Repository,
	processor Processor,
	m *metrics.Metrics,
) *Service {
	return &Service{
		payments:  payments,
		users:     users,
		orgs:      orgs,
		audits:    audits,
		processor: processor,
		metrics:   m,
		now:       time.Now,
	}
}

// CreateCheckoutSession opens a subscription checkout and returns its URL.
func (s *Service) CreateCheckoutSession(ctx context.Context, id *identity.Identity, req *CheckoutRequest) (*CheckoutResponse, error) {
	if !id.Authenticated() {
		return nil, appErrors.NewAppError(appErrors.CodeUnauthorized, "Authentication required", appErrors.ErrUnauthorized)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}
	if s.processor == nil {
		return nil, appErrors.NewAppError(appErrors.CodeVendor, "Checkout is not configured", domainPayment.ErrCheckoutNotAvailable)
	}

	params := stripe.CheckoutParams{
		PriceID:       req.PriceID,
		Plan:          req.Plan,
		UserID:        id.Subject,
		CustomerEmail: id.Email,
	}
	if u, err := s.users.GetByExternalID(ctx, id.Subject); err == nil {
		params.CustomerID = utils.StringValue(u.StripeCustomerID)
	}

	sess, err := s.processor.CreateCheckoutSession(ctx, params)
	if err != nil {
		logger.Error("Failed to create checkout session",
			zap.String("user_id", id.Subject),
			zap.Error(err),
		)
		return nil, appErrors.NewAppError(appErrors.CodeVendor, "Failed to create checkout session", err)
	}

	logger.Info("Checkout session created",
		zap.String("user_id", id.Subject),
		zap.String("plan", req.Plan),
		zap.String("event", "checkout_session_created"),
	)
	return &CheckoutResponse{SessionID: sess.ID, URL: sess.URL}, nil
}

// HandleStripeWebhook verifies and applies one processor event. Events for
// unknown users and unknown event types are acknowledged without effect.
func (s *Service) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.processor == nil {
		return appErrors.NewAppError(appErrors.CodeVendor, "Webhooks are not configured", domainPayment.ErrCheckoutNotAvailable)
	}

	event, err := s.processor.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, appErrors.ErrInvalidSignature) {
			logger.Warn("Rejected stripe webhook", zap.Error(err))
			return appErrors.NewAppError(appErrors.CodeValidation, "Invalid webhook signature", err)
		}
		return err
	}

	switch ev := event.(type) {
	case domainPayment.CheckoutCompleted:
		return s.applySubscription(ctx, ev.UserID, ev.CustomerID, subscriptionActive, ev.Plan)
	case domainPayment.SubscriptionChanged:
		status := ev.Status
		if ev.Deleted() {
			status = subscriptionCanceled
		}
		return s.applySubscription(ctx, ev.UserID, ev.CustomerID, status, ev.Plan)
	case domainPayment.InvoicePayment:
		return s.recordInvoice(ctx, ev)
	default:
		logger.Debug("Ignoring stripe webhook", zap.String("type", event.EventType()))
		return nil
	}
}

func (s *Service) applySubscription(ctx context.Context, userID, customerID, status, plan string) error {
	u, err := s.findUser(ctx, userID, customerID)
	if errors.Is(err, domainUser.ErrUserNotFound) {
		logger.Error("User not found for subscription change",
			zap.String("user_id", userID),
			zap.String("customer_id", customerID),
		)
		return nil
	}
	if err != nil {
		return err
	}

	tier := tierFor(plan, status)
	u.SubscriptionTier = utils.StringPtr(tier)
	u.SubscriptionStatus = utils.StringPtr(status)
	if customerID != "" {
		u.StripeCustomerID = utils.StringPtr(customerID)
	}
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}

	if u.OrgID != nil {
		s.syncOrganization(ctx, *u.OrgID, tier, status)
	}

	logger.Info("Subscription updated",
		zap.String("user_id", u.ExternalID),
		zap.String("tier", tier),
		zap.String("status", status),
		zap.String("event", "subscription_updated"),
	)
	s.recordAudit(ctx, &audit.Entry{
		Action:     "subscription.updated_via_webhook",
		EntityType: audit.EntityUser,
		EntityID:   u.ExternalID,
		UserID:     u.ExternalID,
		OrgID:      utils.StringValue(u.OrgID),
		Details: map[string]interface{}{
			"status":   status,
			"plan":     plan,
			"stripeId": customerID,
		},
	})
	return nil
}

func (s *Service) syncOrganization(ctx context.Context, orgID, tier, status string) {
	if s.orgs == nil {
		return
	}
	org, err := s.orgs.GetByExternalID(ctx, orgID)
	if err != nil {
		if !errors.Is(err, domainUser.ErrOrganizationNotFound) {
			logger.Warn("Failed to load organization for subscription sync", zap.String("org_id", orgID), zap.Error(err))
		}
		return
	}
	org.SubscriptionTier = utils.StringPtr(tier)
	org.SubscriptionStatus = utils.StringPtr(status)
	org.UpdatedAt = s.now()
	if err := s.orgs.Update(ctx, org); err != nil {
		s.metrics.RecordSideEffectFailure("organization_sync")
		logger.Warn("Failed to sync organization subscription", zap.String("org_id", orgID), zap.Error(err))
	}
}

func (s *Service) findUser(ctx context.Context, userID, customerID string) (*domainUser.User, error) {
	if userID != "" {
		u, err := s.users.GetByExternalID(ctx, userID)
		if err == nil || !errors.Is(err, domainUser.ErrUserNotFound) {
			return u, err
		}
	}
	if customerID != "" {
		return s.users.GetByStripeCustomerID(ctx, customerID)
	}
	return nil, domainUser.ErrUserNotFound
}

func (s *Service) recordInvoice(ctx context.Context, ev domainPayment.InvoicePayment) error {
	status := domainPayment.StatusFailed
	if ev.Succeeded() {
		status = domainPayment.StatusPaid
	}

	currency := ev.Currency
	if currency == "" {
		currency = "USD"
	}

	var payerID *string
	if ev.CustomerID != "" {
		if u, err := s.users.GetByStripeCustomerID(ctx, ev.CustomerID); err == nil {
			payerID = utils.StringPtr(u.ExternalID)
		}
	}

	invoiceNumber := ev.Number
	if invoiceNumber == "" {
		invoiceNumber = ev.InvoiceID
	}

	first, last := splitName(ev.Name)
	paid := money(ev.AmountPaid, currency)
	now := s.now()
	attempt := &domainPayment.Attempt{
		PaymentID:   "PAY-" + ev.InvoiceID,
		InvoiceID:   invoiceNumber,
		StatementID: "ST-" + ev.InvoiceID,
		Status:      status,
		BillingDate: ev.PaidAt,
		ChargeType:  domainPayment.ChargeSubscription,
		Payer: domainPayment.Payer{
			Email:     ev.Email,
			FirstName: first,
			LastName:  last,
			UserID:    utils.StringValue(payerID),
		},
		PaymentSource: domainPayment.Source{CardType: "card", Last4: "0000"},
		Items: []domainPayment.Item{{
			Amount: paid,
			Plan: domainPayment.Plan{
				ID:       "subscription",
				Name:     "Subscription",
				Slug:     "subscription",
				Amount:   ev.AmountPaid,
				Currency: currency,
				Period:   "month",
				Interval: 1,
			},
			Status:      status,
			PeriodStart: ev.PaidAt.Unix(),
			PeriodEnd:   ev.PaidAt.AddDate(0, 1, 0).Unix(),
		}},
		Totals: domainPayment.Totals{
			GrandTotal: money(ev.Total, currency),
			Subtotal:   money(ev.Subtotal, currency),
			TaxTotal:   money(ev.Total-ev.Subtotal, currency),
		},
		UserID:    payerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.payments.Create(ctx, attempt); err != nil {
		if errors.Is(err, domainPayment.ErrDuplicatePayment) {
			logger.Debug("Invoice already recorded", zap.String("invoice_id", ev.InvoiceID))
			return nil
		}
		return err
	}

	logger.Info("Invoice payment recorded",
		zap.String("payment_id", attempt.PaymentID),
		zap.String("status", status),
		zap.String("event", "invoice_payment_recorded"),
	)

	if payerID != nil && ev.Succeeded() {
		s.recordAudit(ctx, &audit.Entry{
			Action:     "payment.succeeded_via_webhook",
			EntityType: audit.EntityPayment,
			EntityID:   attempt.PaymentID,
			UserID:     *payerID,
			Details: map[string]interface{}{
				"amount":  attempt.Totals.GrandTotal.AmountFormatted,
				"invoice": attempt.InvoiceID,
			},
		})
	}
	return nil
}

func (s *Service) ListMy(ctx context.Context, id *identity.Identity) (*PaymentListResponse, error) {
	if !id.Authenticated() {
		return ToPaymentListResponse(nil), nil
	}
	attempts, err := s.payments.List(ctx, domainPayment.Filter{UserID: id.Owner()})
	if err != nil {
		return nil, err
	}
	return ToPaymentListResponse(attempts), nil
}

// ListAll returns every payment attempt. Admin only.
func (s *Service) ListAll(ctx context.Context, id *identity.Identity) (*PaymentListResponse, error) {
	if !id.IsAdmin() {
		return nil, appErrors.NewAppError(appErrors.CodeForbidden, "Admin access required", appErrors.ErrInsufficientPermissions)
	}
	attempts, err := s.payments.List(ctx, domainPayment.Filter{})
	if err != nil {
		return nil, err
	}
	return ToPaymentListResponse(attempts), nil
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

// tierFor maps a checkout plan onto the stored subscription tier. Cancelled
// and lapsed subscriptions fall back to free.
func tierFor(plan, status string) string {
	switch status {
	case subscriptionCanceled, "unpaid", "incomplete_expired":
		return domainUser.TierFree
	}
	if p := strings.ToLower(strings.TrimSpace(plan)); p != "" {
		return p
	}
	return domainUser.TierPro
}

func money(amount float64, currency string) domainPayment.Money {
	return domainPayment.NewMoney(amount, currency)
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "Subscriber", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
