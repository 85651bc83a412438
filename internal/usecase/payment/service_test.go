package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"marketlive/internal/domain/audit"
	auditMocks "marketlive/internal/domain/audit/mocks"
	domainPayment "marketlive/internal/domain/payment"
	paymentMocks "marketlive/internal/domain/payment/mocks"
	domainUser "marketlive/internal/domain/user"
	userMocks "marketlive/internal/domain/user/mocks"
	"marketlive/internal/identity"
	"marketlive/internal/infrastructure/stripe"
	appErrors "marketlive/pkg/errors"
	"marketlive/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type stubProcessor struct {
	params stripe.CheckoutParams
	event  domainPayment.WebhookEvent
	err    error
}

func (p *stubProcessor) CreateCheckoutSession(_ context.Context, params stripe.CheckoutParams) (*stripe.CheckoutSession, error) {
	p.params = params
	if p.err != nil {
		return nil, p.err
	}
	return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.example.com/cs_1"}, nil
}

func (p *stubProcessor) ParseWebhook([]byte, string) (domainPayment.WebhookEvent, error) {
	return p.event, p.err
}

type fixture struct {
	svc       *Service
	payments  *paymentMocks.MockRepository
	users     *userMocks.MockRepository
	orgs      *userMocks.MockOrganizationRepository
	audits    *auditMocks.MockRepository
	processor *stubProcessor
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		payments:  paymentMocks.NewMockRepository(ctrl),
		users:     userMocks.NewMockRepository(ctrl),
		orgs:      userMocks.NewMockOrganizationRepository(ctrl),
		audits:    auditMocks.NewMockRepository(ctrl),
		processor: &stubProcessor{},
	}
	f.svc = NewService(f.payments, f.users, f.orgs, f.audits, f.processor, nil)
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }
	return f
}

func TestCreateCheckoutSession(t *testing.T) {
	f := newFixture(t)
	caller := &identity.Identity{Subject: "user_1", Email: "u@example.com"}

	f.users.EXPECT().GetByExternalID(gomock.Any(), "user_1").Return(&domainUser.User{
		ExternalID:       "user_1",
		StripeCustomerID: utils.StringPtr("cus_1"),
	}, nil)

	resp, err := f.svc.CreateCheckoutSession(context.Background(), caller, &CheckoutRequest{PriceID: "price_1", Plan: "pro"})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/cs_1", resp.URL)
	assert.Equal(t, "cus_1", f.processor.params.CustomerID)
	assert.Equal(t, "user_1", f.processor.params.UserID)
	assert.Equal(t, "pro", f.processor.params.Plan)
}

func TestCreateCheckoutSession_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateCheckoutSession(context.Background(), nil, &CheckoutRequest{PriceID: "p", Plan: "pro"})
	assert.Equal(t, appErrors.CodeUnauthorized, appErrors.CodeOf(err))

	caller := &identity.Identity{Subject: "user_1"}
	_, err = f.svc.CreateCheckoutSession(context.Background(), caller, &CheckoutRequest{PriceID: "p", Plan: "platinum"})
	assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))

	f.processor.err = errors.New("stripe down")
	f.users.EXPECT().GetByExternalID(gomock.Any(), "user_1").Return(nil, domainUser.ErrUserNotFound)
	_, err = f.svc.CreateCheckoutSession(context.Background(), caller, &CheckoutRequest{PriceID: "p", Plan: "pro"})
	assert.Equal(t, appErrors.CodeVendor, appErrors.CodeOf(err))
}

func TestHandleStripeWebhook_InvalidSignature(t *testing.T) {
	f := newFixture(t)
	f.processor.err = fmt.Errorf("%w: bad header", appErrors.ErrInvalidSignature)

	err := f.svc.HandleStripeWebhook(context.Background(), []byte("{}"), "t=1,v1=bad")
	assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))
	assert.ErrorIs(t, err, appErrors.ErrInvalidSignature)
}

func TestHandleStripeWebhook_SubscriptionChanges(t *testing.T) {
	tests := []struct {
		name   string
		event  domainPayment.SubscriptionChanged
		tier   string
		status string
	}{
		{
			name:   "updated",
			event:  domainPayment.SubscriptionChanged{Type: domainPayment.EventSubscriptionUpdated, UserID: "user_1", CustomerID: "cus_1", Status: "active", Plan: "enterprise"},
			tier:   "enterprise",
			status: "active",
		},
		{
			name:   "deleted",
			event:  domainPayment.SubscriptionChanged{Type: domainPayment.EventSubscriptionDeleted, UserID: "user_1", CustomerID: "cus_1", Status: "active", Plan: "pro"},
			tier:   domainUser.TierFree,
			status: "canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.processor.event = tt.event

			u := &domainUser.User{ExternalID: "user_1", OrgID: utils.StringPtr("org_1")}
			org := &domainUser.Organization{ExternalID: "org_1"}
			f.users.EXPECT().GetByExternalID(gomock.Any(), "user_1").Return(u, nil)
			f.users.EXPECT().Update(gomock.Any(), u).DoAndReturn(func(_ context.Context, got *domainUser.User) error {
				assert.Equal(t, tt.tier, *got.SubscriptionTier)
				assert.Equal(t, tt.status, *got.SubscriptionStatus)
				assert.Equal(t, "cus_1", *got.StripeCustomerID)
				return nil
			})
			f.orgs.EXPECT().GetByExternalID(gomock.Any(), "org_1").Return(org, nil)
			f.orgs.EXPECT().Update(gomock.Any(), org).Return(nil)
			f.audits.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *audit.Entry) error {
				assert.Equal(t, "subscription.updated_via_webhook", e.Action)
				assert.Equal(t, "org_1", e.OrgID)
				return nil
			})

			require.NoError(t, f.svc.HandleStripeWebhook(context.Background(), nil, "sig"))
			assert.Equal(t, tt.tier, *org.SubscriptionTier)
		})
	}
}

func TestHandleStripeWebhook_UnknownUserIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.processor.event = domainPayment.CheckoutCompleted{UserID: "ghost", CustomerID: "cus_9", Plan: "pro"}

	f.users.EXPECT().GetByExternalID(gomock.Any(), "ghost").Return(nil, domainUser.ErrUserNotFound)
	f.users.EXPECT().GetByStripeCustomerID(gomock.Any(), "cus_9").Return(nil, domainUser.ErrUserNotFound)

	assert.NoError(t, f.svc.HandleStripeWebhook(context.Background(), nil, "sig"))
}

func TestHandleStripeWebhook_InvoicePaid(t *testing.T) {
	f := newFixture(t)
	paidAt := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	f.processor.event = domainPayment.InvoicePayment{
		Type:       domainPayment.EventInvoicePaymentPaid,
		InvoiceID:  "in_1",
		Number:     "INV-0001",
		CustomerID: "cus_1",
		Email:      "u@example.com",
		Name:       "Ada Lovelace",
		Currency:   "USD",
		AmountPaid: 49,
		Subtotal:   40,
		Total:      49,
		PaidAt:     paidAt,
	}

	f.users.EXPECT().GetByStripeCustomerID(gomock.Any(), "cus_1").Return(&domainUser.User{ExternalID: "user_1"}, nil)
	f.payments.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a *domainPayment.Attempt) error {
		assert.Equal(t, "PAY-in_1", a.PaymentID)
		assert.Equal(t, "INV-0001", a.InvoiceID)
		assert.Equal(t, domainPayment.StatusPaid, a.Status)
		assert.Equal(t, "Ada", a.Payer.FirstName)
		assert.Equal(t, "user_1", a.Payer.UserID)
		assert.Equal(t, "$49.00", a.Totals.GrandTotal.AmountFormatted)
		assert.InDelta(t, 9.0, a.Totals.TaxTotal.Amount, 1e-9)
		return nil
	})
	f.audits.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *audit.Entry) error {
		assert.Equal(t, "payment.succeeded_via_webhook", e.Action)
		assert.Equal(t, "$49.00", e.Details["amount"])
		return nil
	})

	require.NoError(t, f.svc.HandleStripeWebhook(context.Background(), nil, "sig"))
}

func TestHandleStripeWebhook_InvoiceRedelivery(t *testing.T) {
	f := newFixture(t)
	f.processor.event = domainPayment.InvoicePayment{Type: domainPayment.EventInvoicePaymentFailed, InvoiceID: "in_2"}

	f.payments.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domainPayment.ErrDuplicatePayment)
	assert.NoError(t, f.svc.HandleStripeWebhook(context.Background(), nil, "sig"))
}

func TestHandleStripeWebhook_IgnoredEvent(t *testing.T) {
	f := newFixture(t)
	f.processor.event = domainPayment.IgnoredEvent{Type: "charge.refunded"}
	assert.NoError(t, f.svc.HandleStripeWebhook(context.Background(), nil, "sig"))
}

func TestListPayments(t *testing.T) {
	f := newFixture(t)

	f.payments.EXPECT().List(gomock.Any(), domainPayment.Filter{UserID: "user_1"}).Return([]*domainPayment.Attempt{{PaymentID: "PAY-1"}}, nil)
	resp, err := f.svc.ListMy(context.Background(), &identity.Identity{Subject: "user_1"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	assert.NotNil(t, resp.Payments[0].Items)

	_, err = f.svc.ListAll(context.Background(), &identity.Identity{Subject: "user_1"})
	assert.Equal(t, appErrors.CodeForbidden, appErrors.CodeOf(err))

	f.payments.EXPECT().List(gomock.Any(), domainPayment.Filter{}).Return(nil, nil)
	_, err = f.svc.ListAll(context.Background(), &identity.Identity{Subject: "admin", Role: "admin"})
	require.NoError(t, err)
}
