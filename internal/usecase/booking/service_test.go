package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketlive/internal/domain/audit"
	auditMocks "marketlive/internal/domain/audit/mocks"
	domainBooking "marketlive/internal/domain/booking"
	bookingMocks "marketlive/internal/domain/booking/mocks"
	"marketlive/internal/domain/outbox"
	"marketlive/internal/domain/payment"
	paymentMocks "marketlive/internal/domain/payment/mocks"
	domainQuote "marketlive/internal/domain/quote"
	quoteMocks "marketlive/internal/domain/quote/mocks"
	"marketlive/internal/identity"
	"marketlive/internal/notify"
	appErrors "marketlive/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingOutbox struct {
	messages []notify.Message
	err      error
}

func (r *recordingOutbox) Enqueue(_ context.Context, msg notify.Message) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

type fixture struct {
	svc      *Service
	bookings *bookingMocks.MockRepository
	quotes   *quoteMocks.MockRepository
	payments *paymentMocks.MockRepository
	audits   *auditMocks.MockRepository
	outbox   *recordingOutbox
	now      time.Time
}

func newFixture(t *testing.T, cfg Config) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		bookings: bookingMocks.NewMockRepository(ctrl),
		quotes:   quoteMocks.NewMockRepository(ctrl),
		payments: paymentMocks.NewMockRepository(ctrl),
		audits:   auditMocks.NewMockRepository(ctrl),
		outbox:   &recordingOutbox{},
		now:      time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.bookings, f.quotes, f.payments, f.audits, f.outbox, nil, cfg)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func testQuote(validUntil string) *domainQuote.Quote {
	return &domainQuote.Quote{
		QuoteID: "QT-1",
		Status:  domainQuote.StatusSuccess,
		Offers: []domainQuote.CarrierOffer{{
			CarrierID:   "CARRIER-001",
			CarrierName: "Maersk Line",
			ServiceType: "sea",
			Price:       domainQuote.Price{Amount: 556.25, Currency: "USD"},
			ValidUntil:  validUntil,
		}},
	}
}

func createRequest() *CreateBookingRequest {
	return &CreateBookingRequest{
		QuoteID:        "QT-1",
		CarrierQuoteID: "CARRIER-001",
		CustomerDetails: domainBooking.CustomerDetails{
			Name:  "Ada Lovelace",
			Email: "ada@example.com",
		},
		PickupDetails:   domainBooking.StopDetails{Address: "1 Dock Rd, Shanghai", Date: "2025-03-11"},
		DeliveryDetails: domainBooking.StopDetails{Address: "9 Pier St, Los Angeles", Date: "2025-03-16"},
	}
}

var admin = &identity.Identity{Subject: "user_admin", Role: identity.RoleAdmin}

func TestCreate_Success(t *testing.T) {
	f := newFixture(t, Config{})
	caller := &identity.Identity{Subject: "user_1", OrgID: "org_1"}

	f.quotes.EXPECT().GetByQuoteID(gomock.Any(), "QT-1").Return(testQuote("2025-03-17T12:00:00Z"), nil)
	f.bookings.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, b *domainBooking.Booking) error {
			assert.Equal(t, domainBooking.StatusPending, b.Status)
			require.NotNil(t, b.ApprovalStatus)
			assert.Equal(t, domainBooking.ApprovalPending, *b.ApprovalStatus)
			assert.Regexp(t, `^BK-\d+-[0-9a-z]{9}$`, b.BookingID)
			assert.Equal(t, "user_1", *b.UserID)
			assert.Equal(t, "org_1", *b.OrgID)
			return nil
		})
	f.payments.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *payment.Attempt) error {
			assert.Equal(t, payment.StatusPending, a.Status)
			assert.Equal(t, payment.ChargeOneTime, a.ChargeType)
			assert.Equal(t, "Ada", a.Payer.FirstName)
			assert.Equal(t, "Lovelace", a.Payer.LastName)
			assert.Equal(t, "user_1", a.Payer.UserID)
			assert.Equal(t, 556.25, a.Totals.GrandTotal.Amount)
			assert.Equal(t, "$556.25", a.Totals.GrandTotal.AmountFormatted)
			require.Len(t, a.Items, 1)
			assert.Equal(t, "Freight: Maersk Line - sea", a.Items[0].Plan.Name)
			return nil
		})

	resp, err := f.svc.Create(context.Background(), caller, createRequest())
	require.NoError(t, err)
	assert.Equal(t, domainBooking.StatusPending, resp.Status)

	require.Len(t, f.outbox.messages, 1)
	msg := f.outbox.messages[0]
	assert.Equal(t, outbox.KindEmail, msg.Kind)
	assert.Equal(t, "booking:"+resp.BookingID+":created:email", msg.Key)
	email := msg.Payload.(notify.EmailPayload)
	assert.Equal(t, "ada@example.com", email.To)
	assert.Equal(t, "Booking Confirmation: "+resp.BookingID, email.Subject)
	assert.Contains(t, email.HTML, "1 Dock Rd, Shanghai")
}

func TestCreate_LinkageErrors(t *testing.T) {
	tests := []struct {
		name     string
		quote    *domainQuote.Quote
		quoteErr error
		carrier  string
		enforce  bool
		wantErr  error
		wantCode string
	}{
		{
			name:     "unknown quote",
			quoteErr: domainQuote.ErrQuoteNotFound,
			carrier:  "CARRIER-001",
			wantErr:  domainQuote.ErrQuoteNotFound,
			wantCode: appErrors.CodeNotFound,
		},
		{
			name:     "carrier not in quote",
			quote:    testQuote(""),
			carrier:  "CARRIER-999",
			wantErr:  domainQuote.ErrCarrierOfferNotFound,
			wantCode: appErrors.CodeValidation,
		},
		{
			name:     "expired offer when enforced",
			quote:    testQuote("2025-03-01T00:00:00Z"),
			carrier:  "CARRIER-001",
			enforce:  true,
			wantErr:  domainQuote.ErrOfferExpired,
			wantCode: appErrors.CodeExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{EnforceOfferExpiry: tt.enforce})
			f.quotes.EXPECT().GetByQuoteID(gomock.Any(), "QT-1").Return(tt.quote, tt.quoteErr)

			req := createRequest()
			req.CarrierQuoteID = tt.carrier
			_, err := f.svc.Create(context.Background(), nil, req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCode, appErrors.CodeOf(err))
			assert.Empty(t, f.outbox.messages)
		})
	}
}

func TestCreate_ExpiredOfferIsLenientByDefault(t *testing.T) {
	f := newFixture(t, Config{})

	f.quotes.EXPECT().GetByQuoteID(gomock.Any(), "QT-1").Return(testQuote("2025-03-01T00:00:00Z"), nil)
	f.bookings.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	f.payments.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *payment.Attempt) error {
			assert.Equal(t, payment.GuestPayer, a.Payer.UserID)
			return nil
		})

	resp, err := f.svc.Create(context.Background(), nil, createRequest())
	require.NoError(t, err)
	assert.Nil(t, resp.UserID)
}

func TestCreate_SideEffectFailuresDoNotFailBooking(t *testing.T) {
	f := newFixture(t, Config{})
	f.outbox.err = errors.New("outbox down")

	f.quotes.EXPECT().GetByQuoteID(gomock.Any(), "QT-1").Return(testQuote(""), nil)
	f.bookings.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	f.payments.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("insert failed"))

	resp, err := f.svc.Create(context.Background(), nil, createRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.BookingID)
}

func TestCreate_InvalidInput(t *testing.T) {
	f := newFixture(t, Config{})
	req := createRequest()
	req.CustomerDetails.Email = "not-an-email"

	_, err := f.svc.Create(context.Background(), nil, req)
	assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))
}

func TestApprove(t *testing.T) {
	f := newFixture(t, Config{})
	stored := &domainBooking.Booking{
		BookingID:       "BK-1",
		Status:          domainBooking.StatusPending,
		CustomerDetails: domainBooking.CustomerDetails{Name: "Ada", Email: "ada@example.com"},
	}

	f.bookings.EXPECT().GetByBookingID(gomock.Any(), "BK-1").Return(stored, nil)
	f.bookings.EXPECT().Update(gomock.Any(), stored, domainBooking.StatusPending).Return(nil)
	f.audits.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e *audit.Entry) error {
			assert.Equal(t, "booking.approved", e.Action)
			assert.Equal(t, "BK-1", e.EntityID)
			assert.Equal(t, "user_admin", e.UserID)
			return nil
		})

	notes := "verified"
	resp, err := f.svc.Approve(context.Background(), admin, "BK-1", &ApproveBookingRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, domainBooking.StatusApproved, resp.Status)
	assert.Equal(t, domainBooking.ApprovalApproved, *resp.ApprovalStatus)
	assert.Equal(t, "user_admin", *resp.ApprovedBy)
	assert.Equal(t, f.now, *resp.ApprovedAt)

	require.Len(t, f.outbox.messages, 1)
	assert.Equal(t, "booking:BK-1:approved:email", f.outbox.messages[0].Key)
	assert.Equal(t, "Booking Approved: BK-1", f.outbox.messages[0].Payload.(notify.EmailPayload).Subject)
}

func TestApprove_RequiresAdmin(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.svc.Approve(context.Background(), nil, "BK-1", nil)
	assert.Equal(t, appErrors.CodeUnauthorized, appErrors.CodeOf(err))

	client := &identity.Identity{Subject: "user_1", Role: identity.RoleClient}
	_, err = f.svc.Approve(context.Background(), client, "BK-1", nil)
	assert.Equal(t, appErrors.CodeForbidden, appErrors.CodeOf(err))
}

func TestApproveReject_OrganizationAdminIsForbidden(t *testing.T) {
	f := newFixture(t, Config{})
	orgAdmin := &identity.Identity{Subject: "user_2", OrgID: "org_1", Role: "org:admin"}

	_, err := f.svc.Approve(context.Background(), orgAdmin, "BK-1", nil)
	assert.Equal(t, appErrors.CodeForbidden, appErrors.CodeOf(err))

	_, err = f.svc.Reject(context.Background(), orgAdmin, "BK-1", &RejectBookingRequest{Reason: "not ours"})
	assert.Equal(t, appErrors.CodeForbidden, appErrors.CodeOf(err))

	pending, err := f.svc.ListPendingApprovals(context.Background(), orgAdmin)
	require.NoError(t, err)
	assert.Empty(t, pending.Bookings)
	assert.Empty(t, f.outbox.messages)
}

func TestApprove_TerminalBooking(t *testing.T) {
	f := newFixture(t, Config{})
	f.bookings.EXPECT().GetByBookingID(gomock.Any(), "BK-1").
		Return(&domainBooking.Booking{BookingID: "BK-1", Status: domainBooking.StatusDelivered}, nil)

	_, err := f.svc.Approve(context.Background(), admin, "BK-1", nil)
	assert.ErrorIs(t, err, domainBooking.ErrInvalidStatusTransition)
	assert.Empty(t, f.outbox.messages)
}

func TestReject(t *testing.T) {
	f := newFixture(t, Config{})
	stored := &domainBooking.Booking{
		BookingID:       "BK-1",
		Status:          domainBooking.StatusApproved,
		CustomerDetails: domainBooking.CustomerDetails{Email: "ada@example.com"},
	}

	f.bookings.EXPECT().GetByBookingID(gomock.Any(), "BK-1").Return(stored, nil)
	f.bookings.EXPECT().Update(gomock.Any(), stored, domainBooking.StatusApproved).Return(nil)
	f.audits.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	resp, err := f.svc.Reject(context.Background(), admin, "BK-1", &RejectBookingRequest{Reason: "Sanctioned route"})
	require.NoError(t, err)
	assert.Equal(t, domainBooking.StatusRejected, resp.Status)
	assert.Equal(t, "Sanctioned route", *resp.RejectionReason)
	assert.Empty(t, resp.AllowedTransitions)

	require.Len(t, f.outbox.messages, 1)
	email := f.outbox.messages[0].Payload.(notify.EmailPayload)
	assert.Equal(t, "Booking Update: BK-1", email.Subject)
	assert.Contains(t, email.HTML, "Sanctioned route")
}

func TestReject_ConcurrentDecision(t *testing.T) {
	f := newFixture(t, Config{})
	f.bookings.EXPECT().GetByBookingID(gomock.Any(), "BK-1").
		Return(&domainBooking.Booking{BookingID: "BK-1", Status: domainBooking.StatusPending}, nil)
	f.bookings.EXPECT().Update(gomock.Any(), gomock.Any(), domainBooking.StatusPending).
		Return(domainBooking.ErrConcurrentUpdate)

	_, err := f.svc.Reject(context.Background(), admin, "BK-1", &RejectBookingRequest{Reason: "duplicate"})
	assert.ErrorIs(t, err, domainBooking.ErrConcurrentUpdate)
	assert.Empty(t, f.outbox.messages)
}

func TestUpdateStatus_GatedTargetsAreRejected(t *testing.T) {
	f := newFixture(t, Config{})

	for _, target := range []string{"approved", "rejected"} {
		_, err := f.svc.UpdateStatus(context.Background(), admin, "BK-1", &UpdateStatusRequest{Status: target})
		assert.ErrorIs(t, err, domainBooking.ErrInvalidStatusTransition, target)
		assert.ErrorIs(t, err, domainBooking.ErrApprovalRequired, target)
	}
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.svc.UpdateStatus(context.Background(), admin, "BK-1", &UpdateStatusRequest{Status: "lost_at_sea"})
	assert.ErrorIs(t, err, domainBooking.ErrInvalidStatus)
}

func TestUpdateStatus_ConfirmedSendsDashboardEmail(t *testing.T) {
	f := newFixture(t, Config{AppURL: "https://app.example.com/"})
	owner := "user_1"
	stored := &domainBooking.Booking{
		BookingID:       "BK-1",
		Status:          domainBooking.StatusApproved,
		UserID:          &owner,
		CustomerDetails: domainBooking.CustomerDetails{Email: "ada@example.com"},
	}

	f.bookings.EXPECT().GetByBookingID(gomock.Any(), "BK-1").Return(stored, nil)
	f.bookings.EXPECT().Update(gomock.Any(), stored, domainBooking.StatusApproved).Return(nil)

	caller := &identity.Identity{Subject: "user_1"}
	resp, err := f.svc.UpdateStatus(context.Background(), caller, "BK-1", &UpdateStatusRequest{Status: "Confirmed"})
	require.NoError(t, err)
	assert.Equal(t, domainBooking.StatusConfirmed, resp.Status)

	require.Len(t, f.outbox.messages, 1)
	email := f.outbox.messages[0].Payload.(notify.EmailPayload)
	assert.Equal(t, "Booking Confirmed: BK-1", email.Subject)
	assert.Contains(t, email.HTML, "https://app.example.com/dashboard")
}

func TestUpdateStatus_IllegalEdge(t *testing.T) {
	f := newFixture(t, Config{})
	f.bookings.EXPECT().GetByBookingID(gomock.Any(), "BK-1").
		Return(&domainBooking.Booking{BookingID: "BK-1", Status: domainBooking.StatusPending}, nil)

	_, err := f.svc.UpdateStatus(context.Background(), admin, "BK-1", &UpdateStatusRequest{Status: "delivered"})
	assert.ErrorIs(t, err, domainBooking.ErrInvalidStatusTransition)
	assert.Equal(t, appErrors.CodeInvalidTransition, appErrors.CodeOf(err))
}

func TestUpdateStatus_ForeignBooking(t *testing.T) {
	f := newFixture(t, Config{})
	owner := "user_2"
	f.bookings.EXPECT().GetByBookingID(gomock.Any(), "BK-1").
		Return(&domainBooking.Booking{BookingID: "BK-1", Status: domainBooking.StatusPending, UserID: &owner}, nil)

	caller := &identity.Identity{Subject: "user_1"}
	_, err := f.svc.UpdateStatus(context.Background(), caller, "BK-1", &UpdateStatusRequest{Status: "cancelled"})
	assert.Equal(t, appErrors.CodeForbidden, appErrors.CodeOf(err))
}

func TestList_ScopesByOrganization(t *testing.T) {
	f := newFixture(t, Config{})

	f.bookings.EXPECT().List(gomock.Any(), domainBooking.Filter{OrgID: "org_1"}).
		Return([]*domainBooking.Booking{{BookingID: "BK-1", Status: domainBooking.StatusPending}}, nil)
	resp, err := f.svc.List(context.Background(), &identity.Identity{Subject: "user_1", OrgID: "org_1"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)

	f.bookings.EXPECT().List(gomock.Any(), domainBooking.Filter{UserID: "user_1"}).Return(nil, nil)
	resp, err = f.svc.List(context.Background(), &identity.Identity{Subject: "user_1"})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)

	resp, err = f.svc.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Bookings)
}

func TestListPendingApprovals_NonAdminGetsNothing(t *testing.T) {
	f := newFixture(t, Config{})

	resp, err := f.svc.ListPendingApprovals(context.Background(), &identity.Identity{Subject: "user_1"})
	require.NoError(t, err)
	assert.Empty(t, resp.Bookings)

	f.bookings.EXPECT().List(gomock.Any(), domainBooking.Filter{
		Status:         []domainBooking.Status{domainBooking.StatusPending},
		ApprovalStatus: domainBooking.ApprovalPending,
	}).Return([]*domainBooking.Booking{{BookingID: "BK-1", Status: domainBooking.StatusPending}}, nil)

	resp, err = f.svc.ListPendingApprovals(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
}
