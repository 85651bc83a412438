package admin

import (
	"context"
	"errors"
	"testing"

	"marketlive/internal/domain/audit"
	auditMocks "marketlive/internal/domain/audit/mocks"
	domainBooking "marketlive/internal/domain/booking"
	bookingMocks "marketlive/internal/domain/booking/mocks"
	"marketlive/internal/domain/outbox"
	outboxMocks "marketlive/internal/domain/outbox/mocks"
	domainShipment "marketlive/internal/domain/shipment"
	domainUser "marketlive/internal/domain/user"
	userMocks "marketlive/internal/domain/user/mocks"
	"marketlive/internal/identity"
	"marketlive/internal/infrastructure/ratelookup"
	appErrors "marketlive/pkg/errors"
	"marketlive/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// countingShipments implements the shipment repository methods the admin
// service calls; the rest are never reached.
type countingShipments struct {
	domainShipment.Repository
	active    int64
	shipments []*domainShipment.Shipment
}

func (c *countingShipments) Count(_ context.Context, f domainShipment.Filter) (int64, error) {
	if len(f.Statuses) == 1 && f.Statuses[0] == domainShipment.StatusInTransit {
		return c.active, nil
	}
	return 0, nil
}

func (c *countingShipments) List(context.Context, domainShipment.Filter) ([]*domainShipment.Shipment, error) {
	return c.shipments, nil
}

type stubProber struct {
	result *ratelookup.ProbeResult
	err    error
}

func (p stubProber) Probe(context.Context) (*ratelookup.ProbeResult, error) {
	return p.result, p.err
}

var admin = &identity.Identity{Subject: "admin_1", Role: "admin"}

type fixture struct {
	svc       *Service
	bookings  *bookingMocks.MockRepository
	users     *userMocks.MockRepository
	audits    *auditMocks.MockRepository
	outbox    *outboxMocks.MockRepository
	shipments *countingShipments
}

func newFixture(t *testing.T, prober RateProber) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		bookings:  bookingMocks.NewMockRepository(ctrl),
		users:     userMocks.NewMockRepository(ctrl),
		audits:    auditMocks.NewMockRepository(ctrl),
		outbox:    outboxMocks.NewMockRepository(ctrl),
		shipments: &countingShipments{},
	}
	f.svc = NewService(f.bookings, f.shipments, f.users, f.audits, f.outbox, prober)
	return f
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t, nil)
	f.shipments.active = 3

	f.bookings.EXPECT().Count(gomock.Any(), domainBooking.Filter{}).Return(int64(10), nil)
	f.bookings.EXPECT().Count(gomock.Any(), domainBooking.Filter{Status: []domainBooking.Status{domainBooking.StatusPending}}).Return(int64(2), nil)
	f.users.EXPECT().Count(gomock.Any()).Return(int64(7), nil)

	stats, err := f.svc.DashboardStats(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.TotalBookings)
	assert.Equal(t, int64(3), stats.ActiveShipments)
	assert.Equal(t, int64(7), stats.TotalCustomers)
	assert.Equal(t, int64(2), stats.PendingApprovals)
	assert.Equal(t, "+2", stats.Trends.Approvals)
}

func TestAdminOnly(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	client := &identity.Identity{Subject: "user_1", Role: "client"}

	calls := map[string]func(*identity.Identity) error{
		"stats":    func(id *identity.Identity) error { _, err := f.svc.DashboardStats(ctx, id); return err },
		"bookings": func(id *identity.Identity) error { _, err := f.svc.ListAllBookings(ctx, id); return err },
		"activity": func(id *identity.Identity) error { _, err := f.svc.RecentActivity(ctx, id); return err },
		"failed":   func(id *identity.Identity) error { _, err := f.svc.ListFailedDeliveries(ctx, id); return err },
		"probe":    func(id *identity.Identity) error { _, err := f.svc.TestFreightRateConnection(ctx, id); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, appErrors.CodeForbidden, appErrors.CodeOf(call(client)))
			assert.Equal(t, appErrors.CodeUnauthorized, appErrors.CodeOf(call(nil)))
		})
	}
}

func TestRecentActivity(t *testing.T) {
	f := newFixture(t, nil)
	f.audits.EXPECT().ListRecent(gomock.Any(), 20).Return([]*audit.Entry{{Action: "booking.approved"}}, nil)

	resp, err := f.svc.RecentActivity(context.Background(), admin)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "booking.approved", resp.Entries[0].Action)
}

func TestListFailedDeliveries(t *testing.T) {
	f := newFixture(t, nil)
	task := &outbox.Task{
		ID:             uuid.New(),
		IdempotencyKey: "booking:BK-1:created:email",
		Kind:           outbox.KindEmail,
		Status:         outbox.StatusFailed,
		Attempts:       8,
		LastError:      utils.StringPtr("smtp: 550"),
	}
	f.outbox.EXPECT().List(gomock.Any(), outbox.StatusFailed, gomock.Any()).Return([]*outbox.Task{task}, nil)

	resp, err := f.svc.ListFailedDeliveries(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, resp.Deliveries, 1)
	assert.Equal(t, "smtp: 550", resp.Deliveries[0].LastError)
	assert.Equal(t, 8, resp.Deliveries[0].Attempts)
}

func TestListAll(t *testing.T) {
	f := newFixture(t, nil)
	f.shipments.shipments = []*domainShipment.Shipment{{ShipmentID: "SH-1", Status: domainShipment.StatusDelivered}}

	f.bookings.EXPECT().List(gomock.Any(), gomock.Any()).Return([]*domainBooking.Booking{{BookingID: "BK-1", Status: domainBooking.StatusPending}}, nil)
	f.users.EXPECT().List(gomock.Any(), gomock.Any()).Return([]*domainUser.User{{ExternalID: "user_1"}}, nil)

	bookings, err := f.svc.ListAllBookings(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 1, bookings.Total)

	shipments, err := f.svc.ListAllShipments(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, "SH-1", shipments.Shipments[0].ShipmentID)

	customers, err := f.svc.ListCustomers(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, "user_1", customers.Users[0].ExternalID)
}

func TestTestFreightRateConnection(t *testing.T) {
	tests := []struct {
		name    string
		prober  RateProber
		success bool
		errMsg  string
	}{
		{"not configured", nil, false, "Freight rate API is not configured"},
		{"reachable", stubProber{result: &ratelookup.ProbeResult{Success: true, Status: 200}}, true, ""},
		{"breaker open", stubProber{err: errors.New("circuit breaker is open")}, false, "circuit breaker is open"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.prober)
			res, err := f.svc.TestFreightRateConnection(context.Background(), admin)
			require.NoError(t, err)
			assert.Equal(t, tt.success, res.Success)
			assert.Equal(t, tt.errMsg, res.Error)
		})
	}
}
