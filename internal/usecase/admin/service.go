package admin

import (
	"context"
	"fmt"

	"marketlive/internal/domain/audit"
	domainBooking "marketlive/internal/domain/booking"
	"marketlive/internal/domain/outbox"
	domainShipment "marketlive/internal/domain/shipment"
	domainUser "marketlive/internal/domain/user"
	"marketlive/internal/identity"
	"marketlive/internal/infrastructure/ratelookup"
	"marketlive/internal/logger"
	bookingUC "marketlive/internal/usecase/booking"
	shipmentUC "marketlive/internal/usecase/shipment"
	userUC "marketlive/internal/usecase/user"
	appErrors "marketlive/pkg/errors"

	"go.uber.org/zap"
)

const (
	recentActivityLimit = 20
	listLimit           = 200
)

// RateProber checks connectivity to the external freight rate API.
type RateProber interface {
	Probe(ctx context.Context) (*ratelookup.ProbeResult, error)
}

// Service serves the admin dashboard. Every operation requires an admin identity.
type Service struct {
	bookings  domainBooking.Repository
	shipments domainShipment.Repository
	users     domainUser.Repository
	audits    audit.Repository
	outbox    outbox.Repository
	prober    RateProber
}

func NewService(
	bookings domainBooking.Repository,
	shipments domainShipment.Repository,
	users domainUser.Repository,
	audits audit.Repository,
	outboxRepo outbox.Repository,
	prober RateProber,
) *Service {
	return &Service{
		bookings:  bookings,
		shipments: shipments,
		users:     users,
		audits:    audits,
		outbox:    outboxRepo,
		prober:    prober,
	}
}

func (s *Service) DashboardStats(ctx context.Context, id *identity.Identity) (*DashboardStatsResponse, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}

	totalBookings, err := s.bookings.Count(ctx, domainBooking.Filter{})
	if err != nil {
		return nil, err
	}
	pending, err := s.bookings.Count(ctx, domainBooking.Filter{Status: []domainBooking.Status{domainBooking.StatusPending}})
	if err != nil {
		return nil, err
	}
	active, err := s.shipments.Count(ctx, domainShipment.Filter{Statuses: []domainShipment.Status{domainShipment.StatusInTransit}})
	if err != nil {
		return nil, err
	}
	customers, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	approvals := "0"
	if pending > 0 {
		approvals = fmt.Sprintf("+%d", pending)
	}

	return &DashboardStatsResponse{
		TotalBookings:    totalBookings,
		ActiveShipments:  active,
		TotalCustomers:   customers,
		PendingApprovals: pending,
		Trends: Trends{
			Bookings:  "+12.5%",
			Shipments: "+4",
			Customers: "+8.2%",
			Approvals: approvals,
		},
	}, nil
}

func (s *Service) ListAllBookings(ctx context.Context, id *identity.Identity) (*bookingUC.BookingListResponse, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	bookings, err := s.bookings.List(ctx, domainBooking.Filter{Limit: listLimit})
	if err != nil {
		return nil, err
	}
	return bookingUC.ToBookingListResponse(bookings), nil
}

func (s *Service) ListAllShipments(ctx context.Context, id *identity.Identity) (*shipmentUC.ShipmentListResponse, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	shipments, err := s.shipments.List(ctx, domainShipment.Filter{Limit: listLimit})
	if err != nil {
		return nil, err
	}
	return shipmentUC.ToShipmentListResponse(shipments), nil
}

// RecentActivity returns the newest audit entries.
func (s *Service) RecentActivity(ctx context.Context, id *identity.Identity) (*ActivityResponse, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	entries, err := s.audits.ListRecent(ctx, recentActivityLimit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}
	return &ActivityResponse{Entries: entries, Total: len(entries)}, nil
}

func (s *Service) ListCustomers(ctx context.Context, id *identity.Identity) (*userUC.UserListResponse, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, listLimit)
	if err != nil {
		return nil, err
	}
	return userUC.ToUserListResponse(users), nil
}

// ListFailedDeliveries returns outbox tasks that exhausted their retries.
func (s *Service) ListFailedDeliveries(ctx context.Context, id *identity.Identity) (*FailedDeliveryListResponse, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	tasks, err := s.outbox.List(ctx, outbox.StatusFailed, listLimit)
	if err != nil {
		return nil, err
	}
	return ToFailedDeliveryListResponse(tasks), nil
}

// TestFreightRateConnection probes the rate API. Failures are reported in
// the result rather than as errors.
func (s *Service) TestFreightRateConnection(ctx context.Context, id *identity.Identity) (*ratelookup.ProbeResult, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	if s.prober == nil {
		return &ratelookup.ProbeResult{Success: false, Error: "Freight rate API is not configured"}, nil
	}

	result, err := s.prober.Probe(ctx)
	if err != nil {
		logger.Warn("Freight rate probe failed", zap.Error(err))
		return &ratelookup.ProbeResult{Success: false, Error: err.Error()}, nil
	}
	return result, nil
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
