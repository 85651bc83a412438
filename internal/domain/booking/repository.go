package booking

import "context"

type Filter struct {
	UserID         string
	OrgID          string
	Status         []Status
	ApprovalStatus ApprovalStatus
	Limit          int
}

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByBookingID(ctx context.Context, bookingID string) (*Booking, error)
	// Update writes b only if the stored status still equals expected.
	Update(ctx context.Context, b *Booking, expected Status) error
	List(ctx context.Context, filter Filter) ([]*Booking, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}
