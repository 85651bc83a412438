package document

import (
	"context"

	"github.com/google/uuid"
)

type Filter struct {
	UserID     string
	OrgID      string
	Type       Type
	Status     Status
	BookingID  string
	ShipmentID string
	Limit      int
}

type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	GetByShareToken(ctx context.Context, token string) (*Document, error)
	Update(ctx context.Context, d *Document) error
	List(ctx context.Context, filter Filter) ([]*Document, error)
}
