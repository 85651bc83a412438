package compliance

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *Verification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Verification, error)
	GetByUserID(ctx context.Context, userID string) (*Verification, error)
	Update(ctx context.Context, v *Verification) error
}
