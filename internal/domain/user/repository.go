package user

import "context"

type Repository interface {
	// Upsert inserts u or updates the row with the same ExternalID.
	Upsert(ctx context.Context, u *User) error
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*User, error)
	Update(ctx context.Context, u *User) error
	DeleteByExternalID(ctx context.Context, externalID string) error
	List(ctx context.Context, limit int) ([]*User, error)
	Count(ctx context.Context) (int64, error)
}

type OrganizationRepository interface {
	Upsert(ctx context.Context, o *Organization) error
	GetByExternalID(ctx context.Context, externalID string) (*Organization, error)
	Update(ctx context.Context, o *Organization) error
	DeleteByExternalID(ctx context.Context, externalID string) error
}
