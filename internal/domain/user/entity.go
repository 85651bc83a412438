package user

import (
	"time"

	"github.com/google/uuid"
)

const (
	TierFree = "free"
	TierPro  = "pro"
)

// User mirrors an identity-provider account.
type User struct {
	ID                 uuid.UUID
	ExternalID         string
	Name               string
	Email              *string
	OrgID              *string
	Role               *string
	SubscriptionTier   *string
	SubscriptionStatus *string
	StripeCustomerID   *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Organization mirrors an identity-provider organization.
type Organization struct {
	ID           uuid.UUID
	ExternalID   string
	Name         string
	Slug         *string
	ImageURL     *string
	CreatedBy    *string
	MembersCount *int

	SubscriptionTier   *string
	SubscriptionStatus *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
