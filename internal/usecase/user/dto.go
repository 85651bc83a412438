package user

import (
	"time"

	domainUser "marketlive/internal/domain/user"
)

type UserResponse struct {
	ID                 string    `json:"id"`
	ExternalID         string    `json:"externalId"`
	Name               string    `json:"name"`
	Email              *string   `json:"email,omitempty"`
	OrgID              *string   `json:"orgId,omitempty"`
	Role               *string   `json:"role,omitempty"`
	SubscriptionTier   *string   `json:"subscriptionTier,omitempty"`
	SubscriptionStatus *string   `json:"subscriptionStatus,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type UserListResponse struct {
	Users []*UserResponse `json:"users"`
	Total int             `json:"total"`
}

func ToUserResponse(u *domainUser.User) *UserResponse {
	return &UserResponse{
		ID:                 u.ID.String(),
		ExternalID:         u.ExternalID,
		Name:               u.Name,
		Email:              u.Email,
		OrgID:              u.OrgID,
		Role:               u.Role,
		SubscriptionTier:   u.SubscriptionTier,
		SubscriptionStatus: u.SubscriptionStatus,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func ToUserListResponse(users []*domainUser.User) *UserListResponse {
	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserResponse(u))
	}
	return &UserListResponse{Users: out, Total: len(out)}
}
