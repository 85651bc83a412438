package notification

import (
	"context"

	domainNotification "marketlive/internal/domain/notification"
	"marketlive/internal/identity"
	appErrors "marketlive/pkg/errors"

	"github.com/google/uuid"
)

const inboxLimit = 50

type ListRequest struct {
	UnreadOnly bool `form:"unread"`
}

type ListResponse struct {
	Notifications []*domainNotification.Notification `json:"notifications"`
	Unread        int                                `json:"unread"`
}

// Service reads the caller's in-app inbox. Delivery happens through the outbox.
type Service struct {
	notifications domainNotification.Repository
}

func NewService(notifications domainNotification.Repository) *Service {
	return &Service{notifications: notifications}
}

func (s *Service) List(ctx context.Context, id *identity.Identity, req ListRequest) (*ListResponse, error) {
	if !id.Authenticated() {
		return nil, appErrors.NewAppError(appErrors.CodeUnauthorized, "Authentication required", appErrors.ErrUnauthorized)
	}

	items, err := s.notifications.ListForRecipient(ctx, id.Subject, req.UnreadOnly, inboxLimit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domainNotification.Notification{}
	}

	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}
	return &ListResponse{Notifications: items, Unread: unread}, nil
}

// MarkRead only touches notifications addressed to the caller.
func (s *Service) MarkRead(ctx context.Context, id *identity.Identity, notificationID string) error {
	if !id.Authenticated() {
		return appErrors.NewAppError(appErrors.CodeUnauthorized, "Authentication required", appErrors.ErrUnauthorized)
	}
	nid, err := uuid.Parse(notificationID)
	if err != nil {
		return appErrors.Validation("Invalid notification ID", err)
	}
	return s.notifications.MarkRead(ctx, nid, id.Subject)
}
