package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketlive/internal/domain/notification"
	"marketlive/internal/domain/outbox"

	"github.com/google/uuid"
)

// Publisher pushes a stored notification to live clients.
type Publisher interface {
	Publish(n *notification.Notification) int
}

// InAppSink stores the notification, then pushes it to any open sockets.
type InAppSink struct {
	repo notification.Repository
	live Publisher
	now  func() time.Time
}

func NewInAppSink(repo notification.Repository, live Publisher) *InAppSink {
	return &InAppSink{repo: repo, live: live, now: time.Now}
}

func (s *InAppSink) Deliver(ctx context.Context, task *outbox.Task) error {
	var p InAppPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		return fmt.Errorf("%w: bad in-app payload: %v", ErrPermanent, err)
	}
	if p.Recipient == "" {
		return fmt.Errorf("%w: in-app task without recipient", ErrPermanent)
	}

	n := &notification.Notification{
		// Derived from the task so a redelivery rewrites the same row.
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(task.IdempotencyKey)),
		Recipient: p.Recipient,
		Title:     p.Title,
		Message:   p.Message,
		Type:      p.Type,
		Priority:  p.Priority,
		ActionURL: p.ActionURL,
		CreatedAt: s.now(),
	}
	if n.Priority == "" {
		n.Priority = notification.PriorityNormal
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	if s.live != nil {
		s.live.Publish(n)
	}
	return nil
}
