package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"marketlive/internal/domain/notification"
	notificationMocks "marketlive/internal/domain/notification/mocks"
	"marketlive/internal/domain/outbox"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingPublisher struct {
	published []*notification.Notification
}

func (p *recordingPublisher) Publish(n *notification.Notification) int {
	p.published = append(p.published, n)
	return 1
}

func inAppTask(t *testing.T, key string, p InAppPayload) *outbox.Task {
	payload, err := json.Marshal(p)
	require.NoError(t, err)
	return &outbox.Task{ID: uuid.New(), IdempotencyKey: key, Kind: outbox.KindInApp, Payload: payload}
}

func TestInAppSink_StoresAndPublishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := notificationMocks.NewMockRepository(ctrl)
	live := &recordingPublisher{}
	sink := NewInAppSink(repo, live)

	key := "booking:BK-1:approved:in_app"
	task := inAppTask(t, key, InAppPayload{Recipient: "user_1", Title: "Booking approved", Type: "booking"})

	var stored *notification.Notification
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n *notification.Notification) error {
		stored = n
		return nil
	}).Times(2)

	require.NoError(t, sink.Deliver(context.Background(), task))
	first := stored.ID
	assert.Equal(t, uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)), first)
	assert.Equal(t, notification.PriorityNormal, stored.Priority)
	assert.Equal(t, "user_1", stored.Recipient)

	// redelivery targets the same row
	require.NoError(t, sink.Deliver(context.Background(), task))
	assert.Equal(t, first, stored.ID)
	assert.Len(t, live.published, 2)
}

func TestInAppSink_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := notificationMocks.NewMockRepository(ctrl)
	live := &recordingPublisher{}
	sink := NewInAppSink(repo, live)

	err := sink.Deliver(context.Background(), &outbox.Task{Payload: []byte("{")})
	assert.ErrorIs(t, err, ErrPermanent)

	err = sink.Deliver(context.Background(), inAppTask(t, "k", InAppPayload{Title: "orphan"}))
	assert.ErrorIs(t, err, ErrPermanent)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
	err = sink.Deliver(context.Background(), inAppTask(t, "k", InAppPayload{Recipient: "user_1"}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPermanent)
	assert.Empty(t, live.published)
}

type recordingSender struct {
	to, subject string
}

func (s *recordingSender) Send(_ context.Context, to, subject, _ string) error {
	s.to, s.subject = to, subject
	return nil
}

func TestEmailSink(t *testing.T) {
	sender := &recordingSender{}
	sink := NewEmailSink(sender)

	payload, _ := json.Marshal(EmailPayload{To: "ops@example.com", Subject: "New booking", HTML: "<p>hi</p>"})
	require.NoError(t, sink.Deliver(context.Background(), &outbox.Task{Payload: payload}))
	assert.Equal(t, "ops@example.com", sender.to)
	assert.Equal(t, "New booking", sender.subject)

	payload, _ = json.Marshal(EmailPayload{Subject: "nobody"})
	assert.ErrorIs(t, sink.Deliver(context.Background(), &outbox.Task{Payload: payload}), ErrPermanent)
}
