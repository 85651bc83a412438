package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"marketlive/internal/domain/outbox"
	outboxMocks "marketlive/internal/domain/outbox/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDispatcher_Enqueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := outboxMocks.NewMockRepository(ctrl)
	d := NewDispatcher(repo, nil, 0)

	msg := Email("booking", "BK-1", "created", EmailPayload{To: "ops@example.com", Subject: "New booking"})

	repo.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, task *outbox.Task) (bool, error) {
		assert.Equal(t, "booking:BK-1:created:email", task.IdempotencyKey)
		assert.Equal(t, outbox.KindEmail, task.Kind)
		assert.Equal(t, outbox.StatusPending, task.Status)
		assert.Equal(t, 8, task.MaxAttempts)
		assert.Equal(t, "BK-1", task.AggregateID)

		var p EmailPayload
		require.NoError(t, json.Unmarshal(task.Payload, &p))
		assert.Equal(t, "ops@example.com", p.To)
		return true, nil
	})

	require.NoError(t, d.Enqueue(context.Background(), msg))
}

func TestDispatcher_DuplicateKeyIsNotAnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := outboxMocks.NewMockRepository(ctrl)
	d := NewDispatcher(repo, nil, 3)

	repo.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(false, nil)
	assert.NoError(t, d.Enqueue(context.Background(), InApp("booking", "BK-1", "approved", InAppPayload{Recipient: "user_1"})))
}

func TestDispatcher_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := outboxMocks.NewMockRepository(ctrl)
	d := NewDispatcher(repo, nil, 3)

	repo.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(false, errors.New("db down"))
	err := d.Enqueue(context.Background(), InApp("booking", "BK-1", "approved", InAppPayload{Recipient: "user_1"}))
	assert.ErrorContains(t, err, "booking:BK-1:approved:in_app")
}

func TestDispatcher_UnencodablePayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := NewDispatcher(outboxMocks.NewMockRepository(ctrl), nil, 3)

	err := d.Enqueue(context.Background(), Message{Key: "k", Kind: outbox.KindWorkflow, Payload: make(chan int)})
	assert.Error(t, err)
}

type recordingEnqueuer struct {
	msgs []Message
	err  error
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, msg Message) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func TestSafeEnqueue(t *testing.T) {
	SafeEnqueue(context.Background(), nil, nil, Message{Key: "ignored"})

	rec := &recordingEnqueuer{err: errors.New("db down")}
	SafeEnqueue(context.Background(), rec, nil, Message{Key: "shipment:SH-1:delivered:workflow"})
	require.Len(t, rec.msgs, 1)
	assert.Equal(t, "shipment:SH-1:delivered:workflow", rec.msgs[0].Key)
}
