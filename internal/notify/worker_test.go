package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"marketlive/internal/domain/outbox"
	outboxMocks "marketlive/internal/domain/outbox/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type stubSink struct {
	err   error
	calls int
}

func (s *stubSink) Deliver(context.Context, *outbox.Task) error {
	s.calls++
	return s.err
}

var workerNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func newTestWorker(t *testing.T, sinks map[outbox.Kind]Sink) (*Worker, *outboxMocks.MockRepository) {
	ctrl := gomock.NewController(t)
	repo := outboxMocks.NewMockRepository(ctrl)
	w := NewWorker(repo, sinks, nil, WorkerConfig{
		BatchSize:   10,
		BaseBackoff: time.Second,
		MaxBackoff:  10 * time.Second,
	})
	w.now = func() time.Time { return workerNow }
	return w, repo
}

func TestWorker_DeliversAndMarksDone(t *testing.T) {
	sink := &stubSink{}
	w, repo := newTestWorker(t, map[outbox.Kind]Sink{outbox.KindEmail: sink})
	task := &outbox.Task{ID: uuid.New(), Kind: outbox.KindEmail, MaxAttempts: 8}

	repo.EXPECT().ClaimDue(gomock.Any(), workerNow, 10, time.Minute).Return([]*outbox.Task{task}, nil)
	repo.EXPECT().MarkDone(gomock.Any(), task.ID, workerNow).Return(nil)

	n, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, 1, w.Stats()["delivered"])
}

func TestWorker_RetriesWithBackoff(t *testing.T) {
	tests := []struct {
		name     string
		attempts int
		delay    time.Duration
	}{
		{"first failure", 0, time.Second},
		{"third failure", 2, 4 * time.Second},
		{"capped", 6, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, repo := newTestWorker(t, map[outbox.Kind]Sink{outbox.KindEmail: &stubSink{err: errors.New("smtp: 421")}})
			task := &outbox.Task{ID: uuid.New(), Kind: outbox.KindEmail, Attempts: tt.attempts, MaxAttempts: 8}

			repo.EXPECT().ClaimDue(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return([]*outbox.Task{task}, nil)
			repo.EXPECT().MarkRetry(gomock.Any(), task.ID, tt.attempts+1, "smtp: 421", workerNow.Add(tt.delay)).Return(nil)

			_, err := w.ProcessOnce(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 0, w.Stats()["failed"])
		})
	}
}

func TestWorker_MarksFailed(t *testing.T) {
	tests := []struct {
		name  string
		sinks map[outbox.Kind]Sink
		task  *outbox.Task
	}{
		{
			name:  "permanent error",
			sinks: map[outbox.Kind]Sink{outbox.KindInApp: &stubSink{err: fmt.Errorf("%w: no recipient", ErrPermanent)}},
			task:  &outbox.Task{ID: uuid.New(), Kind: outbox.KindInApp, MaxAttempts: 8},
		},
		{
			name:  "retries exhausted",
			sinks: map[outbox.Kind]Sink{outbox.KindInApp: &stubSink{err: errors.New("timeout")}},
			task:  &outbox.Task{ID: uuid.New(), Kind: outbox.KindInApp, Attempts: 7, MaxAttempts: 8},
		},
		{
			name:  "no sink for kind",
			sinks: map[outbox.Kind]Sink{},
			task:  &outbox.Task{ID: uuid.New(), Kind: outbox.KindWorkflow, MaxAttempts: 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, repo := newTestWorker(t, tt.sinks)

			repo.EXPECT().ClaimDue(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return([]*outbox.Task{tt.task}, nil)
			repo.EXPECT().MarkFailed(gomock.Any(), tt.task.ID, tt.task.Attempts+1, gomock.Any()).Return(nil)

			_, err := w.ProcessOnce(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, w.Stats()["failed"])
		})
	}
}

func TestWorker_ClaimError(t *testing.T) {
	w, repo := newTestWorker(t, nil)
	repo.EXPECT().ClaimDue(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	n, err := w.ProcessOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	w, repo := newTestWorker(t, nil)
	w.cfg.PollInterval = time.Millisecond
	repo.EXPECT().ClaimDue(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, w.Run(ctx))
}
