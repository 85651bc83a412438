package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketlive/internal/domain/outbox"
	"marketlive/internal/logger"
	"marketlive/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Enqueuer records side effects for asynchronous delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg Message) error
}

// Dispatcher writes messages to the outbox table.
type Dispatcher struct {
	repo        outbox.Repository
	metrics     *metrics.Metrics
	maxAttempts int
	now         func() time.Time
}

func NewDispatcher(repo outbox.Repository, m *metrics.Metrics, maxAttempts int) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 8
	}
	return &Dispatcher{
		repo:        repo,
		metrics:     m,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Enqueue stores msg once per idempotency key. A repeated key is not an error.
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		d.metrics.RecordOutboxEnqueue(string(msg.Kind), "error")
		return fmt.Errorf("failed to encode %s payload: %w", msg.Kind, err)
	}

	now := d.now()
	task := &outbox.Task{
		ID:             uuid.New(),
		IdempotencyKey: msg.Key,
		Kind:           msg.Kind,
		AggregateType:  msg.AggregateType,
		AggregateID:    msg.AggregateID,
		Payload:        payload,
		Status:         outbox.StatusPending,
		MaxAttempts:    d.maxAttempts,
		NextAttemptAt:  now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := d.repo.Enqueue(ctx, task)
	if err != nil {
		d.metrics.RecordOutboxEnqueue(string(msg.Kind), "error")
		return fmt.Errorf("failed to enqueue %s: %w", msg.Key, err)
	}

	if !created {
		d.metrics.RecordOutboxEnqueue(string(msg.Kind), "duplicate")
		logger.Debug("Outbox task already enqueued", zap.String("key", msg.Key))
		return nil
	}

	d.metrics.RecordOutboxEnqueue(string(msg.Kind), "created")
	return nil
}

// SafeEnqueue enqueues msg and only logs a failure. Used where a side effect
// must not fail the surrounding mutation.
func SafeEnqueue(ctx context.Context, e Enqueuer, m *metrics.Metrics, msg Message) {
	if e == nil {
		return
	}
	if err := e.Enqueue(ctx, msg); err != nil {
		m.RecordSideEffectFailure("outbox_enqueue")
		logger.Error("Failed to enqueue side effect",
			zap.String("key", msg.Key),
			zap.String("kind", string(msg.Kind)),
			zap.Error(err),
		)
	}
}
