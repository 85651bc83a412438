package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"marketlive/internal/domain/outbox"
	"marketlive/internal/logger"
	"marketlive/internal/metrics"

	"go.uber.org/zap"
)

// Sink delivers one outbox task. Returning an error schedules a retry.
type Sink interface {
	Deliver(ctx context.Context, task *outbox.Task) error
}

// ErrPermanent marks a delivery failure that must not be retried.
var ErrPermanent = errors.New("permanent delivery failure")

type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Lease        time.Duration
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval: 2 * time.Second,
		BatchSize:    50,
		Lease:        time.Minute,
		BaseBackoff:  5 * time.Second,
		MaxBackoff:   10 * time.Minute,
	}
}

// Worker polls the outbox and hands due tasks to their sinks.
type Worker struct {
	repo    outbox.Repository
	sinks   map[outbox.Kind]Sink
	metrics *metrics.Metrics
	cfg     WorkerConfig
	now     func() time.Time
	log     *zap.Logger

	mu        sync.Mutex
	delivered int
	failed    int
}

func NewWorker(repo outbox.Repository, sinks map[outbox.Kind]Sink, m *metrics.Metrics, cfg WorkerConfig) *Worker {
	def := DefaultWorkerConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Lease <= 0 {
		cfg.Lease = def.Lease
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}

	return &Worker{
		repo:    repo,
		sinks:   sinks,
		metrics: m,
		cfg:     cfg,
		now:     time.Now,
		log:     logger.Named("outbox"),
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("Starting outbox worker",
		zap.Duration("interval", w.cfg.PollInterval),
		zap.Int("batch_size", w.cfg.BatchSize),
	)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
				w.log.Error("Outbox poll failed", zap.Error(err))
			}
		case <-ctx.Done():
			stats := w.Stats()
			w.log.Info("Outbox worker stopped",
				zap.Int("delivered", stats["delivered"]),
				zap.Int("failed", stats["failed"]),
			)
			return nil
		}
	}
}

// ProcessOnce claims one batch and delivers it, returning the batch size.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	tasks, err := w.repo.ClaimDue(ctx, w.now(), w.cfg.BatchSize, w.cfg.Lease)
	if err != nil {
		return 0, fmt.Errorf("failed to claim outbox tasks: %w", err)
	}
	w.metrics.SetOutboxBatch(len(tasks))

	for _, task := range tasks {
		w.deliver(ctx, task)
	}
	return len(tasks), nil
}

func (w *Worker) deliver(ctx context.Context, task *outbox.Task) {
	start := time.Now()
	attempts := task.Attempts + 1

	sink, ok := w.sinks[task.Kind]
	var err error
	if !ok {
		err = fmt.Errorf("%w: no sink for kind %s", ErrPermanent, task.Kind)
	} else {
		err = sink.Deliver(ctx, task)
	}

	if err == nil {
		w.metrics.RecordOutboxDelivery(string(task.Kind), "done", time.Since(start))
		if markErr := w.repo.MarkDone(ctx, task.ID, w.now()); markErr != nil {
			w.log.Error("Failed to mark outbox task done", zap.String("key", task.IdempotencyKey), zap.Error(markErr))
		}
		w.mu.Lock()
		w.delivered++
		w.mu.Unlock()
		return
	}

	if errors.Is(err, ErrPermanent) || task.Exhausted(attempts) {
		w.metrics.RecordOutboxDelivery(string(task.Kind), "failed", time.Since(start))
		w.log.Error("Outbox task failed permanently",
			zap.String("key", task.IdempotencyKey),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		if markErr := w.repo.MarkFailed(ctx, task.ID, attempts, err.Error()); markErr != nil {
			w.log.Error("Failed to mark outbox task failed", zap.String("key", task.IdempotencyKey), zap.Error(markErr))
		}
		w.mu.Lock()
		w.failed++
		w.mu.Unlock()
		return
	}

	next := w.now().Add(w.backoff(attempts))
	w.metrics.RecordOutboxDelivery(string(task.Kind), "retry", time.Since(start))
	w.log.Warn("Outbox delivery failed, retrying",
		zap.String("key", task.IdempotencyKey),
		zap.Int("attempts", attempts),
		zap.Time("next_attempt_at", next),
		zap.Error(err),
	)
	if markErr := w.repo.MarkRetry(ctx, task.ID, attempts, err.Error(), next); markErr != nil {
		w.log.Error("Failed to schedule outbox retry", zap.String("key", task.IdempotencyKey), zap.Error(markErr))
	}
}

func (w *Worker) backoff(attempts int) time.Duration {
	d := w.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= w.cfg.MaxBackoff {
			return w.cfg.MaxBackoff
		}
	}
	return d
}

func (w *Worker) Stats() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return map[string]int{
		"delivered": w.delivered,
		"failed":    w.failed,
	}
}
