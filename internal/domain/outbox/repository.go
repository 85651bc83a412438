package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Enqueue inserts t unless a task with the same IdempotencyKey exists.
	// created is false for a duplicate.
	Enqueue(ctx context.Context, t *Task) (created bool, err error)
	// ClaimDue locks up to limit pending tasks whose NextAttemptAt <= now and
	// pushes their NextAttemptAt forward by lease so other workers skip them.
	ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*Task, error)
	MarkDone(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkRetry(ctx context.Context, id uuid.UUID, attempts int, lastError string, next time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) error
	List(ctx context.Context, status Status, limit int) ([]*Task, error)
}
