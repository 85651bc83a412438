package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind selects the sink a task is delivered to.
type Kind string

const (
	KindEmail    Kind = "email"
	KindInApp    Kind = "in_app"
	KindWorkflow Kind = "workflow"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Task is a side effect recorded alongside a business mutation and delivered
// at least once by the worker. IdempotencyKey is unique across all tasks.
type Task struct {
	ID             uuid.UUID
	IdempotencyKey string
	Kind           Kind
	AggregateType  string
	AggregateID    string
	Payload        json.RawMessage

	Status        Status
	Attempts      int
	MaxAttempts   int
	LastError     *string
	NextAttemptAt time.Time

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Exhausted reports whether attempts has reached the task's retry budget.
func (t *Task) Exhausted(attempts int) bool {
	return t.MaxAttempts > 0 && attempts >= t.MaxAttempts
}
