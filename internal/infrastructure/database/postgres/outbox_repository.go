package postgres

import (
	"context"
	"fmt"
	"time"

	"marketlive/internal/domain/outbox"
	"marketlive/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutboxRepository struct {
	db *DB
}

func NewOutboxRepository(db *DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, t *outbox.Task) (bool, error) {
	now := time.Now()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = outbox.StatusPending
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = t.CreatedAt
	if t.NextAttemptAt.IsZero() {
		t.NextAttemptAt = t.CreatedAt
	}

	result := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "idempotency_key"}}, DoNothing: true}).
		Create(toOutboxModel(t))
	if result.Error != nil {
		return false, fmt.Errorf("failed to enqueue outbox task: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// ClaimDue selects due tasks with FOR UPDATE SKIP LOCKED and moves their
// next_attempt_at past the lease inside one transaction.
func (r *OutboxRepository) ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*outbox.Task, error) {
	var rows []models.OutboxTaskModel

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND next_attempt_at <= ?", string(outbox.StatusPending), now).
			Order("next_attempt_at ASC").
			Limit(limit).
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
		}
		return tx.Model(&models.OutboxTaskModel{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"next_attempt_at": now.Add(lease),
				"updated_at":      now,
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox tasks: %w", err)
	}

	tasks := make([]*outbox.Task, len(rows))
	for i := range rows {
		tasks[i] = toOutboxEntity(&rows[i])
	}
	return tasks, nil
}

func (r *OutboxRepository) MarkDone(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":       string(outbox.StatusDone),
		"completed_at": at,
		"updated_at":   at,
	})
}

func (r *OutboxRepository) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, lastError string, next time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":          string(outbox.StatusPending),
		"attempts":        attempts,
		"last_error":      lastError,
		"next_attempt_at": next,
		"updated_at":      time.Now(),
	})
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":     string(outbox.StatusFailed),
		"attempts":   attempts,
		"last_error": lastError,
		"updated_at": time.Now(),
	})
}

func (r *OutboxRepository) update(ctx context.Context, id uuid.UUID, values map[string]interface{}) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.OutboxTaskModel{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return fmt.Errorf("failed to update outbox task: %w", result.Error)
	}
	return nil
}

func (r *OutboxRepository) List(ctx context.Context, status outbox.Status, limit int) ([]*outbox.Task, error) {
	db := r.db.DB.WithContext(ctx).Model(&models.OutboxTaskModel{})
	if status != "" {
		db = db.Where("status = ?", string(status))
	}

	var rows []models.OutboxTaskModel
	if err := db.Order("updated_at DESC").Limit(limitOrDefault(limit)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list outbox tasks: %w", err)
	}

	tasks := make([]*outbox.Task, len(rows))
	for i := range rows {
		tasks[i] = toOutboxEntity(&rows[i])
	}
	return tasks, nil
}

func toOutboxModel(t *outbox.Task) *models.OutboxTaskModel {
	return &models.OutboxTaskModel{
		ID:             t.ID,
		IdempotencyKey: t.IdempotencyKey,
		Kind:           string(t.Kind),
		AggregateType:  t.AggregateType,
		AggregateID:    t.AggregateID,
		Payload:        t.Payload,
		Status:         string(t.Status),
		Attempts:       t.Attempts,
		MaxAttempts:    t.MaxAttempts,
		LastError:      t.LastError,
		NextAttemptAt:  t.NextAttemptAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		CompletedAt:    t.CompletedAt,
	}
}

func toOutboxEntity(m *models.OutboxTaskModel) *outbox.Task {
	return &outbox.Task{
		ID:             m.ID,
		IdempotencyKey: m.IdempotencyKey,
		Kind:           outbox.Kind(m.Kind),
		AggregateType:  m.AggregateType,
		AggregateID:    m.AggregateID,
		Payload:        m.Payload,
		Status:         outbox.Status(m.Status),
		Attempts:       m.Attempts,
		MaxAttempts:    m.MaxAttempts,
		LastError:      m.LastError,
		NextAttemptAt:  m.NextAttemptAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		CompletedAt:    m.CompletedAt,
	}
}
