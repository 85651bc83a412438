package postgres

import (
	"context"
	"fmt"
	"time"

	"marketlive/internal/domain/notification"
	"marketlive/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create is idempotent on ID so redelivered outbox tasks do not duplicate rows.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	dbModel := &models.NotificationModel{
		ID:        n.ID,
		Recipient: n.Recipient,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Priority:  n.Priority,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.ActionURL != "" {
		dbModel.ActionURL = &n.ActionURL
	}

	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(dbModel).Error
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]*notification.Notification, error) {
	db := r.db.DB.WithContext(ctx).Where("recipient = ?", recipient)
	if unreadOnly {
		db = db.Where("read = ?", false)
	}

	var rows []models.NotificationModel
	if err := db.Order("created_at DESC").Limit(limitOrDefault(limit)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	out := make([]*notification.Notification, len(rows))
	for i, m := range rows {
		n := &notification.Notification{
			ID:        m.ID,
			Recipient: m.Recipient,
			Title:     m.Title,
			Message:   m.Message,
			Type:      m.Type,
			Priority:  m.Priority,
			Read:      m.Read,
			CreatedAt: m.CreatedAt,
		}
		if m.ActionURL != nil {
			n.ActionURL = *m.ActionURL
		}
		out[i] = n
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, recipient string) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("id = ? AND recipient = ?", id, recipient).
		Update("read", true)

	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}
