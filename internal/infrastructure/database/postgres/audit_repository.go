package postgres

import (
	"context"
	"fmt"
	"time"

	"marketlive/internal/domain/audit"
	"marketlive/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
)

type AuditRepository struct {
	db *DB
}

func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, e *audit.Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	dbModel := &models.AuditLogModel{
		ID:         e.ID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		UserID:     optional(e.UserID),
		OrgID:      optional(e.OrgID),
		Details:    e.Details,
		Timestamp:  e.Timestamp,
	}
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*audit.Entry, error) {
	var rows []models.AuditLogModel
	if err := r.db.DB.WithContext(ctx).Order("timestamp DESC").Limit(limitOrDefault(limit)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	entries := make([]*audit.Entry, len(rows))
	for i, m := range rows {
		entries[i] = &audit.Entry{
			ID:         m.ID,
			Action:     m.Action,
			EntityType: m.EntityType,
			EntityID:   m.EntityID,
			UserID:     deref(m.UserID),
			OrgID:      deref(m.OrgID),
			Details:    m.Details,
			Timestamp:  m.Timestamp,
		}
	}
	return entries, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
