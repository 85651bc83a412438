package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketlive/internal/domain/document"
	"marketlive/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepository struct {
	db *DB
}

func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, d *document.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.UpdatedAt = d.CreatedAt

	if err := r.db.DB.WithContext(ctx).Create(toDocumentModel(d)).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	return r.getBy(ctx, "id = ?", id)
}

func (r *DocumentRepository) GetByShareToken(ctx context.Context, token string) (*document.Document, error) {
	return r.getBy(ctx, "share_token = ?", token)
}

func (r *DocumentRepository) getBy(ctx context.Context, query string, arg interface{}) (*document.Document, error) {
	var dbModel models.DocumentModel
	err := r.db.DB.WithContext(ctx).Where(query, arg).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, document.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return toDocumentEntity(&dbModel), nil
}

func (r *DocumentRepository) Update(ctx context.Context, d *document.Document) error {
	d.UpdatedAt = time.Now()

	updates := map[string]interface{}{
		"data":        jsonValue(d.Data),
		"status":      string(d.Status),
		"share_token": d.ShareToken,
		"updated_at":  d.UpdatedAt,
	}
	if d.Envelope != nil {
		updates["envelope"] = jsonValue(d.Envelope)
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("id = ?", d.ID).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return document.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) List(ctx context.Context, filter document.Filter) ([]*document.Document, error) {
	db := r.db.DB.WithContext(ctx).Model(&models.DocumentModel{})
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.OrgID != "" {
		db = db.Where("org_id = ?", filter.OrgID)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", string(filter.Type))
	}
	if filter.Status != "" {
		db = db.Where("status = ?", string(filter.Status))
	}
	if filter.BookingID != "" {
		db = db.Where("booking_id = ?", filter.BookingID)
	}
	if filter.ShipmentID != "" {
		db = db.Where("shipment_id = ?", filter.ShipmentID)
	}

	var dbModels []models.DocumentModel
	if err := db.Order("created_at DESC").Limit(limitOrDefault(filter.Limit)).Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]*document.Document, len(dbModels))
	for i := range dbModels {
		docs[i] = toDocumentEntity(&dbModels[i])
	}
	return docs, nil
}

func toDocumentModel(d *document.Document) *models.DocumentModel {
	return &models.DocumentModel{
		ID:         d.ID,
		Type:       string(d.Type),
		BookingID:  d.BookingID,
		ShipmentID: d.ShipmentID,
		Data:       d.Data,
		Status:     string(d.Status),
		Envelope:   d.Envelope,
		UserID:     d.UserID,
		OrgID:      d.OrgID,
		UploadedBy: d.UploadedBy,
		ShareToken: d.ShareToken,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func toDocumentEntity(m *models.DocumentModel) *document.Document {
	return &document.Document{
		ID:         m.ID,
		Type:       document.Type(m.Type),
		BookingID:  m.BookingID,
		ShipmentID: m.ShipmentID,
		Data:       m.Data,
		Status:     document.Status(m.Status),
		Envelope:   m.Envelope,
		UserID:     m.UserID,
		OrgID:      m.OrgID,
		UploadedBy: m.UploadedBy,
		ShareToken: m.ShareToken,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
