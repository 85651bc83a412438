package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketlive/internal/domain/quote"
	"marketlive/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultListLimit = 100

type QuoteRepository struct {
	db *DB
}

func NewQuoteRepository(db *DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

func (r *QuoteRepository) Create(ctx context.Context, q *quote.Quote) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}

	dbModel := toQuoteModel(q)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}

	return nil
}

func (r *QuoteRepository) GetByQuoteID(ctx context.Context, quoteID string) (*quote.Quote, error) {
	var dbModel models.QuoteModel
	err := r.db.DB.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, quote.ErrQuoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	return toQuoteEntity(&dbModel), nil
}

func (r *QuoteRepository) List(ctx context.Context, filter quote.Filter) ([]*quote.Quote, error) {
	db := r.db.DB.WithContext(ctx).Model(&models.QuoteModel{})
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.OrgID != "" {
		db = db.Where("org_id = ?", filter.OrgID)
	}

	var dbModels []models.QuoteModel
	if err := db.Order("created_at DESC").Limit(limitOrDefault(filter.Limit)).Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}

	quotes := make([]*quote.Quote, len(dbModels))
	for i := range dbModels {
		quotes[i] = toQuoteEntity(&dbModels[i])
	}
	return quotes, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

func toQuoteModel(q *quote.Quote) *models.QuoteModel {
	return &models.QuoteModel{
		ID:          q.ID,
		QuoteID:     q.QuoteID,
		Origin:      q.Request.Origin,
		Destination: q.Request.Destination,
		ServiceType: q.Request.ServiceType,
		Request:     q.Request,
		Status:      q.Status,
		Offers:      q.Offers,
		UserID:      q.UserID,
		OrgID:       q.OrgID,
		CreatedAt:   q.CreatedAt,
	}
}

func toQuoteEntity(m *models.QuoteModel) *quote.Quote {
	return &quote.Quote{
		ID:        m.ID,
		QuoteID:   m.QuoteID,
		Request:   m.Request,
		Status:    m.Status,
		Offers:    m.Offers,
		UserID:    m.UserID,
		OrgID:     m.OrgID,
		CreatedAt: m.CreatedAt,
	}
}
