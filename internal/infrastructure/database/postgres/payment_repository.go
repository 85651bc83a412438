package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketlive/internal/domain/payment"
	"marketlive/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *DB
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, a *payment.Attempt) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = a.CreatedAt
	if a.BillingDate.IsZero() {
		a.BillingDate = now
	}
	if a.Items == nil {
		a.Items = []payment.Item{}
	}

	err := r.db.DB.WithContext(ctx).Create(toPaymentModel(a)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return payment.ErrDuplicatePayment
	}
	if err != nil {
		return fmt.Errorf("failed to create payment attempt: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*payment.Attempt, error) {
	var dbModel models.PaymentAttemptModel
	err := r.db.DB.WithContext(ctx).Where("payment_id = ?", paymentID).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, payment.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment attempt: %w", err)
	}
	return toPaymentEntity(&dbModel), nil
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, paymentID, status string) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.PaymentAttemptModel{}).
		Where("payment_id = ?", paymentID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update payment status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return payment.ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepository) List(ctx context.Context, filter payment.Filter) ([]*payment.Attempt, error) {
	db := r.db.DB.WithContext(ctx).Model(&models.PaymentAttemptModel{})
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	var dbModels []models.PaymentAttemptModel
	if err := db.Order("created_at DESC").Limit(limitOrDefault(filter.Limit)).Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list payment attempts: %w", err)
	}

	attempts := make([]*payment.Attempt, len(dbModels))
	for i := range dbModels {
		attempts[i] = toPaymentEntity(&dbModels[i])
	}
	return attempts, nil
}

func toPaymentModel(a *payment.Attempt) *models.PaymentAttemptModel {
	return &models.PaymentAttemptModel{
		ID:            a.ID,
		PaymentID:     a.PaymentID,
		InvoiceID:     a.InvoiceID,
		StatementID:   a.StatementID,
		Status:        a.Status,
		BillingDate:   a.BillingDate,
		ChargeType:    a.ChargeType,
		Payer:         a.Payer,
		PaymentSource: a.PaymentSource,
		Items:         a.Items,
		Totals:        a.Totals,
		UserID:        a.UserID,
		BookingID:     a.BookingID,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toPaymentEntity(m *models.PaymentAttemptModel) *payment.Attempt {
	return &payment.Attempt{
		ID:            m.ID,
		PaymentID:     m.PaymentID,
		InvoiceID:     m.InvoiceID,
		StatementID:   m.StatementID,
		Status:        m.Status,
		BillingDate:   m.BillingDate,
		ChargeType:    m.ChargeType,
		Payer:         m.Payer,
		PaymentSource: m.PaymentSource,
		Items:         m.Items,
		Totals:        m.Totals,
		UserID:        m.UserID,
		BookingID:     m.BookingID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
