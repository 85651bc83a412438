package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketlive/internal/domain/booking"
	"marketlive/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRepository struct {
	db *DB
}

func NewBookingRepository(db *DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = b.CreatedAt

	err := r.db.DB.WithContext(ctx).Create(toBookingModel(b)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return booking.ErrBookingAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

func (r *BookingRepository) GetByBookingID(ctx context.Context, bookingID string) (*booking.Booking, error) {
	var dbModel models.BookingModel
	err := r.db.DB.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, booking.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return toBookingEntity(&dbModel), nil
}

// Update is a compare-and-set on status: the row is written only while it
// still holds expected, so two concurrent transitions cannot both win.
func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking, expected booking.Status) error {
	b.UpdatedAt = time.Now()

	result := r.db.DB.WithContext(ctx).
		Model(&models.BookingModel{}).
		Where("booking_id = ? AND status = ?", b.BookingID, string(expected)).
		Updates(map[string]interface{}{
			"status":           string(b.Status),
			"notes":            b.Notes,
			"approval_status":  approvalString(b.ApprovalStatus),
			"approved_by":      b.ApprovedBy,
			"approved_at":      b.ApprovedAt,
			"rejection_reason": b.RejectionReason,
			"updated_at":       b.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.DB.WithContext(ctx).Model(&models.BookingModel{}).
			Where("booking_id = ?", b.BookingID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check booking: %w", err)
		}
		if count == 0 {
			return booking.ErrBookingNotFound
		}
		return booking.ErrConcurrentUpdate
	}

	return nil
}

func (r *BookingRepository) List(ctx context.Context, filter booking.Filter) ([]*booking.Booking, error) {
	var dbModels []models.BookingModel
	err := r.filtered(ctx, filter).
		Order("created_at DESC").
		Limit(limitOrDefault(filter.Limit)).
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*booking.Booking, len(dbModels))
	for i := range dbModels {
		bookings[i] = toBookingEntity(&dbModels[i])
	}
	return bookings, nil
}

func (r *BookingRepository) Count(ctx context.Context, filter booking.Filter) (int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return total, nil
}

func (r *BookingRepository) filtered(ctx context.Context, filter booking.Filter) *gorm.DB {
	db := r.db.DB.WithContext(ctx).Model(&models.BookingModel{})
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.OrgID != "" {
		db = db.Where("org_id = ?", filter.OrgID)
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			statuses[i] = string(s)
		}
		db = db.Where("status IN ?", statuses)
	}
	if filter.ApprovalStatus != "" {
		db = db.Where("approval_status = ?", string(filter.ApprovalStatus))
	}
	return db
}

func approvalString(a *booking.ApprovalStatus) *string {
	if a == nil {
		return nil
	}
	s := string(*a)
	return &s
}

func toBookingModel(b *booking.Booking) *models.BookingModel {
	return &models.BookingModel{
		ID:                  b.ID,
		BookingID:           b.BookingID,
		QuoteID:             b.QuoteID,
		CarrierQuoteID:      b.CarrierQuoteID,
		Status:              string(b.Status),
		CustomerDetails:     b.CustomerDetails,
		PickupDetails:       b.PickupDetails,
		DeliveryDetails:     b.DeliveryDetails,
		SpecialInstructions: b.SpecialInstructions,
		Notes:               b.Notes,
		ApprovalStatus:      approvalString(b.ApprovalStatus),
		ApprovedBy:          b.ApprovedBy,
		ApprovedAt:          b.ApprovedAt,
		RejectionReason:     b.RejectionReason,
		UserID:              b.UserID,
		OrgID:               b.OrgID,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
}

func toBookingEntity(m *models.BookingModel) *booking.Booking {
	b := &booking.Booking{
		ID:                  m.ID,
		BookingID:           m.BookingID,
		QuoteID:             m.QuoteID,
		CarrierQuoteID:      m.CarrierQuoteID,
		Status:              booking.Status(m.Status),
		CustomerDetails:     m.CustomerDetails,
		PickupDetails:       m.PickupDetails,
		DeliveryDetails:     m.DeliveryDetails,
		SpecialInstructions: m.SpecialInstructions,
		Notes:               m.Notes,
		ApprovedBy:          m.ApprovedBy,
		ApprovedAt:          m.ApprovedAt,
		RejectionReason:     m.RejectionReason,
		UserID:              m.UserID,
		OrgID:               m.OrgID,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	if m.ApprovalStatus != nil {
		a := booking.ApprovalStatus(*m.ApprovalStatus)
		b.ApprovalStatus = &a
	}
	return b
}
