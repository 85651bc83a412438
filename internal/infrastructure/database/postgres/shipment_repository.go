package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketlive/internal/domain/shipment"
	"marketlive/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShipmentRepository struct {
	db *DB
}

func NewShipmentRepository(db *DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

func (r *ShipmentRepository) Create(ctx context.Context, s *shipment.Shipment) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.LastUpdated.IsZero() {
		s.LastUpdated = now
	}
	if s.Status == "" {
		s.Status = shipment.StatusCreated
	}

	err := r.db.DB.WithContext(ctx).Create(toShipmentModel(s)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shipment.ErrShipmentAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create shipment: %w", err)
	}

	return nil
}

func (r *ShipmentRepository) GetByShipmentID(ctx context.Context, shipmentID string) (*shipment.Shipment, error) {
	return r.getBy(ctx, "shipment_id = ?", shipmentID)
}

func (r *ShipmentRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*shipment.Shipment, error) {
	return r.getBy(ctx, "tracking_number = ?", trackingNumber)
}

func (r *ShipmentRepository) getBy(ctx context.Context, query string, arg string) (*shipment.Shipment, error) {
	var dbModel models.ShipmentModel
	err := r.db.DB.WithContext(ctx).
		Where(query, arg).
		Order("created_at ASC").
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shipment.ErrShipmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}

	return toShipmentEntity(&dbModel), nil
}

// Update patches s guarded by its status revision.
func (r *ShipmentRepository) Update(ctx context.Context, s *shipment.Shipment, expectedRevision int) error {
	if s.LastUpdated.IsZero() {
		s.LastUpdated = time.Now()
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.ShipmentModel{}).
		Where("id = ? AND status_revision = ?", s.ID, expectedRevision).
		Updates(map[string]interface{}{
			"status":             string(s.Status),
			"current_location":   jsonValue(s.CurrentLocation),
			"estimated_delivery": s.EstimatedDelivery,
			"carrier":            s.Carrier,
			"tracking_number":    s.TrackingNumber,
			"service":            s.Service,
			"shipment_details":   jsonValue(s.ShipmentDetails),
			"risk_level":         s.RiskLevel,
			"flag_reason":        s.FlagReason,
			"flagged_by":         s.FlaggedBy,
			"user_id":            s.UserID,
			"org_id":             s.OrgID,
			"status_revision":    s.StatusRevision,
			"last_updated":       s.LastUpdated,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update shipment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.DB.WithContext(ctx).Model(&models.ShipmentModel{}).
			Where("id = ?", s.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check shipment: %w", err)
		}
		if count == 0 {
			return shipment.ErrShipmentNotFound
		}
		return shipment.ErrConcurrentUpdate
	}

	return nil
}

func (r *ShipmentRepository) List(ctx context.Context, filter shipment.Filter) ([]*shipment.Shipment, error) {
	var dbModels []models.ShipmentModel
	err := r.filtered(ctx, filter).
		Order("last_updated DESC").
		Limit(limitOrDefault(filter.Limit)).
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}

	shipments := make([]*shipment.Shipment, len(dbModels))
	for i := range dbModels {
		shipments[i] = toShipmentEntity(&dbModels[i])
	}
	return shipments, nil
}

func (r *ShipmentRepository) Count(ctx context.Context, filter shipment.Filter) (int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count shipments: %w", err)
	}
	return total, nil
}

func (r *ShipmentRepository) filtered(ctx context.Context, filter shipment.Filter) *gorm.DB {
	db := r.db.DB.WithContext(ctx).Model(&models.ShipmentModel{})
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.OrgID != "" {
		db = db.Where("org_id = ?", filter.OrgID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		db = db.Where("status IN ?", statuses)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		db = db.Where("shipment_id ILIKE ? OR tracking_number ILIKE ? OR carrier ILIKE ?",
			search, search, search)
	}
	return db
}

func (r *ShipmentRepository) AppendEvents(ctx context.Context, shipmentID uuid.UUID, events []*shipment.TrackingEvent, dedup bool) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	now := time.Now()
	rows := make([]models.TrackingEventModel, len(events))
	for i, e := range events {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		e.ShipmentID = shipmentID
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if dedup {
			key := e.Key()
			e.EventKey = &key
		}
		rows[i] = toTrackingEventModel(e)
	}

	db := r.db.DB.WithContext(ctx)
	if dedup {
		db = db.Clauses(clause.OnConflict{DoNothing: true})
	}
	result := db.Create(&rows)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to append tracking events: %w", result.Error)
	}

	return int(result.RowsAffected), nil
}

func (r *ShipmentRepository) ListEvents(ctx context.Context, shipmentID uuid.UUID) ([]*shipment.TrackingEvent, error) {
	var rows []models.TrackingEventModel
	err := r.db.DB.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking events: %w", err)
	}

	events := make([]*shipment.TrackingEvent, len(rows))
	for i := range rows {
		events[i] = toTrackingEventEntity(&rows[i])
	}
	return events, nil
}

func toShipmentModel(s *shipment.Shipment) *models.ShipmentModel {
	return &models.ShipmentModel{
		ID:                s.ID,
		ShipmentID:        s.ShipmentID,
		Status:            string(s.Status),
		CurrentLocation:   s.CurrentLocation,
		EstimatedDelivery: s.EstimatedDelivery,
		Carrier:           s.Carrier,
		TrackingNumber:    s.TrackingNumber,
		Service:           s.Service,
		ShipmentDetails:   s.ShipmentDetails,
		RiskLevel:         s.RiskLevel,
		FlagReason:        s.FlagReason,
		FlaggedBy:         s.FlaggedBy,
		UserID:            s.UserID,
		OrgID:             s.OrgID,
		StatusRevision:    s.StatusRevision,
		LastUpdated:       s.LastUpdated,
		CreatedAt:         s.CreatedAt,
	}
}

func toShipmentEntity(m *models.ShipmentModel) *shipment.Shipment {
	return &shipment.Shipment{
		ID:                m.ID,
		ShipmentID:        m.ShipmentID,
		Status:            shipment.Status(m.Status),
		CurrentLocation:   m.CurrentLocation,
		EstimatedDelivery: m.EstimatedDelivery,
		Carrier:           m.Carrier,
		TrackingNumber:    m.TrackingNumber,
		Service:           m.Service,
		ShipmentDetails:   m.ShipmentDetails,
		RiskLevel:         m.RiskLevel,
		FlagReason:        m.FlagReason,
		FlaggedBy:         m.FlaggedBy,
		UserID:            m.UserID,
		OrgID:             m.OrgID,
		StatusRevision:    m.StatusRevision,
		LastUpdated:       m.LastUpdated,
		CreatedAt:         m.CreatedAt,
	}
}

func toTrackingEventModel(e *shipment.TrackingEvent) models.TrackingEventModel {
	return models.TrackingEventModel{
		ID:          e.ID,
		ShipmentID:  e.ShipmentID,
		Timestamp:   e.Timestamp,
		Status:      e.Status,
		Location:    e.Location,
		Description: e.Description,
		EventKey:    e.EventKey,
		CreatedAt:   e.CreatedAt,
	}
}

func toTrackingEventEntity(m *models.TrackingEventModel) *shipment.TrackingEvent {
	return &shipment.TrackingEvent{
		ID:          m.ID,
		ShipmentID:  m.ShipmentID,
		Timestamp:   m.Timestamp,
		Status:      m.Status,
		Location:    m.Location,
		Description: m.Description,
		EventKey:    m.EventKey,
		CreatedAt:   m.CreatedAt,
	}
}
