package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketlive/internal/domain/compliance"
	"marketlive/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComplianceRepository struct {
	db *DB
}

func NewComplianceRepository(db *DB) *ComplianceRepository {
	return &ComplianceRepository{db: db}
}

func (r *ComplianceRepository) Create(ctx context.Context, v *compliance.Verification) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	v.UpdatedAt = v.CreatedAt
	if v.Documents == nil {
		v.Documents = []compliance.KycDocument{}
	}

	if err := r.db.DB.WithContext(ctx).Create(toKycModel(v)).Error; err != nil {
		return fmt.Errorf("failed to create kyc verification: %w", err)
	}
	return nil
}

func (r *ComplianceRepository) GetByID(ctx context.Context, id uuid.UUID) (*compliance.Verification, error) {
	return r.getBy(ctx, "id = ?", id)
}

func (r *ComplianceRepository) GetByUserID(ctx context.Context, userID string) (*compliance.Verification, error) {
	return r.getBy(ctx, "user_id = ?", userID)
}

func (r *ComplianceRepository) getBy(ctx context.Context, query string, arg interface{}) (*compliance.Verification, error) {
	var dbModel models.KycVerificationModel
	err := r.db.DB.WithContext(ctx).Where(query, arg).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, compliance.ErrVerificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kyc verification: %w", err)
	}

	return toKycEntity(&dbModel), nil
}

func (r *ComplianceRepository) Update(ctx context.Context, v *compliance.Verification) error {
	v.UpdatedAt = time.Now()

	result := r.db.DB.WithContext(ctx).
		Model(&models.KycVerificationModel{}).
		Where("id = ?", v.ID).
		Updates(map[string]interface{}{
			"status":              string(v.Status),
			"step":                v.Step,
			"company_name":        v.CompanyName,
			"registration_number": v.RegistrationNumber,
			"vat_number":          v.VATNumber,
			"country":             v.Country,
			"documents":           jsonValue(v.Documents),
			"submitted_at":        v.SubmittedAt,
			"updated_at":          v.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update kyc verification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return compliance.ErrVerificationNotFound
	}
	return nil
}

func toKycModel(v *compliance.Verification) *models.KycVerificationModel {
	return &models.KycVerificationModel{
		ID:                 v.ID,
		UserID:             v.UserID,
		OrgID:              v.OrgID,
		Status:             string(v.Status),
		Step:               v.Step,
		CompanyName:        v.CompanyName,
		RegistrationNumber: v.RegistrationNumber,
		VATNumber:          v.VATNumber,
		Country:            v.Country,
		Documents:          v.Documents,
		SubmittedAt:        v.SubmittedAt,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}
}

func toKycEntity(m *models.KycVerificationModel) *compliance.Verification {
	return &compliance.Verification{
		ID:                 m.ID,
		UserID:             m.UserID,
		OrgID:              m.OrgID,
		Status:             compliance.Status(m.Status),
		Step:               m.Step,
		CompanyName:        m.CompanyName,
		RegistrationNumber: m.RegistrationNumber,
		VATNumber:          m.VATNumber,
		Country:            m.Country,
		Documents:          m.Documents,
		SubmittedAt:        m.SubmittedAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
