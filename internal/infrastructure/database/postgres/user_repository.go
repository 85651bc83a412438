package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketlive/internal/domain/user"
	"marketlive/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert keeps the provider-owned profile columns in sync; subscription and
// membership columns are left alone on conflict.
func (r *UserRepository) Upsert(ctx context.Context, u *user.User) error {
	now := time.Now()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "updated_at"}),
		}).
		Create(toUserModel(u)).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*user.User, error) {
	return r.getBy(ctx, "external_id = ?", externalID)
}

func (r *UserRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*user.User, error) {
	return r.getBy(ctx, "stripe_customer_id = ?", customerID)
}

func (r *UserRepository) getBy(ctx context.Context, query, arg string) (*user.User, error) {
	var dbModel models.UserModel
	err := r.db.DB.WithContext(ctx).Where(query, arg).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toUserEntity(&dbModel), nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now()

	result := r.db.DB.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("external_id = ?", u.ExternalID).
		Updates(map[string]interface{}{
			"name":                u.Name,
			"email":               u.Email,
			"org_id":              u.OrgID,
			"role":                u.Role,
			"subscription_tier":   u.SubscriptionTier,
			"subscription_status": u.SubscriptionStatus,
			"stripe_customer_id":  u.StripeCustomerID,
			"updated_at":          u.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) DeleteByExternalID(ctx context.Context, externalID string) error {
	result := r.db.DB.WithContext(ctx).
		Where("external_id = ?", externalID).
		Delete(&models.UserModel{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, limit int) ([]*user.User, error) {
	var rows []models.UserModel
	if err := r.db.DB.WithContext(ctx).Order("created_at DESC").Limit(limitOrDefault(limit)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*user.User, len(rows))
	for i := range rows {
		users[i] = toUserEntity(&rows[i])
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.DB.WithContext(ctx).Model(&models.UserModel{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, nil
}

func toUserModel(u *user.User) *models.UserModel {
	return &models.UserModel{
		ID:                 u.ID,
		ExternalID:         u.ExternalID,
		Name:               u.Name,
		Email:              u.Email,
		OrgID:              u.OrgID,
		Role:               u.Role,
		SubscriptionTier:   u.SubscriptionTier,
		SubscriptionStatus: u.SubscriptionStatus,
		StripeCustomerID:   u.StripeCustomerID,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func toUserEntity(m *models.UserModel) *user.User {
	return &user.User{
		ID:                 m.ID,
		ExternalID:         m.ExternalID,
		Name:               m.Name,
		Email:              m.Email,
		OrgID:              m.OrgID,
		Role:               m.Role,
		SubscriptionTier:   m.SubscriptionTier,
		SubscriptionStatus: m.SubscriptionStatus,
		StripeCustomerID:   m.StripeCustomerID,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

type OrganizationRepository struct {
	db *DB
}

func NewOrganizationRepository(db *DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Upsert(ctx context.Context, o *user.Organization) error {
	now := time.Now()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "slug", "image_url", "members_count", "updated_at"}),
		}).
		Create(toOrganizationModel(o)).Error
	if err != nil {
		return fmt.Errorf("failed to upsert organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) GetByExternalID(ctx context.Context, externalID string) (*user.Organization, error) {
	var dbModel models.OrganizationModel
	err := r.db.DB.WithContext(ctx).Where("external_id = ?", externalID).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return toOrganizationEntity(&dbModel), nil
}

func (r *OrganizationRepository) Update(ctx context.Context, o *user.Organization) error {
	o.UpdatedAt = time.Now()

	result := r.db.DB.WithContext(ctx).
		Model(&models.OrganizationModel{}).
		Where("external_id = ?", o.ExternalID).
		Updates(map[string]interface{}{
			"name":                o.Name,
			"slug":                o.Slug,
			"image_url":           o.ImageURL,
			"members_count":       o.MembersCount,
			"subscription_tier":   o.SubscriptionTier,
			"subscription_status": o.SubscriptionStatus,
			"updated_at":          o.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update organization: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrOrganizationNotFound
	}
	return nil
}

func (r *OrganizationRepository) DeleteByExternalID(ctx context.Context, externalID string) error {
	result := r.db.DB.WithContext(ctx).
		Where("external_id = ?", externalID).
		Delete(&models.OrganizationModel{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete organization: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrOrganizationNotFound
	}
	return nil
}

func toOrganizationModel(o *user.Organization) *models.OrganizationModel {
	return &models.OrganizationModel{
		ID:                 o.ID,
		ExternalID:         o.ExternalID,
		Name:               o.Name,
		Slug:               o.Slug,
		ImageURL:           o.ImageURL,
		CreatedBy:          o.CreatedBy,
		MembersCount:       o.MembersCount,
		SubscriptionTier:   o.SubscriptionTier,
		SubscriptionStatus: o.SubscriptionStatus,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func toOrganizationEntity(m *models.OrganizationModel) *user.Organization {
	return &user.Organization{
		ID:                 m.ID,
		ExternalID:         m.ExternalID,
		Name:               m.Name,
		Slug:               m.Slug,
		ImageURL:           m.ImageURL,
		CreatedBy:          m.CreatedBy,
		MembersCount:       m.MembersCount,
		SubscriptionTier:   m.SubscriptionTier,
		SubscriptionStatus: m.SubscriptionStatus,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
