package compliance

import (
	"context"
	"errors"
	"time"

	"marketlive/internal/domain/audit"
	domainCompliance "marketlive/internal/domain/compliance"
	"marketlive/internal/identity"
	"marketlive/internal/logger"
	"marketlive/internal/metrics"
	appErrors "marketlive/pkg/errors"
	"marketlive/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service runs the three-step KYC wizard.
type Service struct {
	verifications domainCompliance.Repository
	audits        audit.Repository
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewService(verifications domainCompliance.Repository, audits audit.Repository, m *metrics.Metrics) *Service {
	return &Service{
		verifications: verifications,
		audits:        audits,
		metrics:       m,
		now:           time.Now,
	}
}

// GetKycStatus returns the caller's verification, or nil when none was started.
func (s *Service) GetKycStatus(ctx context.Context, id *identity.Identity) (*VerificationResponse, error) {
	if !id.Authenticated() {
		return nil, nil
	}

	v, err := s.verifications.GetByUserID(ctx, id.Owner())
	if errors.Is(err, domainCompliance.ErrVerificationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ToVerificationResponse(v), nil
}

// StartKyc returns the caller's existing verification or opens a new draft.
func (s *Service) StartKyc(ctx context.Context, id *identity.Identity) (*VerificationResponse, error) {
	if !id.Authenticated() {
		return nil, appErrors.NewAppError(appErrors.CodeUnauthorized, "Authentication required", appErrors.ErrUnauthorized)
	}

	existing, err := s.verifications.GetByUserID(ctx, id.Owner())
	if err == nil {
		return ToVerificationResponse(existing), nil
	}
	if !errors.Is(err, domainCompliance.ErrVerificationNotFound) {
		return nil, err
	}

	now := s.now()
	v := &domainCompliance.Verification{
		ID:        uuid.New(),
		UserID:    id.Owner(),
		Status:    domainCompliance.StatusDraft,
		Step:      domainCompliance.StepDetails,
		Documents: []domainCompliance.KycDocument{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if id.OrgID != "" {
		v.OrgID = utils.StringPtr(id.OrgID)
	}

	if err := s.verifications.Create(ctx, v); err != nil {
		return nil, err
	}

	logger.Info("KYC verification started",
		zap.String("kyc_id", v.ID.String()),
		zap.String("user_id", v.UserID),
		zap.String("event", "kyc_started"),
	)
	return ToVerificationResponse(v), nil
}

// UpdateKycDetails stores the business details and advances to the documents step.
func (s *Service) UpdateKycDetails(ctx context.Context, id *identity.Identity, kycID string, req *UpdateKycDetailsRequest) (*VerificationResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	v, err := s.loadDraft(ctx, id, kycID)
	if err != nil {
		return nil, err
	}

	v.CompanyName = utils.StringPtr(utils.SanitizeString(req.CompanyName))
	v.RegistrationNumber = utils.StringPtr(utils.SanitizeString(req.RegistrationNumber))
	v.VATNumber = utils.StringPtr(utils.SanitizeString(req.VATNumber))
	v.Country = utils.StringPtr(utils.SanitizeString(req.Country))
	v.Step = domainCompliance.StepDocuments
	v.UpdatedAt = s.now()

	if err := s.verifications.Update(ctx, v); err != nil {
		return nil, err
	}
	return ToVerificationResponse(v), nil
}

func (s *Service) AddKycDocument(ctx context.Context, id *identity.Identity, kycID string, req *AddKycDocumentRequest) (*VerificationResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	v, err := s.loadDraft(ctx, id, kycID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	v.Documents = append(v.Documents, domainCompliance.KycDocument{
		Type:       req.Type,
		FileURL:    req.FileURL,
		FileID:     req.FileID,
		UploadedAt: now.UnixMilli(),
	})
	v.UpdatedAt = now

	if err := s.verifications.Update(ctx, v); err != nil {
		return nil, err
	}
	return ToVerificationResponse(v), nil
}

// SubmitKyc hands the verification over for review.
func (s *Service) SubmitKyc(ctx context.Context, id *identity.Identity, kycID string) (*VerificationResponse, error) {
	v, err := s.loadDraft(ctx, id, kycID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	v.Status = domainCompliance.StatusSubmitted
	v.Step = domainCompliance.StepReview
	v.SubmittedAt = &now
	v.UpdatedAt = now

	if err := s.verifications.Update(ctx, v); err != nil {
		return nil, err
	}

	logger.Info("KYC verification submitted",
		zap.String("kyc_id", v.ID.String()),
		zap.String("user_id", v.UserID),
		zap.String("event", "kyc_submitted"),
	)

	if s.audits != nil {
		entry := &audit.Entry{
			Action:     "kyc.submitted",
			EntityType: audit.EntityKyc,
			EntityID:   v.ID.String(),
			UserID:     id.Subject,
			OrgID:      id.OrgID,
			Timestamp:  now,
		}
		if err := s.audits.Create(ctx, entry); err != nil {
			s.metrics.RecordSideEffectFailure("audit_log")
			logger.Warn("Failed to write audit log",
				zap.String("action", entry.Action),
				zap.Error(err),
			)
		}
	}

	return ToVerificationResponse(v), nil
}

// loadDraft returns the verification when id owns it and it is still editable.
func (s *Service) loadDraft(ctx context.Context, id *identity.Identity, kycID string) (*domainCompliance.Verification, error) {
	if !id.Authenticated() {
		return nil, appErrors.NewAppError(appErrors.CodeUnauthorized, "Authentication required", appErrors.ErrUnauthorized)
	}

	vid, err := uuid.Parse(kycID)
	if err != nil {
		return nil, appErrors.Validation("Invalid verification ID", err)
	}

	v, err := s.verifications.GetByID(ctx, vid)
	if err != nil {
		return nil, err
	}
	if !id.Owns(v.UserID) {
		return nil, appErrors.NewAppError(appErrors.CodeForbidden, "You do not own this verification", domainCompliance.ErrNotOwner)
	}
	if v.Status != domainCompliance.StatusDraft {
		return nil, appErrors.NewAppError(appErrors.CodeConflict, "Verification was already submitted", domainCompliance.ErrAlreadySubmitted)
	}
	return v, nil
}
