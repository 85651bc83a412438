package compliance

import (
	"context"
	"testing"
	"time"

	"marketlive/internal/domain/audit"
	auditMocks "marketlive/internal/domain/audit/mocks"
	domainCompliance "marketlive/internal/domain/compliance"
	complianceMocks "marketlive/internal/domain/compliance/mocks"
	"marketlive/internal/identity"
	appErrors "marketlive/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var owner = &identity.Identity{Subject: "user_1", OrgID: "org_1"}

type fixture struct {
	svc    *Service
	repo   *complianceMocks.MockRepository
	audits *auditMocks.MockRepository
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		repo:   complianceMocks.NewMockRepository(ctrl),
		audits: auditMocks.NewMockRepository(ctrl),
		now:    time.Date(2025, 2, 14, 15, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.repo, f.audits, nil)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func draft() *domainCompliance.Verification {
	return &domainCompliance.Verification{
		ID:     uuid.New(),
		UserID: "user_1",
		Status: domainCompliance.StatusDraft,
		Step:   domainCompliance.StepDetails,
	}
}

func TestGetKycStatus(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.GetKycStatus(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, resp)

	f.repo.EXPECT().GetByUserID(gomock.Any(), "user_1").Return(nil, domainCompliance.ErrVerificationNotFound)
	resp, err = f.svc.GetKycStatus(context.Background(), owner)
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestStartKyc_Idempotent(t *testing.T) {
	f := newFixture(t)
	existing := draft()

	f.repo.EXPECT().GetByUserID(gomock.Any(), "user_1").Return(existing, nil)
	resp, err := f.svc.StartKyc(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, existing.ID.String(), resp.ID)
}

func TestStartKyc_CreatesDraft(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().GetByUserID(gomock.Any(), "user_1").Return(nil, domainCompliance.ErrVerificationNotFound)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, v *domainCompliance.Verification) error {
		assert.Equal(t, domainCompliance.StatusDraft, v.Status)
		assert.Equal(t, domainCompliance.StepDetails, v.Step)
		assert.Equal(t, "org_1", *v.OrgID)
		return nil
	})

	resp, err := f.svc.StartKyc(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Step)
	assert.NotNil(t, resp.Documents)

	_, err = f.svc.StartKyc(context.Background(), nil)
	assert.Equal(t, appErrors.CodeUnauthorized, appErrors.CodeOf(err))
}

func TestWizard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := draft()

	f.repo.EXPECT().GetByID(gomock.Any(), v.ID).Return(v, nil).Times(3)
	f.repo.EXPECT().Update(gomock.Any(), v).Return(nil).Times(3)

	resp, err := f.svc.UpdateKycDetails(ctx, owner, v.ID.String(), &UpdateKycDetailsRequest{
		CompanyName:        "Acme Freight",
		RegistrationNumber: "HRB-1",
		VATNumber:          "DE123",
		Country:            "DE",
	})
	require.NoError(t, err)
	assert.Equal(t, domainCompliance.StepDocuments, resp.Step)
	assert.Equal(t, "Acme Freight", *resp.CompanyName)

	resp, err = f.svc.AddKycDocument(ctx, owner, v.ID.String(), &AddKycDocumentRequest{
		Type:    "certificate_of_incorporation",
		FileURL: "https://files.example.com/coi.pdf",
	})
	require.NoError(t, err)
	require.Len(t, resp.Documents, 1)
	assert.Equal(t, f.now.UnixMilli(), resp.Documents[0].UploadedAt)

	f.audits.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *audit.Entry) error {
		assert.Equal(t, "kyc.submitted", e.Action)
		assert.Equal(t, audit.EntityKyc, e.EntityType)
		assert.Equal(t, v.ID.String(), e.EntityID)
		return nil
	})
	resp, err = f.svc.SubmitKyc(ctx, owner, v.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domainCompliance.StatusSubmitted, resp.Status)
	assert.Equal(t, domainCompliance.StepReview, resp.Step)
	require.NotNil(t, resp.SubmittedAt)
}

func TestMutations_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	v := draft()
	v.UserID = "user_2"

	f.repo.EXPECT().GetByID(gomock.Any(), v.ID).Return(v, nil)
	_, err := f.svc.SubmitKyc(context.Background(), owner, v.ID.String())
	assert.Equal(t, appErrors.CodeForbidden, appErrors.CodeOf(err))
	assert.ErrorIs(t, err, domainCompliance.ErrNotOwner)
}

func TestSubmitKyc_AlreadySubmitted(t *testing.T) {
	f := newFixture(t)
	v := draft()
	v.Status = domainCompliance.StatusSubmitted

	f.repo.EXPECT().GetByID(gomock.Any(), v.ID).Return(v, nil)
	_, err := f.svc.SubmitKyc(context.Background(), owner, v.ID.String())
	assert.Equal(t, appErrors.CodeConflict, appErrors.CodeOf(err))
}

func TestAddKycDocument_Invalid(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddKycDocument(context.Background(), owner, uuid.NewString(), &AddKycDocumentRequest{Type: "id", FileURL: "not a url"})
	assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))
}
