package compliance

import (
	"time"

	domainCompliance "marketlive/internal/domain/compliance"
)

// Request DTOs
type UpdateKycDetailsRequest struct {
	CompanyName        string `json:"companyName" validate:"required,max=200"`
	RegistrationNumber string `json:"registrationNumber" validate:"required,max=100"`
	VATNumber          string `json:"vatNumber" validate:"required,max=100"`
	Country            string `json:"country" validate:"required,max=100"`
}

type AddKycDocumentRequest struct {
	Type    string  `json:"type" validate:"required,max=100"`
	FileURL string  `json:"fileUrl" validate:"required,url"`
	FileID  *string `json:"fileId,omitempty" validate:"omitempty,max=200"`
}

// Response DTOs
type VerificationResponse struct {
	ID                 string                         `json:"id"`
	UserID             string                         `json:"userId"`
	OrgID              *string                        `json:"orgId,omitempty"`
	Status             domainCompliance.Status        `json:"status"`
	Step               int                            `json:"step"`
	CompanyName        *string                        `json:"companyName,omitempty"`
	RegistrationNumber *string                        `json:"registrationNumber,omitempty"`
	VATNumber          *string                        `json:"vatNumber,omitempty"`
	Country            *string                        `json:"country,omitempty"`
	Documents          []domainCompliance.KycDocument `json:"documents"`
	SubmittedAt        *time.Time                     `json:"submittedAt,omitempty"`
	CreatedAt          time.Time                      `json:"createdAt"`
	UpdatedAt          time.Time                      `json:"updatedAt"`
}

func ToVerificationResponse(v *domainCompliance.Verification) *VerificationResponse {
	docs := v.Documents
	if docs == nil {
		docs = []domainCompliance.KycDocument{}
	}
	return &VerificationResponse{
		ID:                 v.ID.String(),
		UserID:             v.UserID,
		OrgID:              v.OrgID,
		Status:             v.Status,
		Step:               v.Step,
		CompanyName:        v.CompanyName,
		RegistrationNumber: v.RegistrationNumber,
		VATNumber:          v.VATNumber,
		Country:            v.Country,
		Documents:          docs,
		SubmittedAt:        v.SubmittedAt,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}
}
