package compliance

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// Wizard steps
const (
	StepDetails   = 1
	StepDocuments = 2
	StepReview    = 3
)

type KycDocument struct {
	Type       string  `json:"type"`
	FileURL    string  `json:"fileUrl"`
	FileID     *string `json:"fileId,omitempty"`
	UploadedAt int64   `json:"uploadedAt"`
}

// Verification is a customer's KYC record, keyed by identity subject.
type Verification struct {
	ID     uuid.UUID
	UserID string
	OrgID  *string
	Status Status
	Step   int

	CompanyName        *string
	RegistrationNumber *string
	VATNumber          *string
	Country            *string

	Documents   []KycDocument
	SubmittedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
