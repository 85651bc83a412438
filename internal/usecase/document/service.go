package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	domainDocument "marketlive/internal/domain/document"
	"marketlive/internal/identity"
	"marketlive/internal/infrastructure/esign"
	"marketlive/internal/logger"
	"marketlive/internal/metrics"
	appErrors "marketlive/pkg/errors"
	"marketlive/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Signer sends a document out for e-signature.
type Signer interface {
	SendEnvelope(ctx context.Context, req esign.EnvelopeRequest) (*esign.EnvelopeResult, error)
}

type Config struct {
	AppURL string
}

type Service struct {
	documents domainDocument.Repository
	signer    Signer
	metrics   *metrics.Metrics
	cfg       Config
	now       func() time.Time
}

func NewService(documents domainDocument.Repository, signer Signer, m *metrics.Metrics, cfg Config) *Service {
	return &Service{
		documents: documents,
		signer:    signer,
		metrics:   m,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *Service) Create(ctx context.Context, id *identity.Identity, req *CreateDocumentRequest) (*DocumentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	docType, err := domainDocument.ParseType(req.Type)
	if err != nil {
		return nil, err
	}

	status := domainDocument.StatusDraft
	if req.Status != nil && *req.Status != "" {
		if status, err = domainDocument.ParseStatus(*req.Status); err != nil {
			return nil, err
		}
	}

	now := s.now()
	d := &domainDocument.Document{
		ID:         uuid.New(),
		Type:       docType,
		BookingID:  req.BookingID,
		ShipmentID: req.ShipmentID,
		Data:       req.Data,
		Status:     status,
		UserID:     ownerOf(id),
		OrgID:      orgOf(id),
		UploadedBy: ownerOf(id),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.documents.Create(ctx, d); err != nil {
		return nil, err
	}

	logger.Info("Document created",
		zap.String("document_id", d.ID.String()),
		zap.String("type", string(d.Type)),
		zap.String("event", "document_created"),
	)

	return ToDocumentResponse(d), nil
}

// ListMy returns the caller's own documents, newest first.
func (s *Service) ListMy(ctx context.Context, id *identity.Identity, req ListDocumentsRequest) (*DocumentListResponse, error) {
	if !id.Authenticated() {
		return ToDocumentListResponse(nil), nil
	}

	docs, err := s.documents.List(ctx, domainDocument.Filter{
		UserID:     id.Owner(),
		Type:       domainDocument.Type(req.Type),
		BookingID:  req.BookingID,
		ShipmentID: req.ShipmentID,
	})
	if err != nil {
		return nil, err
	}
	return ToDocumentListResponse(docs), nil
}

// List returns the organization's documents, or the caller's for a personal account.
func (s *Service) List(ctx context.Context, id *identity.Identity, req ListDocumentsRequest) (*DocumentListResponse, error) {
	if !id.Authenticated() {
		return ToDocumentListResponse(nil), nil
	}

	filter := domainDocument.Filter{
		UserID: id.Owner(),
		Type:   domainDocument.Type(req.Type),
		Status: domainDocument.Status(req.Status),
	}
	if id.OrgID != "" {
		filter.UserID = ""
		filter.OrgID = id.OrgID
	}

	docs, err := s.documents.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToDocumentListResponse(docs), nil
}

func (s *Service) Get(ctx context.Context, id *identity.Identity, documentID string) (*DocumentResponse, error) {
	d, err := s.load(ctx, id, documentID)
	if err != nil {
		return nil, err
	}
	return ToDocumentResponse(d), nil
}

// Update replaces the document data and/or moves its status.
func (s *Service) Update(ctx context.Context, id *identity.Identity, documentID string, req *UpdateDocumentRequest) (*DocumentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	d, err := s.load(ctx, id, documentID)
	if err != nil {
		return nil, err
	}

	if req.Data != nil {
		d.Data = *req.Data
	}
	if req.Status != nil && *req.Status != "" {
		next, err := domainDocument.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		if err := domainDocument.ValidateStatusTransition(d.Status, next); err != nil {
			return nil, err
		}
		d.Status = next
	}
	d.UpdatedAt = s.now()

	if err := s.documents.Update(ctx, d); err != nil {
		return nil, err
	}
	return ToDocumentResponse(d), nil
}

// SetEnvelope stores the signature envelope and moves the document status
// when the envelope status maps onto one.
func (s *Service) SetEnvelope(ctx context.Context, id *identity.Identity, documentID string, req *SetEnvelopeRequest) (*DocumentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	d, err := s.load(ctx, id, documentID)
	if err != nil {
		return nil, err
	}

	if err := s.applyEnvelope(ctx, d, req.EnvelopeID, req.Status, req.Recipients); err != nil {
		return nil, err
	}
	return ToDocumentResponse(d), nil
}

func (s *Service) applyEnvelope(ctx context.Context, d *domainDocument.Document, envelopeID, status string, recipients []domainDocument.Recipient) error {
	now := s.now()
	d.Envelope = &domainDocument.Envelope{
		EnvelopeID:  envelopeID,
		Status:      status,
		LastUpdated: now.UnixMilli(),
		Recipients:  recipients,
	}

	if next, ok := domainDocument.StatusForEnvelope(strings.ToLower(status)); ok && next != d.Status {
		if err := domainDocument.ValidateStatusTransition(d.Status, next); err != nil {
			return err
		}
		d.Status = next
	}
	d.UpdatedAt = now

	if err := s.documents.Update(ctx, d); err != nil {
		return err
	}

	logger.Info("Signature envelope stored",
		zap.String("document_id", d.ID.String()),
		zap.String("envelope_id", envelopeID),
		zap.String("envelope_status", status),
		zap.String("event", "document_envelope_set"),
	)
	return nil
}

// SendForSignature creates an envelope with the e-signature provider and
// records it on the document.
func (s *Service) SendForSignature(ctx context.Context, id *identity.Identity, documentID string, req *SendForSignatureRequest) (*DocumentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}
	if s.signer == nil {
		return nil, appErrors.NewAppError(appErrors.CodeVendor, "E-signature is not configured", esign.ErrNotConfigured)
	}

	d, err := s.load(ctx, id, documentID)
	if err != nil {
		return nil, err
	}

	result, err := s.signer.SendEnvelope(ctx, esign.EnvelopeRequest{
		Signer:         esign.Signer{Name: req.SignerName, Email: req.SignerEmail},
		DocumentName:   fmt.Sprintf("%s-%s.pdf", d.Type, d.Data.DocumentNumber),
		DocumentBase64: req.DocumentBase64,
	})
	if err != nil {
		logger.Error("Failed to send document for signature",
			zap.String("document_id", d.ID.String()),
			zap.Error(err),
		)
		return nil, appErrors.NewAppError(appErrors.CodeVendor, "Failed to send document for signature", err)
	}

	recipients := make([]domainDocument.Recipient, 0, len(result.Recipients))
	for _, r := range result.Recipients {
		recipients = append(recipients, domainDocument.Recipient{Email: r.Email, Name: r.Name})
	}

	if err := s.applyEnvelope(ctx, d, result.EnvelopeID, result.Status, recipients); err != nil {
		// The envelope exists at the provider; the metadata sync is what failed.
		s.metrics.RecordSideEffectFailure("envelope_sync")
		return nil, err
	}
	return ToDocumentResponse(d), nil
}

func (s *Service) GenerateShareLink(ctx context.Context, id *identity.Identity, documentID string) (*ShareLinkResponse, error) {
	if !id.Authenticated() {
		return nil, appErrors.NewAppError(appErrors.CodeUnauthorized, "Authentication required", appErrors.ErrUnauthorized)
	}

	d, err := s.load(ctx, id, documentID)
	if err != nil {
		return nil, err
	}

	token := utils.NewShareToken()
	d.ShareToken = &token
	d.UpdatedAt = s.now()
	if err := s.documents.Update(ctx, d); err != nil {
		return nil, err
	}

	logger.Info("Document share link generated",
		zap.String("document_id", d.ID.String()),
		zap.String("event", "document_shared"),
	)

	return &ShareLinkResponse{
		Token: token,
		URL:   strings.TrimRight(s.cfg.AppURL, "/") + "/shared/documents/" + token,
	}, nil
}

// GetShared resolves a share token. No identity is required.
func (s *Service) GetShared(ctx context.Context, token string) (*DocumentResponse, error) {
	if strings.TrimSpace(token) == "" {
		return nil, appErrors.Validation("Share token is required", appErrors.ErrInvalidInput)
	}
	d, err := s.documents.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return ToDocumentResponse(d), nil
}

// load fetches the document and checks that id may act on it.
func (s *Service) load(ctx context.Context, id *identity.Identity, documentID string) (*domainDocument.Document, error) {
	docUUID, err := uuid.Parse(documentID)
	if err != nil {
		return nil, appErrors.Validation("Invalid document ID", err)
	}

	d, err := s.documents.GetByID(ctx, docUUID)
	if err != nil {
		return nil, err
	}
	if !canAccess(id, d) {
		return nil, appErrors.NewAppError(appErrors.CodeForbidden, "You do not have access to this document", domainDocument.ErrNotOwner)
	}
	return d, nil
}

func canAccess(id *identity.Identity, d *domainDocument.Document) bool {
	if d.UserID == nil && d.OrgID == nil {
		return true
	}
	if id.IsAdmin() {
		return true
	}
	if d.UserID != nil && id.Owns(*d.UserID) {
		return true
	}
	return d.OrgID != nil && id != nil && id.OrgID != "" && *d.OrgID == id.OrgID
}

func ownerOf(id *identity.Identity) *string {
	if owner := id.Owner(); owner != "" {
		return &owner
	}
	return nil
}

func orgOf(id *identity.Identity) *string {
	if id == nil || id.OrgID == "" {
		return nil
	}
	org := id.OrgID
	return &org
}

