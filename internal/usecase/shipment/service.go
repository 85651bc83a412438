package shipment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketlive/internal/domain/audit"
	domainShipment "marketlive/internal/domain/shipment"
	"marketlive/internal/identity"
	"marketlive/internal/logger"
	"marketlive/internal/metrics"
	"marketlive/internal/notify"
	appErrors "marketlive/pkg/errors"
	"marketlive/pkg/utils"

	"go.uber.org/zap"
)

const (
	aggregate         = "shipment"
	maxUpsertAttempts = 3
)

type Config struct {
	DedupEvents bool
}

// Service implements shipment tracking use cases
type Service struct {
	shipments domainShipment.Repository
	audits    audit.Repository
	outbox    notify.Enqueuer
	metrics   *metrics.Metrics
	cfg       Config
	now       func() time.Time
}

func NewService(
	shipments domainShipment.Repository,
	audits audit.Repository,
	outbox notify.Enqueuer,
	m *metrics.Metrics,
	cfg Config,
) *Service {
	return &Service{
		shipments: shipments,
		audits:    audits,
		outbox:    outbox,
		metrics:   m,
		cfg:       cfg,
		now:       time.Now,
	}
}

type change struct {
	shipment *domainShipment.Shipment
	created  bool
	previous domainShipment.Status
}

// Upsert creates or patches the shipment named by req.ShipmentID from a carrier
// snapshot and appends the snapshot's events.
func (s *Service) Upsert(ctx context.Context, id *identity.Identity, req *UpsertShipmentRequest) (*UpsertResult, error) {
	status, err := ValidateSnapshot(req)
	if err != nil {
		s.metrics.RecordShipmentUpsert("invalid")
		return nil, err
	}

	var c *change
	for attempt := 1; ; attempt++ {
		c, err = s.apply(ctx, id, req, status)
		if err == nil {
			break
		}
		retryable := errors.Is(err, domainShipment.ErrConcurrentUpdate) ||
			errors.Is(err, domainShipment.ErrShipmentAlreadyExists)
		if !retryable || attempt >= maxUpsertAttempts {
			s.metrics.RecordShipmentUpsert("error")
			return nil, err
		}
		logger.Debug("Retrying shipment upsert",
			zap.String("shipment_id", req.ShipmentID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	sh := c.shipment
	now := s.now()
	stored, err := s.shipments.AppendEvents(ctx, sh.ID, buildEvents(sh.ID, req.Tracking.Events, now), s.cfg.DedupEvents)
	if err != nil {
		s.metrics.RecordShipmentUpsert("error")
		return nil, err
	}

	result := &UpsertResult{
		Shipment:      ToShipmentResponse(sh),
		Created:       c.created,
		StatusChanged: !c.created && c.previous != sh.Status,
		EventsStored:  stored,
	}
	result.OutOfBand = result.StatusChanged && !domainShipment.IsExpectedTransition(c.previous, sh.Status)

	switch {
	case result.Created:
		s.metrics.RecordShipmentUpsert("created")
	case result.StatusChanged:
		s.metrics.RecordShipmentUpsert("status_changed")
	default:
		s.metrics.RecordShipmentUpsert("updated")
	}

	logger.Info("Shipment upserted",
		zap.String("shipment_id", sh.ShipmentID),
		zap.String("status", string(sh.Status)),
		zap.Bool("created", result.Created),
		zap.Int("events_stored", stored),
		zap.String("event", "shipment_upserted"),
	)

	if result.OutOfBand {
		s.metrics.RecordOutOfBandTransition()
		logger.Warn("Shipment moved outside the expected progression",
			zap.String("shipment_id", sh.ShipmentID),
			zap.String("from", string(c.previous)),
			zap.String("to", string(sh.Status)),
			zap.String("event", "shipment_out_of_band_transition"),
		)
		s.recordAudit(ctx, &audit.Entry{
			Action:     "shipment.out_of_band_transition",
			EntityType: audit.EntityShipment,
			EntityID:   sh.ShipmentID,
			UserID:     id.Owner(),
			Details: map[string]interface{}{
				"from":     string(c.previous),
				"to":       string(sh.Status),
				"revision": sh.StatusRevision,
			},
		})
	}

	if result.StatusChanged {
		s.enqueueStatusChange(ctx, sh, c.previous, result.OutOfBand)
	}

	if result.Created && id.Authenticated() {
		notify.SafeEnqueue(ctx, s.outbox, s.metrics, notify.InApp(aggregate, sh.ShipmentID, "created", notify.InAppPayload{
			Recipient: id.Subject,
			Title:     "Shipment Created",
			Message:   fmt.Sprintf("New shipment %s created successfully.", sh.ShipmentID),
			Type:      "shipment",
			Priority:  "medium",
			ActionURL: "/shipments",
		}))
	}

	return result, nil
}

func (s *Service) apply(ctx context.Context, id *identity.Identity, req *UpsertShipmentRequest, status domainShipment.Status) (*change, error) {
	now := s.now()

	existing, err := s.shipments.GetByShipmentID(ctx, req.ShipmentID)
	if errors.Is(err, domainShipment.ErrShipmentNotFound) {
		sh := &domainShipment.Shipment{
			ShipmentID:  req.ShipmentID,
			UserID:      ownerOf(id),
			OrgID:       orgOf(id),
			LastUpdated: now,
			CreatedAt:   now,
		}
		applySnapshot(sh, req.Tracking, status)
		if err := s.shipments.Create(ctx, sh); err != nil {
			return nil, err
		}
		return &change{shipment: sh, created: true}, nil
	}
	if err != nil {
		return nil, err
	}

	previous := existing.Status
	expected := existing.StatusRevision

	applySnapshot(existing, req.Tracking, status)
	if previous != status {
		existing.StatusRevision++
	}
	if existing.UserID == nil {
		existing.UserID = ownerOf(id)
	}
	if existing.OrgID == nil {
		existing.OrgID = orgOf(id)
	}
	existing.LastUpdated = now

	if err := s.shipments.Update(ctx, existing, expected); err != nil {
		return nil, err
	}
	return &change{shipment: existing, previous: previous}, nil
}

func applySnapshot(sh *domainShipment.Shipment, t TrackingSnapshot, status domainShipment.Status) {
	sh.Status = status
	sh.CurrentLocation = t.CurrentLocation
	sh.EstimatedDelivery = t.EstimatedDelivery
	sh.Carrier = t.Carrier
	sh.TrackingNumber = t.TrackingNumber
	sh.Service = t.Service
	sh.ShipmentDetails = t.ShipmentDetails
}

// enqueueStatusChange records the workflow hook and the owner's in-app
// notification, both keyed by the new status revision.
func (s *Service) enqueueStatusChange(ctx context.Context, sh *domainShipment.Shipment, previous domainShipment.Status, outOfBand bool) {
	transition := fmt.Sprintf("status:%d", sh.StatusRevision)

	notify.SafeEnqueue(ctx, s.outbox, s.metrics, notify.Workflow(aggregate, sh.ShipmentID, transition, notify.WorkflowPayload{
		Event:          "shipment.status_changed",
		ShipmentID:     sh.ShipmentID,
		TrackingNumber: sh.TrackingNumber,
		PreviousStatus: string(previous),
		Status:         string(sh.Status),
		Revision:       sh.StatusRevision,
		OutOfBand:      outOfBand,
		UserID:         utils.StringValue(sh.UserID),
		OrgID:          utils.StringValue(sh.OrgID),
		OccurredAt:     sh.LastUpdated,
	}))

	if sh.UserID == nil {
		return
	}
	notify.SafeEnqueue(ctx, s.outbox, s.metrics, notify.InApp(aggregate, sh.ShipmentID, transition, notify.InAppPayload{
		Recipient: *sh.UserID,
		Title:     "Shipment Update",
		Message:   fmt.Sprintf("Shipment %s is now %s.", sh.ShipmentID, sh.Status),
		Type:      "shipment",
		Priority:  "medium",
		ActionURL: "/shipments",
	}))
}

func (s *Service) Get(ctx context.Context, shipmentID string) (*ShipmentDetailResponse, error) {
	sh, err := s.shipments.GetByShipmentID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, sh)
}

// Track looks a shipment up by the carrier's tracking number.
func (s *Service) Track(ctx context.Context, trackingNumber string) (*ShipmentDetailResponse, error) {
	sh, err := s.shipments.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, sh)
}

func (s *Service) detail(ctx context.Context, sh *domainShipment.Shipment) (*ShipmentDetailResponse, error) {
	events, err := s.shipments.ListEvents(ctx, sh.ID)
	if err != nil {
		return nil, err
	}
	return &ShipmentDetailResponse{
		Shipment: ToShipmentResponse(sh),
		Events:   ToTrackingEventResponses(events),
	}, nil
}

// List returns the caller's shipments, or the organization's unless onlyMine is set.
func (s *Service) List(ctx context.Context, id *identity.Identity, req ListShipmentsRequest) (*ShipmentListResponse, error) {
	if !id.Authenticated() {
		return ToShipmentListResponse(nil), nil
	}

	filter := domainShipment.Filter{UserID: id.Owner(), Search: req.Search}
	if !req.OnlyMine && id.OrgID != "" {
		filter = domainShipment.Filter{OrgID: id.OrgID, Search: req.Search}
	}

	shipments, err := s.shipments.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToShipmentListResponse(shipments), nil
}

func (s *Service) Flag(ctx context.Context, id *identity.Identity, shipmentID string, req *FlagShipmentRequest) (*ShipmentResponse, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}
	if !domainShipment.ValidRiskLevel(req.RiskLevel) {
		return nil, appErrors.Validation("Invalid risk level", domainShipment.ErrInvalidRiskLevel)
	}

	sh, err := s.shipments.GetByShipmentID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	sh.RiskLevel = utils.StringPtr(req.RiskLevel)
	sh.FlagReason = utils.StringPtr(req.Reason)
	sh.FlaggedBy = utils.StringPtr(id.Subject)
	sh.LastUpdated = s.now()
	if err := s.shipments.Update(ctx, sh, sh.StatusRevision); err != nil {
		return nil, err
	}

	logger.Info("Shipment flagged",
		zap.String("shipment_id", sh.ShipmentID),
		zap.String("risk_level", req.RiskLevel),
		zap.String("event", "shipment_flagged"),
	)
	s.recordAudit(ctx, &audit.Entry{
		Action:     "shipment.flagged",
		EntityType: audit.EntityShipment,
		EntityID:   sh.ShipmentID,
		UserID:     id.Subject,
		OrgID:      id.OrgID,
		Details:    map[string]interface{}{"risk": req.RiskLevel, "reason": req.Reason},
	})

	return ToShipmentResponse(sh), nil
}

// ClearFlag resets the shipment to low risk.
func (s *Service) ClearFlag(ctx context.Context, id *identity.Identity, shipmentID string) (*ShipmentResponse, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}

	sh, err := s.shipments.GetByShipmentID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	sh.RiskLevel = utils.StringPtr(domainShipment.RiskLow)
	sh.FlagReason = nil
	sh.FlaggedBy = nil
	sh.LastUpdated = s.now()
	if err := s.shipments.Update(ctx, sh, sh.StatusRevision); err != nil {
		return nil, err
	}

	logger.Info("Shipment flag cleared",
		zap.String("shipment_id", sh.ShipmentID),
		zap.String("event", "shipment_unflagged"),
	)
	s.recordAudit(ctx, &audit.Entry{
		Action:     "shipment.unflagged",
		EntityType: audit.EntityShipment,
		EntityID:   sh.ShipmentID,
		UserID:     id.Subject,
		OrgID:      id.OrgID,
	})

	return ToShipmentResponse(sh), nil
}

func (s *Service) recordAudit(ctx context.Context, e *audit.Entry) {
	if s.audits == nil {
		return
	}
	e.Timestamp = s.now()
	if err := s.audits.Create(ctx, e); err != nil {
		s.metrics.RecordSideEffectFailure("audit_log")
		logger.Warn("Failed to write audit log",
			zap.String("action", e.Action),
			zap.String("entity_id", e.EntityID),
			zap.Error(err),
		)
	}
}

func requireAdmin(id *identity.Identity) error {
	if !id.Authenticated() {
		return appErrors.NewAppError(appErrors.CodeUnauthorized, "Authentication required", appErrors.ErrUnauthorized)
	}
	if !id.IsAdmin() {
		return appErrors.NewAppError(appErrors.CodeForbidden, "Admin access required", appErrors.ErrInsufficientPermissions)
	}
	return nil
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
