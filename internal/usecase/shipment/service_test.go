package shipment

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"marketlive/internal/domain/audit"
	domainShipment "marketlive/internal/domain/shipment"
	"marketlive/internal/identity"
	"marketlive/internal/notify"
	appErrors "marketlive/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepository mirrors the postgres repository semantics closely enough
// for service tests: revision CAS on update and keyed event dedup.
type memoryRepository struct {
	mu        sync.Mutex
	shipments map[string]*domainShipment.Shipment
	events    map[uuid.UUID][]*domainShipment.TrackingEvent

	// conflicts makes the next n updates fail with ErrConcurrentUpdate.
	conflicts int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		shipments: make(map[string]*domainShipment.Shipment),
		events:    make(map[uuid.UUID][]*domainShipment.TrackingEvent),
	}
}

func (r *memoryRepository) Create(_ context.Context, s *domainShipment.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shipments[s.ShipmentID]; ok {
		return domainShipment.ErrShipmentAlreadyExists
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.shipments[s.ShipmentID] = &cp
	return nil
}

func (r *memoryRepository) GetByShipmentID(_ context.Context, shipmentID string) (*domainShipment.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shipments[shipmentID]
	if !ok {
		return nil, domainShipment.ErrShipmentNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memoryRepository) GetByTrackingNumber(_ context.Context, trackingNumber string) (*domainShipment.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shipments {
		if s.TrackingNumber == trackingNumber {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domainShipment.ErrShipmentNotFound
}

func (r *memoryRepository) Update(_ context.Context, s *domainShipment.Shipment, expectedRevision int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts > 0 {
		r.conflicts--
		return domainShipment.ErrConcurrentUpdate
	}
	stored, ok := r.shipments[s.ShipmentID]
	if !ok {
		return domainShipment.ErrShipmentNotFound
	}
	if stored.StatusRevision != expectedRevision {
		return domainShipment.ErrConcurrentUpdate
	}
	cp := *s
	r.shipments[s.ShipmentID] = &cp
	return nil
}

func (r *memoryRepository) List(_ context.Context, f domainShipment.Filter) ([]*domainShipment.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domainShipment.Shipment
	for _, s := range r.shipments {
		if f.UserID != "" && (s.UserID == nil || *s.UserID != f.UserID) {
			continue
		}
		if f.OrgID != "" && (s.OrgID == nil || *s.OrgID != f.OrgID) {
			continue
		}
		if f.Search != "" && !strings.Contains(s.ShipmentID, f.Search) && !strings.Contains(s.TrackingNumber, f.Search) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memoryRepository) Count(ctx context.Context, f domainShipment.Filter) (int64, error) {
	list, err := r.List(ctx, f)
	return int64(len(list)), err
}

func (r *memoryRepository) AppendEvents(_ context.Context, shipmentID uuid.UUID, events []*domainShipment.TrackingEvent, dedup bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	if dedup {
		for _, e := range r.events[shipmentID] {
			seen[e.Key()] = true
		}
	}
	stored := 0
	for _, e := range events {
		if dedup {
			if seen[e.Key()] {
				continue
			}
			seen[e.Key()] = true
		}
		r.events[shipmentID] = append(r.events[shipmentID], e)
		stored++
	}
	return stored, nil
}

func (r *memoryRepository) ListEvents(_ context.Context, shipmentID uuid.UUID) ([]*domainShipment.TrackingEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[shipmentID], nil
}

type recordingAudits struct {
	entries []*audit.Entry
}

func (r *recordingAudits) Create(_ context.Context, e *audit.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *recordingAudits) ListRecent(context.Context, int) ([]*audit.Entry, error) {
	return r.entries, nil
}

type recordingOutbox struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (r *recordingOutbox) Enqueue(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingOutbox) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.messages))
	for _, m := range r.messages {
		out = append(out, m.Key)
	}
	return out
}

type fixture struct {
	svc    *Service
	repo   *memoryRepository
	audits *recordingAudits
	outbox *recordingOutbox
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		repo:   newMemoryRepository(),
		audits: &recordingAudits{},
		outbox: &recordingOutbox{},
	}
	f.svc = NewService(f.repo, f.audits, f.outbox, nil, cfg)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }
	return f
}

func snapshot(shipmentID, status string, events ...TrackingEventInput) *UpsertShipmentRequest {
	return &UpsertShipmentRequest{
		ShipmentID: shipmentID,
		Tracking: TrackingSnapshot{
			Status:         status,
			Carrier:        "Maersk Line",
			TrackingNumber: "MAEU123",
			CurrentLocation: domainShipment.Location{
				City:    "Rotterdam",
				Country: "NL",
			},
			Events: events,
		},
	}
}

var owner = &identity.Identity{Subject: "user_1", OrgID: "org_1"}

func TestUpsert_CreatesShipment(t *testing.T) {
	f := newFixture(Config{})

	res, err := f.svc.Upsert(context.Background(), owner, snapshot("SH-1", "In Transit",
		TrackingEventInput{Timestamp: "2025-06-01T08:00:00Z", Status: "In Transit", Location: "Rotterdam"},
	))
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.False(t, res.StatusChanged)
	assert.Equal(t, domainShipment.StatusInTransit, res.Shipment.Status)
	assert.Equal(t, 0, res.Shipment.StatusRevision)
	assert.Equal(t, 1, res.EventsStored)
	assert.Equal(t, "user_1", *res.Shipment.UserID)
	assert.Equal(t, "org_1", *res.Shipment.OrgID)

	assert.Equal(t, []string{"shipment:SH-1:created:in_app"}, f.outbox.keys())
	payload := f.outbox.messages[0].Payload.(notify.InAppPayload)
	assert.Equal(t, "Shipment Created", payload.Title)
	assert.Equal(t, "user_1", payload.Recipient)
}

func TestUpsert_AnonymousCreateHasNoNotification(t *testing.T) {
	f := newFixture(Config{})

	res, err := f.svc.Upsert(context.Background(), nil, snapshot("SH-1", "created"))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Nil(t, res.Shipment.UserID)
	assert.Empty(t, f.outbox.messages)
}

func TestUpsert_StatusChange(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	_, err := f.svc.Upsert(ctx, owner, snapshot("SH-1", "picked_up"))
	require.NoError(t, err)

	res, err := f.svc.Upsert(ctx, nil, snapshot("SH-1", "in-transit"))
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.True(t, res.StatusChanged)
	assert.False(t, res.OutOfBand)
	assert.Equal(t, 1, res.Shipment.StatusRevision)
	assert.Empty(t, f.audits.entries)

	assert.Equal(t, []string{
		"shipment:SH-1:created:in_app",
		"shipment:SH-1:status:1:workflow",
		"shipment:SH-1:status:1:in_app",
	}, f.outbox.keys())

	wf := f.outbox.messages[1].Payload.(notify.WorkflowPayload)
	assert.Equal(t, "shipment.status_changed", wf.Event)
	assert.Equal(t, "picked_up", wf.PreviousStatus)
	assert.Equal(t, "in_transit", wf.Status)
	assert.Equal(t, "MAEU123", wf.TrackingNumber)

	inApp := f.outbox.messages[2].Payload.(notify.InAppPayload)
	assert.Equal(t, "user_1", inApp.Recipient)
	assert.Equal(t, "Shipment SH-1 is now in_transit.", inApp.Message)
}

func TestUpsert_SameStatusKeepsRevision(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	_, err := f.svc.Upsert(ctx, nil, snapshot("SH-1", "in_transit"))
	require.NoError(t, err)

	req := snapshot("SH-1", "in_transit")
	req.Tracking.CurrentLocation.City = "Hamburg"
	res, err := f.svc.Upsert(ctx, owner, req)
	require.NoError(t, err)

	assert.False(t, res.StatusChanged)
	assert.Equal(t, 0, res.Shipment.StatusRevision)
	assert.Equal(t, "Hamburg", res.Shipment.CurrentLocation.City)
	// owner is filled in on the first authenticated upsert
	assert.Equal(t, "user_1", *res.Shipment.UserID)
	assert.Empty(t, f.outbox.messages)
}

func TestUpsert_OutOfBandTransition(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	_, err := f.svc.Upsert(ctx, nil, snapshot("SH-1", "delivered"))
	require.NoError(t, err)

	res, err := f.svc.Upsert(ctx, nil, snapshot("SH-1", "in_transit"))
	require.NoError(t, err)

	assert.True(t, res.StatusChanged)
	assert.True(t, res.OutOfBand)
	assert.Equal(t, domainShipment.StatusInTransit, res.Shipment.Status)

	require.Len(t, f.audits.entries, 1)
	assert.Equal(t, "shipment.out_of_band_transition", f.audits.entries[0].Action)
	assert.Equal(t, "delivered", f.audits.entries[0].Details["from"])

	// no owner, so only the workflow message
	assert.Equal(t, []string{"shipment:SH-1:status:1:workflow"}, f.outbox.keys())
	assert.True(t, f.outbox.messages[0].Payload.(notify.WorkflowPayload).OutOfBand)
}

func TestUpsert_EventDedup(t *testing.T) {
	ev := TrackingEventInput{Timestamp: "2025-06-01T08:00:00Z", Status: "In Transit", Location: "Rotterdam"}

	tests := []struct {
		name   string
		dedup  bool
		second int
	}{
		{"dedup enabled", true, 0},
		{"dedup disabled", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(Config{DedupEvents: tt.dedup})
			ctx := context.Background()

			res, err := f.svc.Upsert(ctx, nil, snapshot("SH-1", "in_transit", ev))
			require.NoError(t, err)
			assert.Equal(t, 1, res.EventsStored)

			res, err = f.svc.Upsert(ctx, nil, snapshot("SH-1", "in_transit", ev))
			require.NoError(t, err)
			assert.Equal(t, tt.second, res.EventsStored)
		})
	}
}

func TestUpsert_RetriesConcurrentUpdate(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	_, err := f.svc.Upsert(ctx, nil, snapshot("SH-1", "picked_up"))
	require.NoError(t, err)

	f.repo.conflicts = 2
	res, err := f.svc.Upsert(ctx, nil, snapshot("SH-1", "in_transit"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Shipment.StatusRevision)

	f.repo.conflicts = maxUpsertAttempts
	_, err = f.svc.Upsert(ctx, nil, snapshot("SH-1", "customs"))
	assert.ErrorIs(t, err, domainShipment.ErrConcurrentUpdate)
}

func TestUpsert_ConcurrentSnapshotsBumpRevisionOncePerChange(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	_, err := f.svc.Upsert(ctx, nil, snapshot("SH-1", "picked_up"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Upsert(ctx, nil, snapshot("SH-1", "in_transit"))
		}()
	}
	wg.Wait()

	sh, err := f.repo.GetByShipmentID(ctx, "SH-1")
	require.NoError(t, err)
	assert.Equal(t, 1, sh.StatusRevision)
	assert.Equal(t, []string{"shipment:SH-1:status:1:workflow"}, f.outbox.keys())
}

func TestUpsert_Invalid(t *testing.T) {
	f := newFixture(Config{})

	tests := []struct {
		name string
		req  *UpsertShipmentRequest
	}{
		{"missing id", snapshot("  ", "in_transit")},
		{"missing status", snapshot("SH-1", "")},
		{"unknown status", snapshot("SH-1", "teleported")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Upsert(context.Background(), nil, tt.req)
			assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))
		})
	}
}

func TestGetAndTrack(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	_, err := f.svc.Upsert(ctx, nil, snapshot("SH-1", "in_transit",
		TrackingEventInput{Timestamp: "t1", Status: "Picked Up"},
		TrackingEventInput{Timestamp: "t2", Status: "In Transit"},
	))
	require.NoError(t, err)

	detail, err := f.svc.Get(ctx, "SH-1")
	require.NoError(t, err)
	assert.Equal(t, "SH-1", detail.Shipment.ShipmentID)
	require.Len(t, detail.Events, 2)
	assert.Equal(t, "Picked Up", detail.Events[0].Status)

	detail, err = f.svc.Track(ctx, "MAEU123")
	require.NoError(t, err)
	assert.Equal(t, "SH-1", detail.Shipment.ShipmentID)

	_, err = f.svc.Get(ctx, "SH-404")
	assert.ErrorIs(t, err, domainShipment.ErrShipmentNotFound)
}

func TestList(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()

	colleague := &identity.Identity{Subject: "user_2", OrgID: "org_1"}
	_, err := f.svc.Upsert(ctx, owner, snapshot("SH-1", "in_transit"))
	require.NoError(t, err)
	_, err = f.svc.Upsert(ctx, colleague, snapshot("SH-2", "in_transit"))
	require.NoError(t, err)
	_, err = f.svc.Upsert(ctx, &identity.Identity{Subject: "user_3"}, snapshot("SH-3", "in_transit"))
	require.NoError(t, err)

	resp, err := f.svc.List(ctx, owner, ListShipmentsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)

	resp, err = f.svc.List(ctx, owner, ListShipmentsRequest{OnlyMine: true})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "SH-1", resp.Shipments[0].ShipmentID)

	resp, err = f.svc.List(ctx, owner, ListShipmentsRequest{Search: "SH-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)

	resp, err = f.svc.List(ctx, nil, ListShipmentsRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Shipments)
}

func TestFlagAndClear(t *testing.T) {
	f := newFixture(Config{})
	ctx := context.Background()
	admin := &identity.Identity{Subject: "admin_1", Role: "admin"}

	_, err := f.svc.Upsert(ctx, owner, snapshot("SH-1", "in_transit"))
	require.NoError(t, err)

	_, err = f.svc.Flag(ctx, owner, "SH-1", &FlagShipmentRequest{RiskLevel: "high", Reason: "customs hold"})
	assert.Equal(t, appErrors.CodeForbidden, appErrors.CodeOf(err))

	_, err = f.svc.Flag(ctx, admin, "SH-1", &FlagShipmentRequest{RiskLevel: "extreme", Reason: "x"})
	assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))

	resp, err := f.svc.Flag(ctx, admin, "SH-1", &FlagShipmentRequest{RiskLevel: "high", Reason: "customs hold"})
	require.NoError(t, err)
	assert.Equal(t, "high", *resp.RiskLevel)
	assert.Equal(t, "admin_1", *resp.FlaggedBy)

	resp, err = f.svc.ClearFlag(ctx, admin, "SH-1")
	require.NoError(t, err)
	assert.Equal(t, domainShipment.RiskLow, *resp.RiskLevel)
	assert.Nil(t, resp.FlagReason)
	assert.Nil(t, resp.FlaggedBy)

	require.Len(t, f.audits.entries, 2)
	assert.Equal(t, "shipment.flagged", f.audits.entries[0].Action)
	assert.Equal(t, "customs hold", f.audits.entries[0].Details["reason"])
	assert.Equal(t, "shipment.unflagged", f.audits.entries[1].Action)
}
