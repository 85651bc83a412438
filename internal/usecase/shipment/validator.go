package shipment

import (
	"strings"
	"time"

	domainShipment "marketlive/internal/domain/shipment"
	appErrors "marketlive/pkg/errors"
	"marketlive/pkg/utils"

	"github.com/google/uuid"
)

// ValidateSnapshot checks req and returns its status mapped onto the closed set.
func ValidateSnapshot(req *UpsertShipmentRequest) (domainShipment.Status, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return "", appErrors.Validation("Invalid tracking snapshot", err)
	}

	req.ShipmentID = strings.TrimSpace(req.ShipmentID)
	if req.ShipmentID == "" {
		return "", appErrors.Validation("shipmentId is required", appErrors.ErrInvalidInput)
	}

	status, err := domainShipment.NormalizeStatus(req.Tracking.Status)
	if err != nil {
		return "", appErrors.Validation(err.Error(), err)
	}
	return status, nil
}

// buildEvents converts the snapshot's events for shipmentID. Event statuses
// are kept as the carrier reported them.
func buildEvents(shipmentID uuid.UUID, in []TrackingEventInput, now time.Time) []*domainShipment.TrackingEvent {
	events := make([]*domainShipment.TrackingEvent, 0, len(in))
	for _, e := range in {
		events = append(events, &domainShipment.TrackingEvent{
			ShipmentID:  shipmentID,
			Timestamp:   strings.TrimSpace(e.Timestamp),
			Status:      strings.TrimSpace(e.Status),
			Location:    strings.TrimSpace(e.Location),
			Description: e.Description,
			CreatedAt:   now,
		})
	}
	return events
}
